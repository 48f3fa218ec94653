package bin

import "sync"

var bufferPool = sync.Pool{
	New: func() any {
		return make([]byte, 0, 4096)
	},
}

// GetBuffer returns a zero-length byte slice from the pool with at
// least the requested capacity.
func GetBuffer(size int) []byte {
	buf := bufferPool.Get().([]byte)
	if cap(buf) < size {
		return make([]byte, 0, size)
	}
	return buf[:0]
}

// ReleaseBuffer returns a buffer to the pool.
func ReleaseBuffer(buf []byte) {
	//nolint:staticcheck // SA6002: slice descriptor copy is acceptable for sync.Pool
	bufferPool.Put(buf[:0])
}
