// Package loam reads and writes append-only chunk files. A chunk file
// starts with an 8-byte magic header, followed by size-prefixed chunks
// and a trailing checkpoint chunk that records the root chunk ID. The
// checkpoint lets a reader locate the logical root by reading the file
// backwards from the end.
package loam

// Marshaler is implemented by values that can be stored as chunk
// payloads. AppendPayload appends the serialized payload to dst and
// returns the extended slice. The encoding must be deterministic and
// little-endian.
type Marshaler interface {
	AppendPayload(dst []byte) ([]byte, error)
}

// Unmarshaler is implemented by values that can be decoded from chunk
// payloads. The data slice may alias the reader's memory map; a value
// that retains it must not outlive the Reader.
type Unmarshaler interface {
	UnmarshalPayload(data []byte) error
}
