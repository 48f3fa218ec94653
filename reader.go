package loam

import (
	"encoding/binary"
	"os"

	"github.com/scigolib/loam/internal/bin"
	"github.com/scigolib/loam/internal/mmap"
)

// ReaderOptions configure chunk file reading.
type ReaderOptions struct {
	// NoChecksum must match the NoChecksum option the file was
	// written with.
	NoChecksum bool
}

// Reader reads chunks from a memory-mapped file.
//
// The mapping lives until Close. Mutating the file from this or
// another process while the Reader is open is undefined behavior and
// forbidden by contract; multiple concurrent readers of a frozen file
// are safe.
type Reader struct {
	data []byte
	crc  bool
}

// NewReader memory-maps path read-only with default options and
// verifies the header.
func NewReader(path string) (*Reader, error) {
	return NewReaderWithOptions(path, ReaderOptions{})
}

// NewReaderWithOptions memory-maps path with explicit options. Fails
// with ErrInvalidHeader if the file is shorter than the header or the
// magic does not match.
func NewReaderWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: user-provided path is intentional for a file library
	f, err := os.Open(path)
	if err != nil {
		return nil, wrapError("chunk file open failed", err)
	}
	// The mapping outlives the descriptor.
	defer func() { _ = f.Close() }()
	data, err := mmap.Map(f)
	if err != nil {
		return nil, wrapError("chunk file map failed", err)
	}
	if len(data) < HeaderSize || string(data[:HeaderSize]) != Magic {
		_ = mmap.Unmap(data)
		return nil, ErrInvalidHeader
	}
	return &Reader{data: data, crc: !opts.NoChecksum}, nil
}

// NewEmptyReader returns a placeholder Reader over a one-byte
// anonymous mapping. Every operation on it fails; the R-tree bulk
// writer holds one before its staging file becomes readable.
func NewEmptyReader() (*Reader, error) {
	data, err := mmap.MapAnon(1)
	if err != nil {
		return nil, wrapError("anonymous map failed", err)
	}
	return &Reader{data: data, crc: true}, nil
}

// checkpointSize returns the on-disk length of a checkpoint chunk:
// one size byte, the 8-byte root ID, and the checksum if enabled.
func (r *Reader) checkpointSize() int {
	if r.crc {
		return 1 + 8 + ChecksumSize
	}
	return 1 + 8
}

// Len returns the file length in bytes.
func (r *Reader) Len() int {
	return len(r.data)
}

// Root returns the ID recorded by the trailing checkpoint chunk.
// Fails with ErrInvalidCheckpoint if the file is too short to hold a
// checkpoint or the trailing chunk is malformed.
func (r *Reader) Root() (ID, error) {
	cp := r.checkpointSize()
	if len(r.data) >= HeaderSize+cp {
		base := len(r.data) - cp
		if r.data[base] == 8 {
			if r.crc {
				want := binary.LittleEndian.Uint32(r.data[base+9 : base+9+ChecksumSize])
				if checksum(r.data[base:base+9]) != want {
					return 0, &InvalidCrcError{ID: ID(base)}
				}
			}
			return ID(binary.LittleEndian.Uint64(r.data[base+1 : base+9])), nil
		}
	}
	return 0, ErrInvalidCheckpoint
}

// Lookup decodes the chunk starting at offset id into v. The payload
// slice passed to v aliases the memory map, so decoding is zero-copy
// where v permits. Fails with InvalidIDError if id lies outside the
// chunk region, and with InvalidCrcError if the checksum does not
// validate.
func (r *Reader) Lookup(id ID, v Unmarshaler) error {
	payload, err := r.payload(id)
	if err != nil {
		return err
	}
	if err := v.UnmarshalPayload(payload); err != nil {
		return &CodecError{Cause: err}
	}
	return nil
}

// payload frames the chunk at id and returns its payload bytes.
func (r *Reader) payload(id ID) ([]byte, error) {
	base := uint64(id)
	flen := uint64(len(r.data))
	cp := uint64(r.checkpointSize())
	if flen < HeaderSize+cp || base < HeaderSize || base >= flen-cp {
		return nil, &InvalidIDError{ID: id}
	}
	return r.payloadAt(base)
}

// Walk calls fn for each chunk in file order, including the trailing
// checkpoint, until fn returns false. The payload slice aliases the
// memory map.
func (r *Reader) Walk(fn func(id ID, payload []byte) bool) error {
	flen := uint64(len(r.data))
	cp := uint64(r.checkpointSize())
	if flen < HeaderSize+cp {
		return ErrInvalidCheckpoint
	}
	var trailer uint64
	if r.crc {
		trailer = ChecksumSize
	}
	for off := uint64(HeaderSize); off < flen; {
		payload, err := r.payloadAt(off)
		if err != nil {
			return err
		}
		if !fn(ID(off), payload) {
			return nil
		}
		_, n, _ := bin.Uvarint(r.data[off:])
		off += uint64(n) + uint64(len(payload)) + trailer
	}
	return nil
}

// payloadAt is payload without the checkpoint-region bound, so the
// final checkpoint chunk itself can be framed.
func (r *Reader) payloadAt(base uint64) ([]byte, error) {
	flen := uint64(len(r.data))
	size, n, err := bin.Uvarint(r.data[base:])
	if err != nil {
		return nil, &InvalidIDError{ID: ID(base)}
	}
	end, err := bin.SafeAdd(base+uint64(n), size)
	if err != nil {
		return nil, &InvalidIDError{ID: ID(base)}
	}
	var trailer uint64
	if r.crc {
		trailer = ChecksumSize
	}
	limit, err := bin.SafeAdd(end, trailer)
	if err != nil || limit > flen {
		return nil, &InvalidIDError{ID: ID(base)}
	}
	if r.crc {
		want := binary.LittleEndian.Uint32(r.data[end : end+ChecksumSize])
		if checksum(r.data[base:end]) != want {
			return nil, &InvalidCrcError{ID: ID(base)}
		}
	}
	return r.data[base+uint64(n) : end], nil
}

// Close unmaps the file. Values decoded with borrowed payloads must
// not be used after Close. It is safe to call Close multiple times.
func (r *Reader) Close() error {
	if r.data == nil {
		return nil
	}
	err := mmap.Unmap(r.data)
	r.data = nil
	return err
}
