package loam

import (
	"encoding/binary"
	"os"

	"github.com/scigolib/loam/internal/bin"
)

// Chunk file header.
const (
	// Magic is the 8-byte file format identifier at offset 0.
	Magic = "loam0000"

	// HeaderSize is the length of the file header.
	HeaderSize = 8
)

// CreateMode specifies how a Writer treats an existing file.
type CreateMode int

const (
	// CreateAppend opens an existing chunk file for further appends,
	// creating it if absent.
	CreateAppend CreateMode = iota

	// CreateExclusive creates a new chunk file, failing if the path
	// already exists.
	CreateExclusive
)

// WriterOptions configure chunk file creation.
type WriterOptions struct {
	// Mode selects append-to-existing or strict-create behavior.
	Mode CreateMode

	// NoChecksum disables the CRC-32 trailer on each chunk. A file
	// must be read with the matching ReaderOptions.
	NoChecksum bool
}

// Writer appends chunks to a file.
//
// A file is only readable after Checkpoint has flushed. Any error from
// Push or Checkpoint leaves the file in an unspecified state; the
// caller must discard it.
//
// Thread-safety: Not thread-safe. A file is singly owned by at most
// one writer at a time.
type Writer struct {
	file *os.File
	len  uint64
	crc  bool
}

// NewWriter opens path for appending with default options, creating
// the file and writing the header if it is absent or empty.
func NewWriter(path string) (*Writer, error) {
	return NewWriterWithOptions(path, WriterOptions{})
}

// NewWriterWithOptions opens path with explicit options. Opening a
// non-empty file shorter than the header fails with ErrInvalidHeader.
func NewWriterWithOptions(path string, opts WriterOptions) (*Writer, error) {
	flag := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if opts.Mode == CreateExclusive {
		flag |= os.O_EXCL
	}
	//nolint:gosec // G304: user-provided path is intentional for a file library
	f, err := os.OpenFile(path, flag, 0o666)
	if err != nil {
		return nil, wrapError("chunk file open failed", err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, wrapError("chunk file stat failed", err)
	}
	length := uint64(fi.Size())
	switch {
	case length == 0:
		if _, err := f.Write([]byte(Magic)); err != nil {
			_ = f.Close()
			return nil, wrapError("header write failed", err)
		}
		length = HeaderSize
	case length < HeaderSize:
		_ = f.Close()
		return nil, ErrInvalidHeader
	}
	return &Writer{file: f, len: length, crc: !opts.NoChecksum}, nil
}

// Len returns the current file length in bytes. The next Push returns
// this value as its ID.
func (w *Writer) Len() uint64 {
	return w.len
}

// Push serializes data, frames it as a chunk, and appends it to the
// file. The returned ID equals the file length observed immediately
// before the append.
func (w *Writer) Push(data Marshaler) (ID, error) {
	if w.file == nil {
		return 0, wrapError("push failed", os.ErrClosed)
	}
	id := ID(w.len)
	if !id.IsValid() {
		return 0, ErrInvalidHeader
	}
	payload := bin.GetBuffer(256)
	defer func() { bin.ReleaseBuffer(payload) }()
	payload, err := data.AppendPayload(payload)
	if err != nil {
		return 0, &CodecError{Cause: err}
	}
	size := uint64(len(payload))
	frame := bin.GetBuffer(bin.UvarintLen(size) + len(payload) + ChecksumSize)
	defer func() { bin.ReleaseBuffer(frame) }()
	frame = bin.AppendUvarint(frame, size)
	frame = append(frame, payload...)
	if w.crc {
		frame = binary.LittleEndian.AppendUint32(frame, checksum(frame))
	}
	if _, err := w.file.Write(frame); err != nil {
		return 0, wrapError("chunk write failed", err)
	}
	w.len += uint64(len(frame))
	return id, nil
}

// rootID frames a chunk ID as a checkpoint payload.
type rootID ID

// AppendPayload implements Marshaler.
func (r rootID) AppendPayload(dst []byte) ([]byte, error) {
	return binary.LittleEndian.AppendUint64(dst, uint64(r)), nil
}

// Checkpoint appends the terminal chunk recording the root chunk ID,
// then syncs file data to stable storage. The file is readable only
// after Checkpoint returns. root may be zero for files with no logical
// root, such as geometry staging files.
func (w *Writer) Checkpoint(root ID) error {
	if _, err := w.Push(rootID(root)); err != nil {
		return err
	}
	if err := w.file.Sync(); err != nil {
		return wrapError("sync failed", err)
	}
	return nil
}

// Close closes the underlying file. It is safe to call Close multiple
// times.
func (w *Writer) Close() error {
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
