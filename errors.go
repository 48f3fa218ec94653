package loam

import (
	"errors"
	"fmt"
)

// Errors reported by chunk file readers and writers. I/O failures are
// wrapped with context and can be inspected with errors.Is and
// errors.As.
var (
	// ErrInvalidHeader reports a file shorter than the header or with
	// the wrong magic.
	ErrInvalidHeader = errors.New("invalid header")

	// ErrInvalidCheckpoint reports a file without a trailing checkpoint
	// chunk, or a checkpoint with a malformed payload.
	ErrInvalidCheckpoint = errors.New("invalid checkpoint")
)

// InvalidIDError reports a chunk identifier outside the valid chunk
// region of the file.
type InvalidIDError struct {
	ID ID
}

// Error implements the error interface.
func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid ID: %d", uint64(e.ID))
}

// InvalidCrcError reports a chunk whose checksum did not validate.
type InvalidCrcError struct {
	ID ID
}

// Error implements the error interface.
func (e *InvalidCrcError) Error() string {
	return fmt.Sprintf("invalid CRC at %d", uint64(e.ID))
}

// CodecError reports a payload that could not be serialized or
// deserialized.
type CodecError struct {
	Cause error
}

// Error implements the error interface.
func (e *CodecError) Error() string {
	return fmt.Sprintf("codec: %v", e.Cause)
}

// Unwrap provides compatibility with errors.Unwrap.
func (e *CodecError) Unwrap() error {
	return e.Cause
}

// wrapError attaches context to an underlying error.
func wrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, cause)
}
