package loam

import "fmt"

// ID identifies a chunk within a file. It equals the byte offset where
// the chunk starts, assigned at the instant the chunk is appended. The
// zero value is reserved and never identifies a chunk.
type ID uint64

// IsValid reports whether the ID refers to a chunk.
func (id ID) IsValid() bool {
	return id != 0
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return fmt.Sprintf("Id: %d", uint64(id))
}
