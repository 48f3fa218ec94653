// Package mmap provides read-only memory mapping of chunk files, plus
// a small anonymous mapping used as a placeholder by the bulk writer.
//
// Mapping a file that another process mutates is undefined behavior;
// callers must only map frozen files.
package mmap
