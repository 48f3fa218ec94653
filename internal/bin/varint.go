// Package bin provides byte-level helpers for the chunk file layer:
// the self-delimiting varint codec, pooled scratch buffers, and
// overflow-checked offset arithmetic.
package bin

import (
	"encoding/binary"
	"errors"
	"math"
)

// Varint encoding: values below 251 occupy a single byte. Larger
// values are a tag byte followed by a little-endian integer: tag 251
// for 16 bits, 252 for 32 bits, 253 for 64 bits.
const (
	varintSingleMax = 250
	varintTag16     = 251
	varintTag32     = 252
	varintTag64     = 253
)

// Varint decoding errors.
var (
	ErrVarintTruncated = errors.New("truncated varint")
	ErrVarintTag       = errors.New("invalid varint tag")
)

// UvarintLen returns the encoded size of v in bytes.
func UvarintLen(v uint64) int {
	switch {
	case v <= varintSingleMax:
		return 1
	case v <= math.MaxUint16:
		return 3
	case v <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// AppendUvarint appends the encoding of v to dst and returns the
// extended slice.
func AppendUvarint(dst []byte, v uint64) []byte {
	switch {
	case v <= varintSingleMax:
		return append(dst, byte(v))
	case v <= math.MaxUint16:
		dst = append(dst, varintTag16)
		return binary.LittleEndian.AppendUint16(dst, uint16(v))
	case v <= math.MaxUint32:
		dst = append(dst, varintTag32)
		return binary.LittleEndian.AppendUint32(dst, uint32(v))
	default:
		dst = append(dst, varintTag64)
		return binary.LittleEndian.AppendUint64(dst, v)
	}
}

// Uvarint decodes a varint from the start of data, returning the value
// and the number of bytes consumed.
func Uvarint(data []byte) (uint64, int, error) {
	if len(data) == 0 {
		return 0, 0, ErrVarintTruncated
	}
	switch b := data[0]; b {
	case varintTag16:
		if len(data) < 3 {
			return 0, 0, ErrVarintTruncated
		}
		return uint64(binary.LittleEndian.Uint16(data[1:3])), 3, nil
	case varintTag32:
		if len(data) < 5 {
			return 0, 0, ErrVarintTruncated
		}
		return uint64(binary.LittleEndian.Uint32(data[1:5])), 5, nil
	case varintTag64:
		if len(data) < 9 {
			return 0, 0, ErrVarintTruncated
		}
		return binary.LittleEndian.Uint64(data[1:9]), 9, nil
	default:
		if b > varintSingleMax {
			return 0, 0, ErrVarintTag
		}
		return uint64(b), 1, nil
	}
}
