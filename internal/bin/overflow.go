package bin

import (
	"fmt"
	"math"
)

// CheckAddOverflow checks if adding two uint64 values would overflow.
// Returns an error if overflow would occur.
func CheckAddOverflow(a, b uint64) error {
	if a > math.MaxUint64-b {
		return fmt.Errorf("addition overflow: %d + %d exceeds uint64 max", a, b)
	}
	return nil
}

// SafeAdd adds two uint64 values and returns the result if no overflow
// occurs. Returns 0 and an error if overflow would occur.
func SafeAdd(a, b uint64) (uint64, error) {
	if err := CheckAddOverflow(a, b); err != nil {
		return 0, err
	}
	return a + b, nil
}

// CheckMultiplyOverflow checks if multiplying two uint64 values would
// overflow. Returns an error if overflow would occur.
func CheckMultiplyOverflow(a, b uint64) error {
	if b != 0 && a > math.MaxUint64/b {
		return fmt.Errorf("multiplication overflow: %d * %d", a, b)
	}
	return nil
}
