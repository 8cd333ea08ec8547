package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange is returned when a bounded input lies outside its range.
var ErrOutOfRange = errors.New("value out of range")

// CheckFraction reports an error when v is not a fraction between 0 and 1.
// key is the dotted path of the field and ends up in the error message.
func CheckFraction(key string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%s: %v must be between 0 and 1: %w", key, v, ErrOutOfRange)
	}
	return nil
}

// CheckRange reports an error when v is outside [lo, hi].
func CheckRange(key string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return fmt.Errorf("%s: %v must be between %v and %v: %w", key, v, lo, hi, ErrOutOfRange)
	}
	return nil
}
