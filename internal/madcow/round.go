// Package madcow computes the Madcow 5x5 weekly prescription: projected
// maxes, rounded set weights, ramp ladders and per-side plate loads.
package madcow

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidIncrement is returned when rounding to a non-positive or
// non-finite increment.
var ErrInvalidIncrement = errors.New("rounding increment must be positive")

// RoundToIncrement rounds value to the nearest multiple of increment.
// Ties round half away from zero, so 112.5 rounds to 115 with a 5 lb increment.
func RoundToIncrement(value, increment float64) (float64, error) {
	if !(increment > 0) || math.IsInf(increment, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidIncrement, increment)
	}
	return cleanFloat(increment * math.Round(value/increment)), nil
}

// cleanFloat trims binary noise below a millionth, e.g. 0.1*3.
func cleanFloat(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

// round2 rounds to two decimal places.
func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
