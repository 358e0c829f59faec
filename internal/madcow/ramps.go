package madcow

import (
	"errors"
	"fmt"
)

// Ladder is a four-rung percentage ladder applied to a top set weight.
type Ladder [4]float64

var (
	// LinearLadder is the canonical Madcow ramp: 50, 62.5, 75 and 87.5 percent.
	LinearLadder = Ladder{0.50, 0.625, 0.75, 0.875}

	// RecoveryLadder ends at the working weight itself, for the light day's
	// press and deadlift.
	RecoveryLadder = Ladder{0.50, 0.625, 0.75, 1.0}

	// LightSquatLadder repeats the 75 percent rung instead of ending at 87.5
	// or 100 percent. Override it through Program when a different finish is wanted.
	LightSquatLadder = Ladder{0.50, 0.625, 0.75, 0.75}
)

var errLadder = errors.New("invalid ladder")

// Validate checks every rung is in (0, 1] and the ladder never descends.
func (l Ladder) Validate() error {
	prev := 0.0
	for i, pct := range l {
		if !(pct > 0 && pct <= 1) {
			return fmt.Errorf("%w: rung %d is %v, want (0, 1]", errLadder, i+1, pct)
		}
		if pct < prev {
			return fmt.Errorf("%w: rung %d (%v) below rung %d (%v)", errLadder, i+1, pct, i, prev)
		}
		prev = pct
	}
	return nil
}

// Ramps returns the ladder rungs of top, each rounded to increment.
func Ramps(top, increment float64, ladder Ladder) ([]float64, error) {
	sets := make([]float64, 0, len(ladder))
	for _, pct := range ladder {
		w, err := RoundToIncrement(top*pct, increment)
		if err != nil {
			return nil, err
		}
		sets = append(sets, w)
	}
	return sets, nil
}

// LinearRamps returns the four canonical ramp sets for top. The last one is
// the 87.5 percent set, not the top set.
func LinearRamps(top, increment float64) ([]float64, error) {
	return Ramps(top, increment, LinearLadder)
}
