package madcow

import (
	"errors"
	"math"
	"testing"
)

// TestRoundToIncrement covers ordinary rounding and the half-away-from-zero tie rule.
func TestRoundToIncrement(t *testing.T) {
	tests := []struct {
		value, inc, want float64
	}{
		{223, 5, 225},
		{112.5, 5, 115},
		{-112.5, 5, -115},
		{101, 2.5, 100},
		{103.75, 2.5, 105},
		{196.4, 1, 196},
		{0, 5, 0},
		{102.5, 2.5, 102.5},
	}
	for _, tt := range tests {
		got, err := RoundToIncrement(tt.value, tt.inc)
		if err != nil {
			t.Fatalf("RoundToIncrement(%v, %v): %v", tt.value, tt.inc, err)
		}
		if got != tt.want {
			t.Errorf("RoundToIncrement(%v, %v) = %v, want %v", tt.value, tt.inc, got, tt.want)
		}
	}
}

// TestRoundToIncrementInvalid verifies non-positive increments are reported
// instead of producing NaN.
func TestRoundToIncrementInvalid(t *testing.T) {
	for _, inc := range []float64{0, -5, math.NaN(), math.Inf(1)} {
		if _, err := RoundToIncrement(100, inc); !errors.Is(err, ErrInvalidIncrement) {
			t.Errorf("RoundToIncrement(100, %v) err = %v, want ErrInvalidIncrement", inc, err)
		}
	}
}

// TestRoundToIncrementProperties checks the result is a multiple of the
// increment and no further than half an increment from the input.
func TestRoundToIncrementProperties(t *testing.T) {
	for _, inc := range []float64{5, 2.5, 1, 0.5} {
		for v := -50.0; v <= 500; v += 0.37 {
			got, err := RoundToIncrement(v, inc)
			if err != nil {
				t.Fatal(err)
			}
			q := got / inc
			if math.Abs(q-math.Round(q)) > 1e-9 {
				t.Fatalf("RoundToIncrement(%v, %v) = %v, not a multiple", v, inc, got)
			}
			if math.Abs(got-v) > inc/2+1e-9 {
				t.Fatalf("RoundToIncrement(%v, %v) = %v, more than half an increment away", v, inc, got)
			}
		}
	}
}

// TestLinearRamps verifies the canonical ladder and that the last rung is
// the 87.5% set rather than the top set.
func TestLinearRamps(t *testing.T) {
	got, err := LinearRamps(225, 5)
	if err != nil {
		t.Fatal(err)
	}
	want := []float64{115, 140, 170, 195}
	if len(got) != len(want) {
		t.Fatalf("ramps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ramps[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestRampsProperties checks four non-decreasing multiples of the increment.
func TestRampsProperties(t *testing.T) {
	for _, inc := range []float64{5, 2.5, 1} {
		for top := 45.0; top <= 600; top += 7.3 {
			ramps, err := LinearRamps(top, inc)
			if err != nil {
				t.Fatal(err)
			}
			if len(ramps) != 4 {
				t.Fatalf("len = %d, want 4", len(ramps))
			}
			for i, w := range ramps {
				q := w / inc
				if math.Abs(q-math.Round(q)) > 1e-9 {
					t.Errorf("ramp %v not a multiple of %v", w, inc)
				}
				if i > 0 && w < ramps[i-1] {
					t.Errorf("ramps %v descend at %d", ramps, i)
				}
			}
		}
	}
}

// TestLadderValidate rejects descending ladders and rungs outside (0, 1].
func TestLadderValidate(t *testing.T) {
	for _, l := range []Ladder{LinearLadder, RecoveryLadder, LightSquatLadder} {
		if err := l.Validate(); err != nil {
			t.Errorf("Validate(%v): %v", l, err)
		}
	}
	for _, l := range []Ladder{{0.5, 0.4, 0.75, 0.875}, {0, 0.5, 0.6, 0.7}, {0.5, 0.6, 0.7, 1.2}} {
		if err := l.Validate(); err == nil {
			t.Errorf("Validate(%v) = nil, want error", l)
		}
	}
}
