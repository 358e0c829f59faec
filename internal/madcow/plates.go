package madcow

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PlateSet lists plate denominations, heaviest first. Greedy loading is only
// optimal for canonical sets, where each denomination can be made up from
// the ones below it without beating the greedy choice; the standard set is
// canonical and substitutes must be too.
type PlateSet []float64

// StandardPlates is the pound plate set found in most gyms.
var StandardPlates = PlateSet{45, 35, 25, 10, 5, 2.5, 1, 0.5}

// EmptyBarText is shown when the target is at or under the bar weight.
const EmptyBarText = "Empty Bar"

// NoPlatesText is shown when the target is above the bar but less than the
// lightest plate per side.
const NoPlatesText = "No plates"

// PlateCount is how many plates of one denomination go on one side.
type PlateCount struct {
	Weight float64 `json:"weight"`
	Count  int     `json:"count"`
}

// PlateLoad is the plate breakdown for one side of the bar. Empty marks a
// target at or under the bar; a heavier target can still need no plates.
type PlateLoad struct {
	Empty  bool         `json:"empty"`
	Plates []PlateCount `json:"plates,omitempty"`
}

// PerSide returns the weight loaded on each side.
func (p PlateLoad) PerSide() float64 {
	total := 0.0
	for _, pc := range p.Plates {
		total += pc.Weight * float64(pc.Count)
	}
	return round2(total)
}

// String renders the load as "1x45 + 1x5", EmptyBarText or NoPlatesText.
func (p PlateLoad) String() string {
	if p.Empty {
		return EmptyBarText
	}
	if len(p.Plates) == 0 {
		return NoPlatesText
	}
	parts := make([]string, 0, len(p.Plates))
	for _, pc := range p.Plates {
		parts = append(parts, fmt.Sprintf("%dx%s", pc.Count, strconv.FormatFloat(pc.Weight, 'f', -1, 64)))
	}
	return strings.Join(parts, " + ")
}

// Validate checks denominations are positive and strictly descending.
func (ps PlateSet) Validate() error {
	if len(ps) == 0 {
		return fmt.Errorf("plate set is empty")
	}
	for i, d := range ps {
		if !(d > 0) || math.IsInf(d, 0) {
			return fmt.Errorf("plate %d is %v, want a positive weight", i+1, d)
		}
		if i > 0 && d >= ps[i-1] {
			return fmt.Errorf("plates must be heaviest first: %v follows %v", d, ps[i-1])
		}
	}
	return nil
}

// PerSide greedily loads (target-bar)/2 per side from the heaviest plate down.
// Only a target at or under the bar weight is the empty bar. Whatever is left
// below the lightest plate is dropped.
func (ps PlateSet) PerSide(target, bar float64) PlateLoad {
	if target <= bar {
		return PlateLoad{Empty: true}
	}

	remaining := round2((target - bar) / 2)
	var load PlateLoad
	for _, d := range ps {
		count := int(math.Floor(remaining / d))
		if count <= 0 {
			continue
		}
		load.Plates = append(load.Plates, PlateCount{Weight: d, Count: count})
		remaining = round2(remaining - float64(count)*d)
	}
	return load
}

// PlatesPerSide loads target from StandardPlates. Builders and sessions use
// their configured PlateSet instead.
func PlatesPerSide(target, bar float64) PlateLoad {
	return StandardPlates.PerSide(target, bar)
}
