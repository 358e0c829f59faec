package madcow

import "github.com/meltforce/madcow/internal/models"

// Projection is a lifter's projected max for one lift in one week.
type Projection struct {
	Lifter     string      `json:"lifter"`
	Lift       models.Lift `json:"lift"`
	Week       int         `json:"week"`
	CurrentMax float64     `json:"current_max"`
	Baseline   float64     `json:"baseline"`
	Increment  float64     `json:"increment"`
}

// Project looks up the record and projects it to week.
func Project(records RecordSource, lifter string, lift models.Lift, week int) (Projection, error) {
	if week < 1 {
		return Projection{}, ErrInvalidWeek
	}
	current, rec, err := ProjectedMax(records, lifter, lift, week)
	if err != nil {
		return Projection{}, err
	}
	return Projection{
		Lifter:     rec.Lifter,
		Lift:       rec.Lift,
		Week:       week,
		CurrentMax: current,
		Baseline:   rec.Max,
		Increment:  rec.Increment,
	}, nil
}

// PlateBreakdown is a barbell weight with its per-side load.
type PlateBreakdown struct {
	Weight    float64   `json:"weight"`
	Bar       float64   `json:"bar"`
	PerSide   float64   `json:"per_side"`
	Plates    PlateLoad `json:"plates"`
	PlateText string    `json:"plate_text"`
}

// Breakdown loads weight onto bar.
func (ps PlateSet) Breakdown(weight, bar float64) PlateBreakdown {
	load := ps.PerSide(weight, bar)
	return PlateBreakdown{
		Weight:    weight,
		Bar:       bar,
		PerSide:   load.PerSide(),
		Plates:    load,
		PlateText: load.String(),
	}
}
