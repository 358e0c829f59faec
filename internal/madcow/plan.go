package madcow

import (
	"errors"
	"fmt"
	"math"

	"github.com/meltforce/madcow/internal/models"
)

var (
	// ErrInvalidWeek is returned for week numbers below 1.
	ErrInvalidWeek = errors.New("week must be 1 or later")
	// ErrWeightRange fails a card whose projected weight is not a finite,
	// non-negative number.
	ErrWeightRange = errors.New("projected weight out of range")
)

// DayKind names the role of a training day in the week.
type DayKind string

const (
	DayVolume    DayKind = "volume"
	DayLight     DayKind = "light"
	DayIntensity DayKind = "intensity"
)

// Program fixes which lifts appear on which day and the light-day ladders.
type Program struct {
	PrimaryLifts     []models.Lift `json:"primary_lifts"`
	RecoveryLifts    []models.Lift `json:"recovery_lifts"`
	LightSquatFactor float64       `json:"light_squat_factor"`
	LightSquatLadder Ladder        `json:"light_squat_ladder"`
	RecoveryLadder   Ladder        `json:"recovery_ladder"`
}

// DefaultProgram is Squat, Bench and Row on the volume and intensity days,
// with a 75 percent squat plus press and deadlift on the light day.
func DefaultProgram() Program {
	return Program{
		PrimaryLifts:     []models.Lift{models.Squat, models.Bench, models.Row},
		RecoveryLifts:    []models.Lift{models.OverheadPress, models.Deadlift},
		LightSquatFactor: 0.75,
		LightSquatLadder: LightSquatLadder,
		RecoveryLadder:   RecoveryLadder,
	}
}

// Validate checks the ladders and the light squat factor.
func (p Program) Validate() error {
	if len(p.PrimaryLifts) == 0 {
		return fmt.Errorf("program has no primary lifts")
	}
	if !(p.LightSquatFactor > 0 && p.LightSquatFactor <= 1) {
		return fmt.Errorf("light squat factor %v, want (0, 1]", p.LightSquatFactor)
	}
	if err := p.LightSquatLadder.Validate(); err != nil {
		return fmt.Errorf("light squat ladder: %w", err)
	}
	if err := p.RecoveryLadder.Validate(); err != nil {
		return fmt.Errorf("recovery ladder: %w", err)
	}
	return nil
}

// Load is a prescribed weight with its per-side plate breakdown.
type Load struct {
	Weight    float64   `json:"weight"`
	Plates    PlateLoad `json:"plates"`
	PlateText string    `json:"plate_text"`
}

// Card is one lift's section of a day. When the lifter has no record for
// the lift, only Lift, Name and Err are set.
type Card struct {
	Lift       models.Lift `json:"lift"`
	Name       string      `json:"name"`
	CurrentMax float64     `json:"current_max,omitempty"`
	Ramps      []float64   `json:"ramps,omitempty"`
	Top        *Load       `json:"top,omitempty"`
	Triple     *Load       `json:"triple,omitempty"`
	BackOff    *Load       `json:"back_off,omitempty"`
	Error      string      `json:"error,omitempty"`
	Err        error       `json:"-"`
}

// Failed reports whether the card could not be computed.
func (c Card) Failed() bool {
	return c.Err != nil
}

// DayPlan is one session.
type DayPlan struct {
	Kind  DayKind `json:"kind"`
	Name  string  `json:"name"`
	Cards []Card  `json:"cards"`
}

// WeekPlan is the three sessions of a lifter's week.
type WeekPlan struct {
	Lifter    string    `json:"lifter"`
	Week      int       `json:"week"`
	Rounding  float64   `json:"rounding"`
	BarWeight float64   `json:"bar_weight"`
	Days      []DayPlan `json:"days"`
}

// Day returns the session of the given kind.
func (p *WeekPlan) Day(kind DayKind) (DayPlan, bool) {
	for _, d := range p.Days {
		if d.Kind == kind {
			return d, true
		}
	}
	return DayPlan{}, false
}

// Builder turns records into week plans for fixed settings.
type Builder struct {
	Rounding  float64
	BarWeight float64
	Plates    PlateSet
	Program   Program
}

// NewBuilder returns a builder for the session settings.
func NewBuilder(s models.Settings, plates PlateSet, program Program) *Builder {
	if len(plates) == 0 {
		plates = StandardPlates
	}
	return &Builder{
		Rounding:  s.RoundingIncrement,
		BarWeight: s.BarWeight,
		Plates:    plates,
		Program:   program,
	}
}

// Build computes the volume, light and intensity days for lifter in week.
// Only invalid settings fail the whole plan; a missing record fails its card.
func (b *Builder) Build(records RecordSource, lifter string, week int) (*WeekPlan, error) {
	if week < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWeek, week)
	}
	if _, err := RoundToIncrement(0, b.Rounding); err != nil {
		return nil, err
	}
	if err := b.Program.Validate(); err != nil {
		return nil, err
	}

	plan := &WeekPlan{
		Lifter:    lifter,
		Week:      week,
		Rounding:  b.Rounding,
		BarWeight: b.BarWeight,
	}

	volume := DayPlan{Kind: DayVolume, Name: "Monday"}
	intensity := DayPlan{Kind: DayIntensity, Name: "Friday"}
	for _, lift := range b.Program.PrimaryLifts {
		volume.Cards = append(volume.Cards, b.volumeCard(records, lifter, lift, week))
		intensity.Cards = append(intensity.Cards, b.intensityCard(records, lifter, lift, week))
	}

	light := DayPlan{Kind: DayLight, Name: "Wednesday"}
	light.Cards = append(light.Cards, b.lightSquatCard(records, lifter, week))
	for _, lift := range b.Program.RecoveryLifts {
		light.Cards = append(light.Cards, b.recoveryCard(records, lifter, lift, week))
	}

	plan.Days = []DayPlan{volume, light, intensity}
	return plan, nil
}

// volumeCard is the linear-day card: rounded projected max as the top set
// with the canonical ramp below it.
func (b *Builder) volumeCard(records RecordSource, lifter string, lift models.Lift, week int) Card {
	card := Card{Lift: lift, Name: string(lift)}
	current, _, err := ProjectedMax(records, lifter, lift, week)
	if err != nil {
		return card.fail(err)
	}
	top, ramps, err := b.topAndRamps(current, LinearRamps)
	if err != nil {
		return card.fail(err)
	}
	card.CurrentMax = current
	card.Ramps = ramps
	card.Top = b.load(top)
	return card
}

// intensityCard repeats the volume day's ramp and top set, then adds a
// triple at next week's projection and a back-off at the 75 percent rung.
func (b *Builder) intensityCard(records RecordSource, lifter string, lift models.Lift, week int) Card {
	card := Card{Lift: lift, Name: string(lift)}
	current, rec, err := ProjectedMax(records, lifter, lift, week)
	if err != nil {
		return card.fail(err)
	}
	top, ramps, err := b.topAndRamps(current, LinearRamps)
	if err != nil {
		return card.fail(err)
	}
	next := NextWeekMax(current, rec.Increment)
	if err := checkWeight(next); err != nil {
		return card.fail(err)
	}
	triple, err := RoundToIncrement(next, b.Rounding)
	if err != nil {
		return card.fail(err)
	}
	card.CurrentMax = current
	card.Ramps = ramps
	card.Top = b.load(top)
	card.Triple = b.load(triple)
	card.BackOff = b.load(ramps[2])
	return card
}

// lightSquatCard scales the squat's projected max by the light factor.
func (b *Builder) lightSquatCard(records RecordSource, lifter string, week int) Card {
	card := Card{Lift: models.Squat, Name: string(models.Squat) + " (Light)"}
	current, _, err := ProjectedMax(records, lifter, models.Squat, week)
	if err != nil {
		return card.fail(err)
	}
	top, ramps, err := b.topAndRamps(current*b.Program.LightSquatFactor, ladderRamps(b.Program.LightSquatLadder))
	if err != nil {
		return card.fail(err)
	}
	card.CurrentMax = current
	card.Ramps = ramps
	card.Top = b.load(top)
	return card
}

// recoveryCard works up to the lift's own projected max with a ladder that
// finishes on the working weight.
func (b *Builder) recoveryCard(records RecordSource, lifter string, lift models.Lift, week int) Card {
	card := Card{Lift: lift, Name: string(lift)}
	current, _, err := ProjectedMax(records, lifter, lift, week)
	if err != nil {
		return card.fail(err)
	}
	top, ramps, err := b.topAndRamps(current, ladderRamps(b.Program.RecoveryLadder))
	if err != nil {
		return card.fail(err)
	}
	card.CurrentMax = current
	card.Ramps = ramps
	card.Top = b.load(top)
	return card
}

type rampFunc func(top, increment float64) ([]float64, error)

func ladderRamps(l Ladder) rampFunc {
	return func(top, increment float64) ([]float64, error) {
		return Ramps(top, increment, l)
	}
}

func (b *Builder) topAndRamps(weight float64, ramp rampFunc) (float64, []float64, error) {
	if err := checkWeight(weight); err != nil {
		return 0, nil, err
	}
	top, err := RoundToIncrement(weight, b.Rounding)
	if err != nil {
		return 0, nil, err
	}
	ramps, err := ramp(top, b.Rounding)
	if err != nil {
		return 0, nil, err
	}
	return top, ramps, nil
}

func checkWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return fmt.Errorf("%w: %v", ErrWeightRange, w)
	}
	return nil
}

func (b *Builder) load(weight float64) *Load {
	pl := b.Plates.PerSide(weight, b.BarWeight)
	return &Load{Weight: weight, Plates: pl, PlateText: pl.String()}
}

func (c Card) fail(err error) Card {
	c.Err = err
	c.Error = err.Error()
	return c
}
