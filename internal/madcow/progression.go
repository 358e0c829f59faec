package madcow

import (
	"math"

	"github.com/meltforce/madcow/internal/models"
)

// AnchorWeek is the week in which a record's baseline max is hit exactly.
const AnchorWeek = 4

// CurrentMax projects baseline to the given week with compound weekly growth:
// baseline * (1 + pct/100)^(week-4). Earlier weeks come out lighter, later
// weeks heavier; zero or negative rates are allowed.
func CurrentMax(baseline, weeklyIncrementPct float64, week int) float64 {
	if week == AnchorWeek {
		return baseline
	}
	return baseline * math.Pow(1+weeklyIncrementPct/100, float64(week-AnchorWeek))
}

// NextWeekMax is the projection one week after current.
func NextWeekMax(current, weeklyIncrementPct float64) float64 {
	return current * (1 + weeklyIncrementPct/100)
}

// RecordSource looks up baseline records. *models.Table satisfies it.
type RecordSource interface {
	Record(lifter string, lift models.Lift) (models.LiftRecord, error)
}

var _ RecordSource = (*models.Table)(nil)

// ProjectedMax looks up the lifter's record and projects it to week. A missing
// record returns an error matching models.ErrNotFound, never a zero max.
func ProjectedMax(records RecordSource, lifter string, lift models.Lift, week int) (float64, models.LiftRecord, error) {
	rec, err := records.Record(lifter, lift)
	if err != nil {
		return 0, models.LiftRecord{}, err
	}
	return CurrentMax(rec.Max, rec.Increment, week), rec, nil
}
