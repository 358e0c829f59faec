package models

import (
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Settings attribute names in the persisted settings table.
const (
	AttrStartDate         = "start_date"
	AttrRoundingIncrement = "rounding_increment"
	AttrBarWeight         = "bar_weight"
	AttrWeek              = "week"
)

// RoundingIncrements lists the plate increments weights may be rounded to.
var RoundingIncrements = []float64{5, 2.5, 1}

// DateLayout is the calendar date format used for start dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts ISO dates, RFC 3339 timestamps and US-style M/D/YYYY,
// which is how spreadsheets commonly render dates.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, time.RFC3339, "1/2/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("cannot parse date %q", s)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the embedded time.Time encoding with the date layout.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("start date must be a string: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// Settings are the per-session program parameters. A positive Week selects
// explicit-week mode; otherwise the week is derived from StartDate.
type Settings struct {
	RoundingIncrement float64 `json:"rounding_increment"`
	BarWeight         float64 `json:"bar_weight"`
	Week              int     `json:"week,omitempty"`
	StartDate         Date    `json:"start_date"`
}

// DefaultSettings returns 5 lb rounding, a 45 lb bar and a start date of today.
func DefaultSettings(now time.Time) Settings {
	return Settings{
		RoundingIncrement: 5,
		BarWeight:         45,
		StartDate:         DateOf(now),
	}
}

// Validate checks the rounding increment, bar weight and week.
func (s Settings) Validate() error {
	if !slices.Contains(RoundingIncrements, s.RoundingIncrement) {
		return fmt.Errorf("rounding increment %v not one of %v", s.RoundingIncrement, RoundingIncrements)
	}
	if s.BarWeight <= 0 || math.IsNaN(s.BarWeight) || math.IsInf(s.BarWeight, 0) {
		return fmt.Errorf("bar weight must be positive, got %v", s.BarWeight)
	}
	if s.Week < 0 {
		return fmt.Errorf("week must be positive, got %d", s.Week)
	}
	return nil
}

// CurrentWeek returns the explicit week, or the week derived from the start date.
func (s Settings) CurrentWeek(now time.Time) int {
	if s.Week > 0 {
		return s.Week
	}
	return WeekFromStart(s.StartDate, now)
}

// WeekFromStart returns max(1, floor(daysElapsed/7) + 1). A zero start date
// counts as today.
func WeekFromStart(start Date, now time.Time) int {
	today := DateOf(now)
	if start.IsZero() {
		start = today
	}
	days := today.Sub(start.Time).Hours() / 24
	return max(1, int(math.Floor(math.Round(days)/7))+1)
}

// ApplySettingRows overlays persisted settings onto base. Unparseable
// values are reported and leave base unchanged. A zero start date after
// the overlay becomes today.
func ApplySettingRows(base Settings, rows []SettingRow, now time.Time) (Settings, []Issue) {
	s := base
	var issues []Issue

	for i, row := range rows {
		n := i + 1
		v := strings.TrimSpace(row.Value)
		switch SettingKey(row.Attribute) {
		case AttrStartDate:
			d, err := ParseDate(v)
			if err != nil {
				issues = append(issues, Issue{Row: n, Field: AttrStartDate, Value: row.Value, Reason: "not a date, ignored"})
				continue
			}
			s.StartDate = d
		case AttrRoundingIncrement:
			f, ok := ParseNumber(v)
			if !ok || !slices.Contains(RoundingIncrements, f) {
				issues = append(issues, Issue{Row: n, Field: AttrRoundingIncrement, Value: row.Value, Reason: "not an allowed increment, ignored"})
				continue
			}
			s.RoundingIncrement = f
		case AttrBarWeight:
			f, ok := ParseNumber(v)
			if !ok || f <= 0 {
				issues = append(issues, Issue{Row: n, Field: AttrBarWeight, Value: row.Value, Reason: "not a positive number, ignored"})
				continue
			}
			s.BarWeight = f
		case AttrWeek:
			if v == "" {
				continue
			}
			w, err := strconv.Atoi(v)
			if err != nil || w < 0 {
				issues = append(issues, Issue{Row: n, Field: AttrWeek, Value: row.Value, Reason: "not a week number, ignored"})
				continue
			}
			s.Week = w
		}
	}

	if s.StartDate.IsZero() {
		s.StartDate = DateOf(now)
	}
	return s, issues
}

// MergeSettingRows writes s into rows, replacing known attributes in place
// and keeping any other attributes untouched.
func MergeSettingRows(rows []SettingRow, s Settings) []SettingRow {
	values := map[string]string{
		AttrStartDate:         s.StartDate.String(),
		AttrRoundingIncrement: FormatNumber(s.RoundingIncrement),
		AttrBarWeight:         FormatNumber(s.BarWeight),
		AttrWeek:              "",
	}
	if s.Week > 0 {
		values[AttrWeek] = strconv.Itoa(s.Week)
	}

	out := make([]SettingRow, 0, len(rows)+len(values))
	written := make(map[string]bool)
	for _, r := range rows {
		key := SettingKey(r.Attribute)
		if v, ok := values[key]; ok {
			if written[key] {
				continue
			}
			written[key] = true
			out = append(out, SettingRow{Attribute: key, Value: v})
			continue
		}
		out = append(out, r)
	}
	for _, key := range []string{AttrStartDate, AttrRoundingIncrement, AttrBarWeight, AttrWeek} {
		if written[key] || (key == AttrWeek && values[key] == "") {
			continue
		}
		out = append(out, SettingRow{Attribute: key, Value: values[key]})
	}
	return out
}
