package models

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// DefaultIncrementPct is the weekly increment assigned to records whose
// increment cell is missing or not a number.
const DefaultIncrementPct = 2.5

// ErrNotFound is matched by errors.Is for any missing (lifter, lift) lookup.
var ErrNotFound = errors.New("record not found")

// NotFoundError reports a (lifter, lift) pair absent from the table.
type NotFoundError struct {
	Lifter string
	Lift   Lift
}

func (e *NotFoundError) Error() string {
	if e.Lift == "" {
		return fmt.Sprintf("no records for lifter %q", e.Lifter)
	}
	return fmt.Sprintf("no %s record for lifter %q", e.Lift, e.Lifter)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// LiftRecord is a lifter's baseline for one lift: the 5RM at RPE 9 that is
// realized at week 4, and the weekly growth rate in percent.
type LiftRecord struct {
	Lifter    string  `json:"lifter"`
	Lift      Lift    `json:"lift"`
	Max       float64 `json:"max"`
	Increment float64 `json:"increment"`
}

type recordKey struct {
	lifter string
	lift   Lift
}

func keyFor(lifter string, lift Lift) recordKey {
	return recordKey{lifter: strings.ToLower(strings.TrimSpace(lifter)), lift: lift}
}

// Table holds at most one LiftRecord per (lifter, lift), in insertion order.
// Rows that could not be typed are carried along untouched so that saving
// the table never drops them.
type Table struct {
	records     map[recordKey]LiftRecord
	order       []recordKey
	passthrough []RecordRow
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{records: make(map[recordKey]LiftRecord)}
}

// Put inserts a record or replaces the existing one in place.
func (t *Table) Put(r LiftRecord) {
	r.Lifter = strings.TrimSpace(r.Lifter)
	k := keyFor(r.Lifter, r.Lift)
	if _, ok := t.records[k]; !ok {
		t.order = append(t.order, k)
	}
	t.records[k] = r
}

// Record looks up a (lifter, lift) pair. Lifter names match case-insensitively.
func (t *Table) Record(lifter string, lift Lift) (LiftRecord, error) {
	r, ok := t.records[keyFor(lifter, lift)]
	if !ok {
		return LiftRecord{}, &NotFoundError{Lifter: lifter, Lift: lift}
	}
	return r, nil
}

// Records returns a lifter's records in table order.
func (t *Table) Records(lifter string) []LiftRecord {
	want := strings.ToLower(strings.TrimSpace(lifter))
	var out []LiftRecord
	for _, k := range t.order {
		if k.lifter == want {
			out = append(out, t.records[k])
		}
	}
	return out
}

// All returns every typed record in table order.
func (t *Table) All() []LiftRecord {
	out := make([]LiftRecord, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.records[k])
	}
	return out
}

// Lifters returns lifter names in order of first appearance.
func (t *Table) Lifters() []string {
	seen := make(map[string]bool)
	var out []string
	for _, k := range t.order {
		if seen[k.lifter] {
			continue
		}
		seen[k.lifter] = true
		out = append(out, t.records[k].Lifter)
	}
	return out
}

// HasLifter reports whether any record belongs to the lifter.
func (t *Table) HasLifter(lifter string) bool {
	want := strings.ToLower(strings.TrimSpace(lifter))
	for _, k := range t.order {
		if k.lifter == want {
			return true
		}
	}
	return false
}

// Len returns the number of typed records.
func (t *Table) Len() int {
	return len(t.order)
}

// Passthrough returns the rows kept verbatim because they could not be typed.
func (t *Table) Passthrough() []RecordRow {
	return append([]RecordRow(nil), t.passthrough...)
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := &Table{
		records:     make(map[recordKey]LiftRecord, len(t.records)),
		order:       append([]recordKey(nil), t.order...),
		passthrough: append([]RecordRow(nil), t.passthrough...),
	}
	for k, v := range t.records {
		c.records[k] = v
	}
	return c
}

// Rows encodes the table back into untyped rows: typed records first, in
// order, then passthrough rows.
func (t *Table) Rows() []RecordRow {
	rows := make([]RecordRow, 0, len(t.order)+len(t.passthrough))
	for _, r := range t.All() {
		rows = append(rows, RecordRow{
			Lifter:    r.Lifter,
			Lift:      string(r.Lift),
			Max:       FormatNumber(r.Max),
			Increment: FormatNumber(r.Increment),
		})
	}
	return append(rows, t.passthrough...)
}

// Issue describes a row that was coerced or set aside while decoding.
type Issue struct {
	Row    int    `json:"row"`
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (i Issue) String() string {
	return fmt.Sprintf("row %d: %s %q: %s", i.Row, i.Field, i.Value, i.Reason)
}

// DecodeTable types the raw record rows. Non-numeric or negative max cells
// become 0. Non-numeric increments, or increments at or below -100 percent,
// become defaultIncrement. Rows without a
// lifter, with an unknown lift, or repeating an earlier (lifter, lift) pair
// are kept as passthrough. Row numbers in issues are 1-based data rows.
func DecodeTable(rows []RecordRow, defaultIncrement float64) (*Table, []Issue) {
	t := NewTable()
	var issues []Issue

	for i, row := range rows {
		n := i + 1
		lifter := strings.TrimSpace(row.Lifter)
		if lifter == "" {
			issues = append(issues, Issue{Row: n, Field: "User", Value: row.Lifter, Reason: "missing lifter, row kept as is"})
			t.passthrough = append(t.passthrough, row)
			continue
		}
		lift, err := ParseLift(row.Lift)
		if err != nil {
			issues = append(issues, Issue{Row: n, Field: "Lift", Value: row.Lift, Reason: "unknown lift, row kept as is"})
			t.passthrough = append(t.passthrough, row)
			continue
		}
		if _, exists := t.records[keyFor(lifter, lift)]; exists {
			issues = append(issues, Issue{Row: n, Field: "Lift", Value: row.Lift, Reason: "duplicate record, first row wins"})
			t.passthrough = append(t.passthrough, row)
			continue
		}

		fiveRM, ok := ParseNumber(row.Max)
		switch {
		case !ok:
			issues = append(issues, Issue{Row: n, Field: "Max", Value: row.Max, Reason: "not a number, using 0"})
			fiveRM = 0
		case fiveRM < 0:
			issues = append(issues, Issue{Row: n, Field: "Max", Value: row.Max, Reason: "negative, using 0"})
			fiveRM = 0
		}
		inc, ok := ParseNumber(row.Increment)
		switch {
		case !ok:
			issues = append(issues, Issue{Row: n, Field: "Increment", Value: row.Increment,
				Reason: "not a number, using " + FormatNumber(defaultIncrement)})
			inc = defaultIncrement
		case !ValidIncrement(inc):
			issues = append(issues, Issue{Row: n, Field: "Increment", Value: row.Increment,
				Reason: "must be above -100, using " + FormatNumber(defaultIncrement)})
			inc = defaultIncrement
		}

		t.Put(LiftRecord{Lifter: lifter, Lift: lift, Max: fiveRM, Increment: inc})
	}

	return t, issues
}

// ValidIncrement reports whether a weekly increment in percent keeps every
// projected max finite and positive.
func ValidIncrement(pct float64) bool {
	return pct > -100 && !math.IsNaN(pct) && !math.IsInf(pct, 0)
}

var thousandsGrouped = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+$`)

// ParseNumber reads a numeric cell and rounds it to one decimal place.
// Commas are thousands separators when the cell also has a '.' ("1,000.5")
// or groups digits in threes ("1,000"); otherwise a comma is a decimal
// comma ("102,5").
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, "."), thousandsGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	default:
		s = strings.ReplaceAll(s, ",", ".")
	}
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return RoundTenth(f), true
}

// RoundTenth rounds to one decimal place, half away from zero.
func RoundTenth(f float64) float64 {
	return math.Round(f*10) / 10
}

// FormatNumber renders a number without trailing zeros ("185", "182.5").
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
