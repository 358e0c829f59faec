package models

import "strings"

// RecordRow is one untyped row of the lift record table, as a spreadsheet
// or file stores it. Numeric fields stay text until the table is decoded.
type RecordRow struct {
	Lifter    string `json:"lifter"`
	Lift      string `json:"lift"`
	Max       string `json:"max"`
	Increment string `json:"increment"`
}

// SettingRow is one attribute/value pair of the settings table.
type SettingRow struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// Sheet is the whole persisted table exchanged with a record store.
type Sheet struct {
	Records  []RecordRow  `json:"records"`
	Settings []SettingRow `json:"settings"`
}

// Column headers shared by every tabular backend.
var (
	RecordHeader  = []string{"User", "Lift", "Max", "Increment"}
	SettingHeader = []string{"Attribute", "Value"}
)

// SettingKey normalizes an attribute name: trimmed and lower-cased.
func SettingKey(attribute string) string {
	return strings.ToLower(strings.TrimSpace(attribute))
}

// Setting returns the value for an attribute and whether it was present.
// Attributes match by SettingKey; when repeated, the last row wins, as it
// does when settings are applied.
func (s *Sheet) Setting(attribute string) (string, bool) {
	key := SettingKey(attribute)
	value, found := "", false
	for _, r := range s.Settings {
		if SettingKey(r.Attribute) == key {
			value, found = r.Value, true
		}
	}
	return value, found
}

// Clone returns a deep copy of the sheet.
func (s *Sheet) Clone() *Sheet {
	if s == nil {
		return &Sheet{}
	}
	return &Sheet{
		Records:  append([]RecordRow(nil), s.Records...),
		Settings: append([]SettingRow(nil), s.Settings...),
	}
}
