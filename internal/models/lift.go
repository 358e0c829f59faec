package models

import (
	"fmt"
	"strings"
)

// Lift identifies one of the barbell lifts the program prescribes.
type Lift string

const (
	Squat         Lift = "Squat"
	Bench         Lift = "Bench"
	Row           Lift = "Row"
	OverheadPress Lift = "Overhead Press"
	Deadlift      Lift = "Deadlift"
)

// AllLifts returns every known lift in display order.
func AllLifts() []Lift {
	return []Lift{Squat, Bench, Row, OverheadPress, Deadlift}
}

// liftAliases maps lower-cased spellings found in spreadsheets to lifts.
var liftAliases = map[string]Lift{
	"squat":          Squat,
	"back squat":     Squat,
	"bench":          Bench,
	"bench press":    Bench,
	"row":            Row,
	"barbell row":    Row,
	"pendlay row":    Row,
	"overhead press": OverheadPress,
	"ohp":            OverheadPress,
	"press":          OverheadPress,
	"deadlift":       Deadlift,
}

// UnknownLiftError reports a lift name that does not map to any Lift.
type UnknownLiftError struct {
	Name string
}

func (e *UnknownLiftError) Error() string {
	return fmt.Sprintf("unknown lift %q", e.Name)
}

// ParseLift resolves a lift name case-insensitively, accepting common aliases.
func ParseLift(name string) (Lift, error) {
	key := strings.ToLower(strings.Join(strings.Fields(name), " "))
	if l, ok := liftAliases[key]; ok {
		return l, nil
	}
	return "", &UnknownLiftError{Name: name}
}

func (l Lift) String() string {
	return string(l)
}
