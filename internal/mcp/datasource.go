package mcp

import (
	"context"

	"github.com/meltforce/madcow/internal/madcow"
	"github.com/meltforce/madcow/internal/models"
	"github.com/meltforce/madcow/internal/session"
)

// DataSource abstracts the data layer for MCP tools. Both Local (an
// in-process session) and HTTPClient (remote via REST API) satisfy this
// interface. A week of 0 means the current week.
type DataSource interface {
	Plan(ctx context.Context, lifter string, week int) (*madcow.WeekPlan, error)
	CurrentMax(ctx context.Context, lifter string, lift models.Lift, week int) (madcow.Projection, error)
	Plates(ctx context.Context, weight, bar float64) (madcow.PlateBreakdown, error)
	Records(ctx context.Context, lifter string) ([]models.LiftRecord, error)
	Lifters(ctx context.Context) ([]string, error)
	Settings(ctx context.Context) (models.Settings, error)
}

// Local serves MCP requests from a session in the same process.
type Local struct {
	State *session.State
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = Local{}

func (l Local) Plan(_ context.Context, lifter string, week int) (*madcow.WeekPlan, error) {
	return l.State.Plan(lifter, week)
}

func (l Local) CurrentMax(_ context.Context, lifter string, lift models.Lift, week int) (madcow.Projection, error) {
	return l.State.Projection(lifter, lift, week)
}

func (l Local) Plates(_ context.Context, weight, bar float64) (madcow.PlateBreakdown, error) {
	return l.State.Plates(weight, bar), nil
}

func (l Local) Records(_ context.Context, lifter string) ([]models.LiftRecord, error) {
	return l.State.Records(lifter)
}

func (l Local) Lifters(_ context.Context) ([]string, error) {
	return l.State.Lifters(), nil
}

func (l Local) Settings(_ context.Context) (models.Settings, error) {
	return l.State.Settings(), nil
}
