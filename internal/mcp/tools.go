package mcp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/madcow/internal/madcow"
	"github.com/meltforce/madcow/internal/models"
)

// toolError turns a data source failure into a tool result the model can
// act on. Lookups that found nothing are reported as such.
func toolError(h *handlers, tool string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, madcow.ErrInvalidWeek):
		return mcp.NewToolResultError("invalid week: " + err.Error())
	}
	h.log.Error("mcp "+tool, "error", err)
	return mcp.NewToolResultError("query failed: " + err.Error())
}

func jsonResult(v any) *mcp.CallToolResult {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed")
	}
	return result
}

// weekArg reads the optional week argument. 0 means the current week.
func weekArg(req mcp.CallToolRequest) (int, error) {
	week := req.GetInt("week", 0)
	if week < 0 {
		return 0, fmt.Errorf("week must be 1 or later, got %d", week)
	}
	return week, nil
}

// --- Tool definitions ---

var toolGetWorkoutPlan = mcp.NewTool("get_workout_plan",
	mcp.WithDescription("Build a lifter's Madcow 5x5 week: the volume (Monday), light (Wednesday) and intensity (Friday) sessions with ramp sets, top sets, the Friday triple and back-off set, and plates per side for each heavy set. Lifts without a record are reported per card."),
	mcp.WithString("lifter", mcp.Required(), mcp.Description("Lifter name (case-insensitive)")),
	mcp.WithNumber("week", mcp.Description("Program week, 1 or later. Defaults to the current week.")),
)

var toolGetCurrentMax = mcp.NewTool("get_current_max",
	mcp.WithDescription("Project a lifter's working max for one lift in a given week. The recorded 5RM is reached at week 4 and grows by the lift's weekly increment."),
	mcp.WithString("lifter", mcp.Required(), mcp.Description("Lifter name (case-insensitive)")),
	mcp.WithString("lift", mcp.Required(), mcp.Description("Lift name"), mcp.Enum("Squat", "Bench", "Row", "Overhead Press", "Deadlift")),
	mcp.WithNumber("week", mcp.Description("Program week, 1 or later. Defaults to the current week.")),
)

var toolGetPlateBreakdown = mcp.NewTool("get_plate_breakdown",
	mcp.WithDescription("Break a barbell weight into plates per side, heaviest first, using 45, 35, 25, 10, 5, 2.5, 1 and 0.5 lb plates."),
	mcp.WithNumber("weight", mcp.Required(), mcp.Description("Total barbell weight in pounds")),
	mcp.WithNumber("bar", mcp.Description("Bar weight in pounds. Defaults to the session bar weight.")),
)

var toolListLiftRecords = mcp.NewTool("list_lift_records",
	mcp.WithDescription("List recorded 5RM baselines and weekly increments (percent). Returns all lifters' records unless a lifter is given."),
	mcp.WithString("lifter", mcp.Description("Only this lifter's records (case-insensitive)")),
)

// --- Tool handlers ---

func (h *handlers) getWorkoutPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lifter, err := req.RequireString("lifter")
	if err != nil || lifter == "" {
		return mcp.NewToolResultError("lifter parameter is required"), nil
	}
	week, err := weekArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	plan, err := h.ds.Plan(ctx, lifter, week)
	if err != nil {
		return toolError(h, "get_workout_plan", err), nil
	}
	return jsonResult(plan), nil
}

func (h *handlers) getCurrentMax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	lifter, err := req.RequireString("lifter")
	if err != nil || lifter == "" {
		return mcp.NewToolResultError("lifter parameter is required"), nil
	}
	name, err := req.RequireString("lift")
	if err != nil {
		return mcp.NewToolResultError("lift parameter is required"), nil
	}
	lift, err := models.ParseLift(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	week, err := weekArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	p, err := h.ds.CurrentMax(ctx, lifter, lift, week)
	if err != nil {
		return toolError(h, "get_current_max", err), nil
	}
	return jsonResult(p), nil
}

func (h *handlers) getPlateBreakdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weight, err := req.RequireFloat("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return mcp.NewToolResultError("weight must be a non-negative number"), nil
	}
	bar := req.GetFloat("bar", 0)
	if bar < 0 || math.IsNaN(bar) || math.IsInf(bar, 0) {
		return mcp.NewToolResultError("bar must be a positive number"), nil
	}

	b, err := h.ds.Plates(ctx, weight, bar)
	if err != nil {
		return toolError(h, "get_plate_breakdown", err), nil
	}
	return jsonResult(b), nil
}

func (h *handlers) listLiftRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recs, err := h.ds.Records(ctx, req.GetString("lifter", ""))
	if err != nil {
		return toolError(h, "list_lift_records", err), nil
	}
	if recs == nil {
		recs = []models.LiftRecord{}
	}
	return jsonResult(recs), nil
}
