package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Madcow", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Madcow 5x5 training server. Look up lifters' records, their projected maxes for a program week, full week plans with ramp sets and plate loading, and plate breakdowns for any barbell weight. Weights are in pounds."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetWorkoutPlan, Handler: h.getWorkoutPlan},
		server.ServerTool{Tool: toolGetCurrentMax, Handler: h.getCurrentMax},
		server.ServerTool{Tool: toolGetPlateBreakdown, Handler: h.getPlateBreakdown},
		server.ServerTool{Tool: toolListLiftRecords, Handler: h.listLiftRecords},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resLifters, Handler: h.lifters},
		server.ServerResource{Resource: resSettings, Handler: h.settings},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// --- Resource definitions ---

var resLifters = mcp.NewResource(
	"madcow://lifters",
	"Lifters",
	mcp.WithResourceDescription("Names of all lifters with records in the working copy"),
	mcp.WithMIMEType("application/json"),
)

var resSettings = mcp.NewResource(
	"madcow://settings",
	"Program Settings",
	mcp.WithResourceDescription("Rounding increment, bar weight, explicit week and program start date"),
	mcp.WithMIMEType("application/json"),
)
