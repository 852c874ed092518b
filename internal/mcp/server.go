package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/history"
	"github.com/meltforce/liftlog/internal/planner"
	"github.com/meltforce/liftlog/internal/profile"
)

// New creates an MCP server exposing read-only views of the workout log:
// history, derived stats, templates, profile, and the exercise catalog.
// Nothing here mutates a live session — assistants observe, they don't lift.
func New(hist *history.Service, templates *planner.Provider, prof *profile.Service, cat *catalog.Catalog, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout tracker. Query workout history, weekly stats, training streaks, body-part volume, saved templates, and the exercise catalog."),
	)

	h := &handlers{hist: hist, templates: templates, prof: prof, cat: cat, log: log}

	s.AddTools(
		server.ServerTool{Tool: toolGetHistory, Handler: h.getHistory},
		server.ServerTool{Tool: toolGetWeeklyStats, Handler: h.getWeeklyStats},
		server.ServerTool{Tool: toolGetTopExercises, Handler: h.getTopExercises},
		server.ServerTool{Tool: toolGetBodyPartVolume, Handler: h.getBodyPartVolume},
		server.ServerTool{Tool: toolGetStreak, Handler: h.getStreak},
		server.ServerTool{Tool: toolGetTemplates, Handler: h.getTemplates},
		server.ServerTool{Tool: toolGetProfile, Handler: h.getProfile},
		server.ServerTool{Tool: toolSearchExercises, Handler: h.searchExercises},
	)

	s.AddResources(
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
		server.ServerResource{Resource: resRecentHistory, Handler: h.recentHistory},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	hist      *history.Service
	templates *planner.Provider
	prof      *profile.Service
	cat       *catalog.Catalog
	log       *slog.Logger
}

// --- Resource definitions ---

var resExerciseCatalog = mcp.NewResource(
	"liftlog://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("The full static exercise reference dataset with body parts and equipment"),
	mcp.WithMIMEType("application/json"),
)

var resRecentHistory = mcp.NewResource(
	"liftlog://recent_history",
	"Recent Workout History",
	mcp.WithResourceDescription("Finished workouts from the last 14 days, newest first"),
	mcp.WithMIMEType("application/json"),
)
