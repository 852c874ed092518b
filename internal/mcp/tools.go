package mcp

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftlog/internal/history"
)

// --- Tool definitions ---

var toolGetHistory = mcp.NewTool("get_history",
	mcp.WithDescription("Retrieve finished workout records, newest first. Each record includes duration, total volume (kg), completed set count, and per-exercise completed sets."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of records to return. Defaults to 20.")),
)

var toolGetWeeklyStats = mcp.NewTool("get_weekly_stats",
	mcp.WithDescription("Aggregate this ISO week (Monday start) against last week: workout count, total duration, total volume, with deltas and down-direction flags."),
)

var toolGetTopExercises = mcp.NewTool("get_top_exercises",
	mcp.WithDescription("Top 3 exercises of the last 7 days ranked by completed set count."),
)

var toolGetBodyPartVolume = mcp.NewTool("get_body_part_volume",
	mcp.WithDescription("Muscle-group training volume over the whole history: most-worked groups (top 6) and least-trained groups (fewer than 5 logged exercises)."),
)

var toolGetStreak = mcp.NewTool("get_streak",
	mcp.WithDescription("Consecutive weeks with at least one finished workout, counting backward from the current week (previous week grants a grace period)."),
)

var toolGetTemplates = mcp.NewTool("get_templates",
	mcp.WithDescription("List saved workout templates with their exercises, favorite flag, and last-done stamp."),
)

var toolGetProfile = mcp.NewTool("get_profile",
	mcp.WithDescription("The user profile: current weight, weight history, height, and training objective."),
)

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Search the exercise catalog by name substring and/or body-part tag."),
	mcp.WithString("query", mcp.Description("Name substring, case-insensitive (e.g. 'press')")),
	mcp.WithString("body_part", mcp.Description("Body-part tag filter (e.g. 'chest', 'biceps', 'cardio')")),
)

// --- Tool handlers ---

func (h *handlers) getHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	records, err := h.hist.List(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(records)
}

func (h *handlers) getWeeklyStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.hist.List(ctx, 0)
	if err != nil {
		h.log.Error("mcp get_weekly_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(history.WeeklyStats(records, time.Now()))
}

func (h *handlers) getTopExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.hist.List(ctx, 0)
	if err != nil {
		h.log.Error("mcp get_top_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(history.TopExercises(records, h.cat, time.Now()))
}

func (h *handlers) getBodyPartVolume(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.hist.List(ctx, 0)
	if err != nil {
		h.log.Error("mcp get_body_part_volume", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(history.ComputeBodyPartVolume(records, h.cat))
}

func (h *handlers) getStreak(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.hist.List(ctx, 0)
	if err != nil {
		h.log.Error("mcp get_streak", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]int{"weeks": history.Streak(records, time.Now())})
}

func (h *handlers) getTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templates, err := h.templates.List(ctx)
	if err != nil {
		h.log.Error("mcp get_templates", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(templates)
}

func (h *handlers) getProfile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prof, err := h.prof.Get(ctx)
	if err != nil {
		h.log.Error("mcp get_profile", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(prof)
}

func (h *handlers) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	bodyPart := req.GetString("body_part", "")
	return jsonResult(h.cat.Search(query, bodyPart))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
