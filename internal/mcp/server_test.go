package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/history"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/planner"
	"github.com/meltforce/liftlog/internal/profile"
)

type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func newTestHandlers(t *testing.T) *handlers {
	t.Helper()
	st := &memStore{data: make(map[string][]byte)}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}
	return &handlers{
		hist:      history.New(st, log),
		templates: planner.New(st, log),
		prof:      profile.New(st, log),
		cat:       cat,
		log:       log,
	}
}

func callReq(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func textContent(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool returned error: %+v", res.Content)
	}
	if len(res.Content) == 0 {
		t.Fatal("tool returned no content")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content[0] is %T, want TextContent", res.Content[0])
	}
	return tc.Text
}

// TestSearchExercisesTool verifies the catalog search tool filters by query
// and body part.
func TestSearchExercisesTool(t *testing.T) {
	h := newTestHandlers(t)

	res, err := h.searchExercises(context.Background(), callReq(map[string]any{
		"query":     "curl",
		"body_part": "biceps",
	}))
	if err != nil {
		t.Fatalf("searchExercises: %v", err)
	}

	var refs []models.ExerciseRef
	if err := json.Unmarshal([]byte(textContent(t, res)), &refs); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if len(refs) == 0 {
		t.Fatal("expected at least one match")
	}
	for _, ref := range refs {
		found := false
		for _, part := range ref.BodyParts {
			if part == "biceps" {
				found = true
			}
		}
		if !found {
			t.Errorf("match %q has tags %v, want biceps", ref.Name, ref.BodyParts)
		}
	}
}

// TestGetHistoryTool verifies the history tool honors the limit argument.
func TestGetHistoryTool(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		rec := models.WorkoutHistoryRecord{ID: id, Date: time.Now()}
		if err := h.hist.Append(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	res, err := h.getHistory(ctx, callReq(map[string]any{"limit": 2}))
	if err != nil {
		t.Fatalf("getHistory: %v", err)
	}
	var records []models.WorkoutHistoryRecord
	if err := json.Unmarshal([]byte(textContent(t, res)), &records); err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("records = %d, want 2", len(records))
	}
	if records[0].ID != "c" {
		t.Errorf("records[0] = %q, want the newest (c)", records[0].ID)
	}
}

// TestGetStreakTool verifies the streak tool answers with a week count.
func TestGetStreakTool(t *testing.T) {
	h := newTestHandlers(t)
	ctx := context.Background()

	if err := h.hist.Append(ctx, models.WorkoutHistoryRecord{ID: "x", Date: time.Now()}); err != nil {
		t.Fatal(err)
	}

	res, err := h.getStreak(ctx, callReq(nil))
	if err != nil {
		t.Fatalf("getStreak: %v", err)
	}
	var out map[string]int
	if err := json.Unmarshal([]byte(textContent(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out["weeks"] != 1 {
		t.Errorf("weeks = %d, want 1", out["weeks"])
	}
}

// TestGetProfileTool verifies the profile tool returns the singleton.
func TestGetProfileTool(t *testing.T) {
	h := newTestHandlers(t)

	res, err := h.getProfile(context.Background(), callReq(nil))
	if err != nil {
		t.Fatalf("getProfile: %v", err)
	}
	var prof models.UserProfile
	if err := json.Unmarshal([]byte(textContent(t, res)), &prof); err != nil {
		t.Fatal(err)
	}
	if prof.Weight != nil {
		t.Errorf("fresh profile weight = %v, want nil", prof.Weight)
	}
}

// TestExerciseCatalogResource verifies the catalog resource serves the full
// dataset as JSON.
func TestExerciseCatalogResource(t *testing.T) {
	h := newTestHandlers(t)

	var req mcp.ReadResourceRequest
	req.Params.URI = "liftlog://exercise_catalog"
	contents, err := h.exerciseCatalog(context.Background(), req)
	if err != nil {
		t.Fatalf("exerciseCatalog: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T, want TextResourceContents", contents[0])
	}
	var refs []models.ExerciseRef
	if err := json.Unmarshal([]byte(tc.Text), &refs); err != nil {
		t.Fatal(err)
	}
	if len(refs) == 0 {
		t.Error("catalog resource is empty")
	}
}
