package plans

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/store"
)

// cacheTTL is how long a generator response stays fresh.
const cacheTTL = 24 * time.Hour

// Generator fetches AI workout-plan suggestions from a remote endpoint.
// Failures never surface to the caller: any error falls back to the bundled
// mock plans. Responses are cached in the store for 24 hours.
type Generator struct {
	endpoint string
	client   *http.Client
	store    store.Store
	log      *slog.Logger
	now      func() time.Time
}

func NewGenerator(endpoint string, st store.Store, log *slog.Logger) *Generator {
	return &Generator{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 15 * time.Second},
		store:    st,
		log:      log,
		now:      time.Now,
	}
}

// planCache is the persisted response envelope.
type planCache struct {
	Plans     []models.SuggestedPlan `json:"plans"`
	Timestamp time.Time              `json:"timestamp"`
}

// Suggested returns plan suggestions: fresh cache if available, then the
// remote generator, then the static mock set.
func (g *Generator) Suggested(ctx context.Context) []models.SuggestedPlan {
	cached, found, err := store.LoadJSON[planCache](ctx, g.store, store.KeyPlanCache)
	if err != nil {
		g.log.Error("loading plan cache", "error", err)
	} else if found && g.now().Sub(cached.Timestamp) < cacheTTL && len(cached.Plans) > 0 {
		return cached.Plans
	}

	plans, err := g.fetch(ctx)
	if err != nil {
		g.log.Warn("plan generator unavailable, using mock plans", "error", err)
		return mockPlans
	}

	if err := store.SaveJSON(ctx, g.store, store.KeyPlanCache, planCache{Plans: plans, Timestamp: g.now()}); err != nil {
		g.log.Error("saving plan cache", "error", err)
	}
	return plans
}

func (g *Generator) fetch(ctx context.Context) ([]models.SuggestedPlan, error) {
	if g.endpoint == "" {
		return nil, fmt.Errorf("no generator endpoint configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var plans []models.SuggestedPlan
	if err := json.NewDecoder(resp.Body).Decode(&plans); err != nil {
		return nil, fmt.Errorf("decoding generator response: %w", err)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("generator returned no plans")
	}
	return plans, nil
}

// mockPlans back the suggestion UI whenever the generator is unreachable or
// rate-limited.
var mockPlans = []models.SuggestedPlan{
	{
		Name:     "Push Day",
		Category: "hypertrophy",
		Exercises: []models.SavedExercise{
			{ID: "0001", Name: "barbell bench press"},
			{ID: "0002", Name: "incline dumbbell press"},
			{ID: "0030", Name: "overhead press"},
			{ID: "0042", Name: "triceps pushdown"},
		},
	},
	{
		Name:     "Pull Day",
		Category: "hypertrophy",
		Exercises: []models.SavedExercise{
			{ID: "0020", Name: "lat pulldown"},
			{ID: "0021", Name: "seated cable row"},
			{ID: "0040", Name: "barbell curl"},
			{ID: "0032", Name: "face pull"},
		},
	},
	{
		Name:     "Leg Day",
		Category: "hypertrophy",
		Exercises: []models.SavedExercise{
			{ID: "0010", Name: "barbell squat"},
			{ID: "0012", Name: "romanian deadlift"},
			{ID: "0013", Name: "leg extension"},
			{ID: "0015", Name: "standing calf raise"},
		},
	},
}
