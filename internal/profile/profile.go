package profile

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/store"
)

// Service owns the per-installation user profile singleton. The profile is
// created empty on first load and updated via partial merges; every weight
// update also appends to the append-only weight log.
type Service struct {
	mu    sync.Mutex
	store store.Store
	log   *slog.Logger
	now   func() time.Time
}

func New(st store.Store, log *slog.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// Get loads the profile, creating an empty one if none is stored yet.
func (s *Service) Get(ctx context.Context) (models.UserProfile, error) {
	profile, found, err := store.LoadJSON[models.UserProfile](ctx, s.store, store.KeyUserProfile)
	if err != nil {
		return models.UserProfile{}, err
	}
	if !found {
		if err := store.SaveJSON(ctx, s.store, store.KeyUserProfile, profile); err != nil {
			// In-memory state stays authoritative; storage catches up later.
			s.log.Error("creating initial profile", "error", err)
		}
	}
	return profile, nil
}

// Update is a partial merge: nil fields leave the stored value unchanged.
type Update struct {
	Weight    *float64          `json:"weight,omitempty"`
	Height    *float64          `json:"height,omitempty"`
	Objective *models.Objective `json:"objective,omitempty"`
}

// Apply merges the update into the profile and persists it. A weight change
// appends a dated entry to the weight history.
func (s *Service) Apply(ctx context.Context, upd Update) (models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, _, err := store.LoadJSON[models.UserProfile](ctx, s.store, store.KeyUserProfile)
	if err != nil {
		return models.UserProfile{}, err
	}

	if upd.Weight != nil {
		profile.Weight = upd.Weight
		profile.WeightHistory = append(profile.WeightHistory, models.WeightEntry{
			Weight: *upd.Weight,
			Date:   s.now(),
		})
	}
	if upd.Height != nil {
		profile.Height = upd.Height
	}
	if upd.Objective != nil {
		profile.Objective = *upd.Objective
	}

	if err := store.SaveJSON(ctx, s.store, store.KeyUserProfile, profile); err != nil {
		return models.UserProfile{}, err
	}
	return profile, nil
}
