package history

import (
	"context"
	"log/slog"
	"sync"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/store"
)

// Service owns the persisted workout history: an append-only list of
// immutable records, newest first. Each append rewrites the whole list.
type Service struct {
	mu    sync.Mutex
	store store.Store
	log   *slog.Logger
}

func New(st store.Store, log *slog.Logger) *Service {
	return &Service{store: st, log: log}
}

// Append prepends a finished session's record.
func (s *Service) Append(ctx context.Context, rec models.WorkoutHistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, _, err := store.LoadJSON[[]models.WorkoutHistoryRecord](ctx, s.store, store.KeyWorkoutHistory)
	if err != nil {
		return err
	}
	records = append([]models.WorkoutHistoryRecord{rec}, records...)
	return store.SaveJSON(ctx, s.store, store.KeyWorkoutHistory, records)
}

// List returns all records, newest first. Limit <= 0 means no limit.
func (s *Service) List(ctx context.Context, limit int) ([]models.WorkoutHistoryRecord, error) {
	records, _, err := store.LoadJSON[[]models.WorkoutHistoryRecord](ctx, s.store, store.KeyWorkoutHistory)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}
