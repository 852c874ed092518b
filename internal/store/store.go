package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Storage keys. One JSON blob per key; every mutation rewrites the whole
// blob, mirroring the original client's key-value storage semantics.
const (
	KeySavedWorkouts  = "saved_workouts"
	KeyWorkoutHistory = "workout_history"
	KeyUserProfile    = "user_profile"
	KeyTheme          = "theme"
	KeyPlanCache      = "ai_plan_cache"
	KeyLastPerformed  = "last_performed"
	KeyVibration      = "vibration_length"
	KeyActiveSession  = "active_session"
)

// Store is a key-value JSON blob store. There is no schema versioning and no
// partial update: callers load, mutate in memory, and write back in full.
// The last completed write wins.
type Store interface {
	// Get returns the raw value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LoadJSON reads and unmarshals the value under key into a fresh T.
// A missing key returns the zero value and found=false with no error.
func LoadJSON[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var v T
	data, found, err := s.Get(ctx, key)
	if err != nil {
		return v, false, fmt.Errorf("loading %s: %w", key, err)
	}
	if !found {
		return v, false, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return v, true, nil
}

// SaveJSON marshals v and rewrites the whole value under key.
func SaveJSON[T any](ctx context.Context, s Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.Put(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
