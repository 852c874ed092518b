package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/store"
)

// FinishStatus is the outcome of the pre-commit validation gates.
type FinishStatus string

const (
	// FinishBlocked: zero completed sets anywhere. Cannot finish.
	FinishBlocked FinishStatus = "blocked"
	// FinishConfirm: some sets incomplete. Needs explicit "finish anyway".
	FinishConfirm FinishStatus = "confirm"
	// FinishReady: every set of every exercise is complete.
	FinishReady FinishStatus = "ready"
)

// maxIncompleteNames caps the incomplete-exercise list shown in the
// confirmation message; the rest collapse into a "+N more" suffix.
const maxIncompleteNames = 5

// FinishCheck is the result of the finish validation gates, in order:
// blocked beats confirm beats ready.
type FinishCheck struct {
	Status              FinishStatus `json:"status"`
	Message             string       `json:"message,omitempty"`
	IncompleteExercises []string     `json:"incomplete_exercises,omitempty"`
}

// Finish runs the validation gates without committing anything.
func (m *Manager) Finish() (FinishCheck, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return FinishCheck{}, ErrNoSession
	}
	return m.finishCheckLocked(), nil
}

func (m *Manager) finishCheckLocked() FinishCheck {
	completed := 0
	var incomplete []string
	for _, ex := range m.exercises {
		hasIncomplete := false
		for _, set := range ex.Sets {
			if set.Completed {
				completed++
			} else {
				hasIncomplete = true
			}
		}
		if hasIncomplete {
			incomplete = append(incomplete, ex.Exercise.Name)
		}
	}

	if completed == 0 {
		return FinishCheck{
			Status:  FinishBlocked,
			Message: "No completed sets — finish at least one set before saving this workout.",
		}
	}

	if len(incomplete) > 0 {
		shown := incomplete
		suffix := ""
		if len(shown) > maxIncompleteNames {
			suffix = fmt.Sprintf(" +%d more", len(shown)-maxIncompleteNames)
			shown = shown[:maxIncompleteNames]
		}
		return FinishCheck{
			Status:              FinishConfirm,
			Message:             "Incomplete sets in: " + strings.Join(shown, ", ") + suffix,
			IncompleteExercises: incomplete,
		}
	}

	return FinishCheck{Status: FinishReady}
}

// CommitOptions is the finish-detail form submission.
type CommitOptions struct {
	Name  string `json:"name,omitempty"` // overrides the template/default name
	Notes string `json:"notes,omitempty"`
	// UpdateTemplate controls the "update routine values" toggle: whether the
	// source template's last-done stamp is refreshed.
	UpdateTemplate bool `json:"update_template"`
}

// Commit builds the history record from the completed work and ends the
// session. Only exercises with at least one completed set contribute, and
// within them only the completed sets, with weight/reps text coerced to
// numbers (0 on parse failure).
//
// The history append and the template last-done update are two independent
// writes with no transaction between them: if the process dies in between,
// history exists but the template stamp lags. Accepted gap, carried over
// from the original.
func (m *Manager) Commit(ctx context.Context, opts CommitOptions) (*models.WorkoutHistoryRecord, error) {
	m.mu.Lock()
	if m.state == StateIdle {
		m.mu.Unlock()
		return nil, ErrNoSession
	}
	check := m.finishCheckLocked()
	if check.Status == FinishBlocked {
		m.mu.Unlock()
		return nil, ErrNothingCompleted
	}

	rec := m.buildRecordLocked(opts)
	sourcePlanID := m.sourcePlanID

	// Append before resetting: if the write fails the session stays intact
	// and the completed work can be committed again.
	if err := m.history.Append(ctx, rec); err != nil {
		m.mu.Unlock()
		return nil, fmt.Errorf("appending history record: %w", err)
	}
	m.resetLocked()
	m.mu.Unlock()

	if sourcePlanID != "" && opts.UpdateTemplate {
		label := rec.Date.Format("2006-01-02")
		if err := m.templates.UpdateLastDone(ctx, sourcePlanID, label); err != nil {
			// The history record is already saved; only the stamp lags.
			m.log.Error("updating template last-done stamp", "template_id", sourcePlanID, "error", err)
		}
	}

	if err := m.store.Delete(ctx, store.KeyActiveSession); err != nil {
		m.log.Error("clearing persisted session", "error", err)
	}

	m.log.Info("session committed",
		"record_id", rec.ID,
		"duration_sec", rec.DurationSeconds,
		"total_volume", rec.TotalVolume,
		"total_series", rec.TotalSeries,
	)
	return &rec, nil
}

func (m *Manager) buildRecordLocked(opts CommitOptions) models.WorkoutHistoryRecord {
	name := opts.Name
	if name == "" {
		name = m.sourcePlanName
	}
	if name == "" {
		name = "Free Workout"
	}

	rec := models.WorkoutHistoryRecord{
		ID:              uuid.NewString(),
		WorkoutID:       m.sourcePlanID,
		WorkoutName:     name,
		Date:            m.now(),
		DurationSeconds: int(m.elapsedLocked().Seconds()),
	}

	for _, ex := range m.exercises {
		var sets []models.HistorySet
		for _, set := range ex.Sets {
			if !set.Completed {
				continue
			}
			hs := models.HistorySet{
				Weight: models.ParseWeight(set.Weight),
				Reps:   models.ParseReps(set.Reps),
				Type:   set.Type,
			}
			rec.TotalVolume += hs.Weight * float64(hs.Reps)
			rec.TotalSeries++
			sets = append(sets, hs)
		}
		if len(sets) == 0 {
			continue
		}
		rec.Exercises = append(rec.Exercises, models.HistoryExercise{
			ID:   ex.Exercise.ID,
			Name: ex.Exercise.Name,
			Sets: sets,
		})
	}
	return rec
}
