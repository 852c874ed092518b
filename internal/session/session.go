package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/notify"
	"github.com/meltforce/liftlog/internal/store"
)

// State of the session machine. A session is either not running (idle),
// running (active), or running with a frozen duration clock (paused).
type State string

const (
	StateIdle   State = "idle"
	StateActive State = "active"
	StatePaused State = "paused"
)

var (
	// ErrSessionActive rejects starting or loading while another workout is
	// in progress. The caller must finish or discard first — silently
	// replacing the session would destroy unsaved set edits.
	ErrSessionActive = errors.New("a workout session is already active")

	ErrNoSession       = errors.New("no active workout session")
	ErrUnknownExercise = errors.New("exercise is not in the session")
	ErrUnknownSet      = errors.New("set is not in the exercise")

	// ErrNothingCompleted blocks finishing a session with zero completed sets.
	ErrNothingCompleted = errors.New("no completed sets in this session")
)

// HistoryAppender receives the record built on commit.
type HistoryAppender interface {
	Append(ctx context.Context, rec models.WorkoutHistoryRecord) error
}

// TemplateUpdater stamps the source template after a session finishes.
type TemplateUpdater interface {
	UpdateLastDone(ctx context.Context, id, label string) error
}

// Manager owns the single in-progress workout. All mutating operations are
// serialized by a mutex, preserving the original client's single-threaded
// semantics under concurrent HTTP handlers. Exactly one session can be
// active process-wide.
type Manager struct {
	mu sync.Mutex

	store     store.Store
	catalog   *catalog.Catalog
	history   HistoryAppender
	templates TemplateUpdater
	notifier  notify.Notifier
	log       *slog.Logger

	state          State
	exercises      []models.ExerciseInSession
	startTime      time.Time
	sourcePlanID   string
	sourcePlanName string
	pausedAt       time.Time
	pausedTotal    time.Duration
	vibration      models.VibrationLength

	rest restTimer

	// test seams
	now        func() time.Time
	restTicker bool
}

// NewManager creates an idle session manager.
func NewManager(st store.Store, cat *catalog.Catalog, hist HistoryAppender, tpl TemplateUpdater, notifier notify.Notifier, log *slog.Logger) *Manager {
	return &Manager{
		store:      st,
		catalog:    cat,
		history:    hist,
		templates:  tpl,
		notifier:   notifier,
		log:        log,
		state:      StateIdle,
		vibration:  models.VibrationMedium,
		now:        time.Now,
		restTicker: true,
	}
}

// RestState is the rest-timer portion of a snapshot.
type RestState struct {
	Running          bool   `json:"running"`
	RemainingSeconds int    `json:"remaining_seconds"`
	OwnerExerciseID  string `json:"owner_exercise_id,omitempty"`
}

// Snapshot is the full externally visible session state.
type Snapshot struct {
	State          State                      `json:"state"`
	Exercises      []models.ExerciseInSession `json:"exercises"`
	StartTime      *time.Time                 `json:"start_time,omitempty"`
	SourcePlanID   string                     `json:"source_plan_id,omitempty"`
	SourcePlanName string                     `json:"source_plan_name,omitempty"`
	ElapsedSeconds int                        `json:"elapsed_seconds"`
	Rest           RestState                  `json:"rest"`
}

// Snapshot returns a copy of the current session state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:          m.state,
		Exercises:      make([]models.ExerciseInSession, len(m.exercises)),
		SourcePlanID:   m.sourcePlanID,
		SourcePlanName: m.sourcePlanName,
		Rest: RestState{
			Running:          m.rest.running,
			RemainingSeconds: m.rest.remaining,
			OwnerExerciseID:  m.rest.owner,
		},
	}
	for i, ex := range m.exercises {
		snap.Exercises[i] = ex
		snap.Exercises[i].Sets = append([]models.SetEntry(nil), ex.Sets...)
	}
	if m.state != StateIdle {
		t := m.startTime
		snap.StartTime = &t
		snap.ElapsedSeconds = int(m.elapsedLocked().Seconds())
	}
	return snap
}

func (m *Manager) elapsedLocked() time.Duration {
	elapsed := m.now().Sub(m.startTime) - m.pausedTotal
	if m.state == StatePaused {
		elapsed -= m.now().Sub(m.pausedAt)
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

// StartEmpty begins a free session with no exercises.
func (m *Manager) StartEmpty(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateIdle {
		return ErrSessionActive
	}
	m.resetLocked()
	m.state = StateActive
	m.startTime = m.now()
	m.persistLocked(ctx)
	m.log.Info("session started", "source", "empty")
	return nil
}

// LoadTemplate starts a session from a saved template. Loading the template
// that is already running is a refresh no-op; loading a different one while
// a session is active is a conflict.
func (m *Manager) LoadTemplate(ctx context.Context, tpl models.SavedWorkout) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		if m.sourcePlanID == tpl.ID {
			return nil
		}
		return ErrSessionActive
	}

	m.resetLocked()
	for _, se := range tpl.Exercises {
		ref := m.resolveRef(se)
		m.exercises = append(m.exercises, newExerciseInSession(ref))
	}
	if len(m.exercises) > 0 {
		m.exercises[0].Expanded = true
	}
	m.state = StateActive
	m.startTime = m.now()
	m.sourcePlanID = tpl.ID
	m.sourcePlanName = tpl.Name
	m.persistLocked(ctx)
	m.log.Info("session started", "source", "template", "template_id", tpl.ID, "exercises", len(m.exercises))
	return nil
}

// resolveRef prefers the live catalog entry over the template's cached metadata.
func (m *Manager) resolveRef(se models.SavedExercise) models.ExerciseRef {
	if ref := m.catalog.FindByID(se.ID); ref != nil {
		return *ref
	}
	return models.ExerciseRef{
		ID:        se.ID,
		Name:      se.Name,
		ImageURL:  se.ImageURL,
		BodyParts: se.BodyParts,
	}
}

// newExerciseInSession materializes an exercise with its set skeleton:
// three sets, or a single set for cardio work.
func newExerciseInSession(ref models.ExerciseRef) models.ExerciseInSession {
	count := 3
	if catalog.IsCardio(ref) {
		count = 1
	}
	sets := make([]models.SetEntry, count)
	for i := range sets {
		sets[i] = models.SetEntry{ID: i + 1, Type: models.SetNormal}
	}
	return models.ExerciseInSession{
		Exercise:        ref,
		Sets:            sets,
		RestTimeSeconds: models.DefaultRestSeconds,
		WeightUnit:      models.UnitKg,
	}
}

// AddExercise appends an exercise to the session, idempotent by id. Adding
// to an idle session is a named transition: it starts a free session.
func (m *Manager) AddExercise(ctx context.Context, ref models.ExerciseRef) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateIdle {
		m.resetLocked()
		m.state = StateActive
		m.startTime = m.now()
		m.log.Info("session auto-started by exercise add", "exercise_id", ref.ID)
	}

	for _, ex := range m.exercises {
		if ex.Exercise.ID == ref.ID {
			return nil
		}
	}

	ex := newExerciseInSession(ref)
	ex.Expanded = true
	for i := range m.exercises {
		m.exercises[i].Expanded = false
	}
	m.exercises = append(m.exercises, ex)
	m.persistLocked(ctx)
	return nil
}

// RemoveExercise drops an exercise from the session.
func (m *Manager) RemoveExercise(ctx context.Context, exerciseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return ErrNoSession
	}
	for i, ex := range m.exercises {
		if ex.Exercise.ID == exerciseID {
			m.exercises = append(m.exercises[:i], m.exercises[i+1:]...)
			m.persistLocked(ctx)
			return nil
		}
	}
	return ErrUnknownExercise
}

// ReorderExercises rearranges the list to match the given id order. Ids not
// in the session are ignored; session exercises missing from the order keep
// their relative position at the end.
func (m *Manager) ReorderExercises(ctx context.Context, order []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return ErrNoSession
	}

	byID := make(map[string]models.ExerciseInSession, len(m.exercises))
	for _, ex := range m.exercises {
		byID[ex.Exercise.ID] = ex
	}

	reordered := make([]models.ExerciseInSession, 0, len(m.exercises))
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if ex, ok := byID[id]; ok && !seen[id] {
			reordered = append(reordered, ex)
			seen[id] = true
		}
	}
	for _, ex := range m.exercises {
		if !seen[ex.Exercise.ID] {
			reordered = append(reordered, ex)
		}
	}
	m.exercises = reordered
	m.persistLocked(ctx)
	return nil
}

// AddSet appends a set to an exercise, seeded from the previous set's
// weight/reps, or 10/10 for the first set.
func (m *Manager) AddSet(ctx context.Context, exerciseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, err := m.findExerciseLocked(exerciseID)
	if err != nil {
		return err
	}

	entry := models.SetEntry{ID: len(ex.Sets) + 1, Weight: "10", Reps: "10", Type: models.SetNormal}
	if n := len(ex.Sets); n > 0 {
		entry.Weight = ex.Sets[n-1].Weight
		entry.Reps = ex.Sets[n-1].Reps
	}
	ex.Sets = append(ex.Sets, entry)
	m.persistLocked(ctx)
	return nil
}

// RemoveSet deletes a set and renumbers the remainder contiguously from 1.
// The id doubles as the display label, so gaps are not allowed.
func (m *Manager) RemoveSet(ctx context.Context, exerciseID string, setID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, err := m.findExerciseLocked(exerciseID)
	if err != nil {
		return err
	}

	idx := -1
	for i, set := range ex.Sets {
		if set.ID == setID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrUnknownSet
	}

	ex.Sets = append(ex.Sets[:idx], ex.Sets[idx+1:]...)
	for i := range ex.Sets {
		ex.Sets[i].ID = i + 1
	}
	m.persistLocked(ctx)
	return nil
}

// SetPatch is a partial update to a set's editable fields. Nil means "leave
// unchanged"; weight and reps stay raw text until commit.
type SetPatch struct {
	Weight *string         `json:"weight,omitempty"`
	Reps   *string         `json:"reps,omitempty"`
	Type   *models.SetType `json:"type,omitempty"`
	RPE    *string         `json:"rpe,omitempty"`
}

// UpdateSet applies a patch to one set.
func (m *Manager) UpdateSet(ctx context.Context, exerciseID string, setID int, patch SetPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, err := m.findExerciseLocked(exerciseID)
	if err != nil {
		return err
	}
	for i := range ex.Sets {
		if ex.Sets[i].ID != setID {
			continue
		}
		if patch.Weight != nil {
			ex.Sets[i].Weight = *patch.Weight
		}
		if patch.Reps != nil {
			ex.Sets[i].Reps = *patch.Reps
		}
		if patch.Type != nil {
			ex.Sets[i].Type = *patch.Type
		}
		if patch.RPE != nil {
			ex.Sets[i].RPE = *patch.RPE
		}
		m.persistLocked(ctx)
		return nil
	}
	return ErrUnknownSet
}

// SetRestTime overrides the per-exercise rest countdown.
func (m *Manager) SetRestTime(ctx context.Context, exerciseID string, seconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, err := m.findExerciseLocked(exerciseID)
	if err != nil {
		return err
	}
	if seconds <= 0 {
		return fmt.Errorf("rest time must be positive, got %d", seconds)
	}
	ex.RestTimeSeconds = seconds
	m.persistLocked(ctx)
	return nil
}

// ExpandExercise expands one exercise and collapses the rest.
func (m *Manager) ExpandExercise(ctx context.Context, exerciseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.findExerciseLocked(exerciseID); err != nil {
		return err
	}
	for i := range m.exercises {
		m.exercises[i].Expanded = m.exercises[i].Exercise.ID == exerciseID
	}
	m.persistLocked(ctx)
	return nil
}

// ToggleSetComplete flips a set's completed flag. On the false→true edge it
// records the last-performed cache, starts the rest timer, and runs the
// collapse/expand cascade when the exercise is fully done. The true→false
// edge has no side effects; a running rest timer is not cancelled.
func (m *Manager) ToggleSetComplete(ctx context.Context, exerciseID string, setID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exIdx := -1
	for i, ex := range m.exercises {
		if ex.Exercise.ID == exerciseID {
			exIdx = i
			break
		}
	}
	if m.state == StateIdle {
		return ErrNoSession
	}
	if exIdx < 0 {
		return ErrUnknownExercise
	}
	ex := &m.exercises[exIdx]

	setIdx := -1
	for i, set := range ex.Sets {
		if set.ID == setID {
			setIdx = i
			break
		}
	}
	if setIdx < 0 {
		return ErrUnknownSet
	}

	set := &ex.Sets[setIdx]
	set.Completed = !set.Completed
	if set.Completed {
		if set.Weight != "" && set.Reps != "" {
			m.recordLastPerformedLocked(ctx, exerciseID, set.Weight, set.Reps)
		}
		m.startRestLocked(exerciseID, ex.RestTimeSeconds)

		if allComplete(ex.Sets) {
			ex.Expanded = false
			if exIdx+1 < len(m.exercises) {
				for i := range m.exercises {
					m.exercises[i].Expanded = i == exIdx+1
				}
			}
		}
	}
	m.persistLocked(ctx)
	return nil
}

func allComplete(sets []models.SetEntry) bool {
	for _, s := range sets {
		if !s.Completed {
			return false
		}
	}
	return len(sets) > 0
}

// recordLastPerformedLocked updates the per-exercise "previous: X kg × Y"
// cache. Best effort: a storage failure is logged and the session continues.
func (m *Manager) recordLastPerformedLocked(ctx context.Context, exerciseID, weight, reps string) {
	cache, _, err := store.LoadJSON[map[string]models.LastPerformed](ctx, m.store, store.KeyLastPerformed)
	if err != nil {
		m.log.Error("loading last-performed cache", "error", err)
		return
	}
	if cache == nil {
		cache = make(map[string]models.LastPerformed)
	}
	cache[exerciseID] = models.LastPerformed{Weight: weight, Reps: reps, Date: m.now()}
	if err := store.SaveJSON(ctx, m.store, store.KeyLastPerformed, cache); err != nil {
		m.log.Error("saving last-performed cache", "error", err)
	}
}

// LastPerformed returns the cached previous weight/reps for an exercise.
func (m *Manager) LastPerformed(ctx context.Context, exerciseID string) (models.LastPerformed, bool) {
	cache, _, err := store.LoadJSON[map[string]models.LastPerformed](ctx, m.store, store.KeyLastPerformed)
	if err != nil {
		m.log.Error("loading last-performed cache", "error", err)
		return models.LastPerformed{}, false
	}
	lp, ok := cache[exerciseID]
	return lp, ok
}

// Pause freezes the duration clock. The rest timer keeps counting — the two
// clocks are independent.
func (m *Manager) Pause(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive {
		return ErrNoSession
	}
	m.state = StatePaused
	m.pausedAt = m.now()
	m.persistLocked(ctx)
	return nil
}

// Resume unfreezes the duration clock.
func (m *Manager) Resume(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePaused {
		return ErrNoSession
	}
	m.pausedTotal += m.now().Sub(m.pausedAt)
	m.state = StateActive
	m.persistLocked(ctx)
	return nil
}

// Discard clears the session without creating a history record.
func (m *Manager) Discard(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateIdle {
		return ErrNoSession
	}
	m.resetLocked()
	if err := m.store.Delete(ctx, store.KeyActiveSession); err != nil {
		m.log.Error("clearing persisted session", "error", err)
	}
	m.log.Info("session discarded")
	return nil
}

// SetVibration sets the vibration length used when the rest timer fires.
func (m *Manager) SetVibration(v models.VibrationLength) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.vibration = v
}

func (m *Manager) findExerciseLocked(exerciseID string) (*models.ExerciseInSession, error) {
	if m.state == StateIdle {
		return nil, ErrNoSession
	}
	for i := range m.exercises {
		if m.exercises[i].Exercise.ID == exerciseID {
			return &m.exercises[i], nil
		}
	}
	return nil, ErrUnknownExercise
}

// resetLocked returns the machine to idle with everything cleared.
func (m *Manager) resetLocked() {
	m.state = StateIdle
	m.exercises = nil
	m.startTime = time.Time{}
	m.sourcePlanID = ""
	m.sourcePlanName = ""
	m.pausedAt = time.Time{}
	m.pausedTotal = 0
	m.stopRestLocked()
}

// persistLocked mirrors the in-memory session to storage. In-memory state is
// authoritative; a failed write is logged and tolerated until restart.
func (m *Manager) persistLocked(ctx context.Context) {
	snap := m.snapshotLocked()
	if err := store.SaveJSON(ctx, m.store, store.KeyActiveSession, snap); err != nil {
		m.log.Error("persisting session", "error", err)
	}
}

// Restore reloads a previously persisted in-progress session, typically at
// startup. An idle or missing snapshot restores nothing.
func (m *Manager) Restore(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, found, err := store.LoadJSON[Snapshot](ctx, m.store, store.KeyActiveSession)
	if err != nil {
		return err
	}
	if !found || snap.State == StateIdle {
		return nil
	}

	m.state = StateActive
	m.exercises = snap.Exercises
	m.sourcePlanID = snap.SourcePlanID
	m.sourcePlanName = snap.SourcePlanName
	if snap.StartTime != nil {
		m.startTime = *snap.StartTime
		// Keep the recorded elapsed duration stable across the restart gap.
		m.pausedTotal = m.now().Sub(*snap.StartTime) - time.Duration(snap.ElapsedSeconds)*time.Second
		if m.pausedTotal < 0 {
			m.pausedTotal = 0
		}
	} else {
		m.startTime = m.now()
	}
	if snap.State == StatePaused {
		// The restart gap is already in pausedTotal; the pause continues
		// from now so the clock stays frozen until Resume.
		m.state = StatePaused
		m.pausedAt = m.now()
	}
	m.log.Info("session restored", "state", m.state, "exercises", len(m.exercises))
	return nil
}
