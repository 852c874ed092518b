package session

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/store"
)

// memStore is an in-memory store.Store for tests.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
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

// fakeHistory records appended history records. Set err to make appends fail.
type fakeHistory struct {
	mu      sync.Mutex
	records []models.WorkoutHistoryRecord
	err     error
}

func (f *fakeHistory) Append(_ context.Context, rec models.WorkoutHistoryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

// fakeTemplates records UpdateLastDone calls.
type fakeTemplates struct {
	mu    sync.Mutex
	calls map[string]string // id -> label
}

func (f *fakeTemplates) UpdateLastDone(_ context.Context, id, label string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]string)
	}
	f.calls[id] = label
	return nil
}

// fakeNotifier records rest-finished notifications.
type fakeNotifier struct {
	mu    sync.Mutex
	fired []string
}

func (f *fakeNotifier) RestFinished(exerciseID string, _ models.VibrationLength) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fired = append(f.fired, exerciseID)
}

type fixture struct {
	m        *Manager
	store    *memStore
	history  *fakeHistory
	tpl      *fakeTemplates
	notifier *fakeNotifier
	clock    time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.Load()
	if err != nil {
		t.Fatalf("loading catalog: %v", err)
	}

	f := &fixture{
		store:    newMemStore(),
		history:  &fakeHistory{},
		tpl:      &fakeTemplates{},
		notifier: &fakeNotifier{},
		clock:    time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.m = NewManager(f.store, cat, f.history, f.tpl, f.notifier, log)
	f.m.restTicker = false // tests drive the countdown via restTick
	f.m.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) advance(d time.Duration) { f.clock = f.clock.Add(d) }

func mustRef(t *testing.T, m *Manager, id string) models.ExerciseRef {
	t.Helper()
	ref := m.catalog.FindByID(id)
	if ref == nil {
		t.Fatalf("catalog is missing exercise %s", id)
	}
	return *ref
}

// TestStartEmpty verifies an empty start activates the machine with no exercises.
func TestStartEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.StartEmpty(ctx); err != nil {
		t.Fatalf("StartEmpty: %v", err)
	}
	snap := f.m.Snapshot()
	if snap.State != StateActive {
		t.Errorf("state = %q, want active", snap.State)
	}
	if len(snap.Exercises) != 0 {
		t.Errorf("exercises = %d, want 0", len(snap.Exercises))
	}

	if err := f.m.StartEmpty(ctx); err != ErrSessionActive {
		t.Errorf("second StartEmpty = %v, want ErrSessionActive", err)
	}
}

// TestLoadTemplate verifies template loading seeds set skeletons (three sets,
// one for cardio) and expands only the first exercise.
func TestLoadTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tpl := models.SavedWorkout{
		ID:   "tpl-1",
		Name: "Leg Day",
		Exercises: []models.SavedExercise{
			{ID: "0010", Name: "barbell squat"},
			{ID: "0060", Name: "treadmill run"},
		},
	}
	if err := f.m.LoadTemplate(ctx, tpl); err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}

	snap := f.m.Snapshot()
	if snap.SourcePlanID != "tpl-1" {
		t.Errorf("source plan = %q, want tpl-1", snap.SourcePlanID)
	}
	if len(snap.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(snap.Exercises))
	}
	if got := len(snap.Exercises[0].Sets); got != 3 {
		t.Errorf("squat sets = %d, want 3", got)
	}
	if got := len(snap.Exercises[1].Sets); got != 1 {
		t.Errorf("treadmill sets = %d, want 1 (cardio)", got)
	}
	if !snap.Exercises[0].Expanded || snap.Exercises[1].Expanded {
		t.Error("only the first exercise should be expanded")
	}
	for i, set := range snap.Exercises[0].Sets {
		if set.ID != i+1 {
			t.Errorf("set %d id = %d, want %d", i, set.ID, i+1)
		}
	}
}

// TestLoadTemplateReentrant verifies that reloading the running template is a
// no-op while loading a different one conflicts.
func TestLoadTemplateReentrant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tpl := models.SavedWorkout{ID: "tpl-1", Name: "A", Exercises: []models.SavedExercise{{ID: "0001"}}}
	if err := f.m.LoadTemplate(ctx, tpl); err != nil {
		t.Fatal(err)
	}
	if err := f.m.UpdateSet(ctx, "0001", 1, SetPatch{Weight: ptr("100")}); err != nil {
		t.Fatal(err)
	}

	// Same template again: keep the in-flight edits.
	if err := f.m.LoadTemplate(ctx, tpl); err != nil {
		t.Errorf("reloading the active template = %v, want nil", err)
	}
	snap := f.m.Snapshot()
	if snap.Exercises[0].Sets[0].Weight != "100" {
		t.Errorf("weight = %q, reload must not clobber edits", snap.Exercises[0].Sets[0].Weight)
	}

	other := models.SavedWorkout{ID: "tpl-2", Name: "B", Exercises: []models.SavedExercise{{ID: "0010"}}}
	if err := f.m.LoadTemplate(ctx, other); err != ErrSessionActive {
		t.Errorf("loading a different template = %v, want ErrSessionActive", err)
	}
}

// TestAddExerciseAutoStart verifies that adding to an idle session starts a
// free session, and that adds are idempotent by id.
func TestAddExerciseAutoStart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref := mustRef(t, f.m, "0001")

	if err := f.m.AddExercise(ctx, ref); err != nil {
		t.Fatalf("AddExercise: %v", err)
	}
	snap := f.m.Snapshot()
	if snap.State != StateActive {
		t.Errorf("state = %q, want active after auto-start", snap.State)
	}
	if len(snap.Exercises) != 1 {
		t.Fatalf("exercises = %d, want 1", len(snap.Exercises))
	}

	// Duplicate add: silently ignored.
	if err := f.m.AddExercise(ctx, ref); err != nil {
		t.Fatalf("duplicate AddExercise: %v", err)
	}
	if got := len(f.m.Snapshot().Exercises); got != 1 {
		t.Errorf("exercises after duplicate add = %d, want 1", got)
	}
}

// TestAddExerciseExpands verifies a newly added exercise is expanded and all
// others collapse.
func TestAddExerciseExpands(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0001")); err != nil {
		t.Fatal(err)
	}
	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0010")); err != nil {
		t.Fatal(err)
	}
	snap := f.m.Snapshot()
	if snap.Exercises[0].Expanded {
		t.Error("previous exercise should collapse")
	}
	if !snap.Exercises[1].Expanded {
		t.Error("new exercise should expand")
	}
}

// TestRemoveExercise verifies removal and the unknown-id error.
func TestRemoveExercise(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.RemoveExercise(ctx, "0001"); err != ErrNoSession {
		t.Errorf("remove on idle = %v, want ErrNoSession", err)
	}

	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0001")); err != nil {
		t.Fatal(err)
	}
	if err := f.m.RemoveExercise(ctx, "0099"); err != ErrUnknownExercise {
		t.Errorf("remove unknown = %v, want ErrUnknownExercise", err)
	}
	if err := f.m.RemoveExercise(ctx, "0001"); err != nil {
		t.Fatalf("RemoveExercise: %v", err)
	}
	if got := len(f.m.Snapshot().Exercises); got != 0 {
		t.Errorf("exercises = %d, want 0", got)
	}
}

// TestReorderExercises verifies reordering is lenient: unknown ids are
// ignored, unmentioned exercises keep their relative order at the end.
func TestReorderExercises(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, id := range []string{"0001", "0010", "0020"} {
		if err := f.m.AddExercise(ctx, mustRef(t, f.m, id)); err != nil {
			t.Fatal(err)
		}
	}

	if err := f.m.ReorderExercises(ctx, []string{"0020", "bogus", "0001"}); err != nil {
		t.Fatalf("ReorderExercises: %v", err)
	}
	snap := f.m.Snapshot()
	got := []string{snap.Exercises[0].Exercise.ID, snap.Exercises[1].Exercise.ID, snap.Exercises[2].Exercise.ID}
	want := []string{"0020", "0001", "0010"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s (full: %v)", i, got[i], want[i], got)
		}
	}
}

// TestAddSetSeedsFromPrevious verifies a new set copies the last set's
// weight/reps, or defaults to 10/10 on an empty exercise.
func TestAddSetSeedsFromPrevious(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0001")); err != nil {
		t.Fatal(err)
	}
	if err := f.m.UpdateSet(ctx, "0001", 3, SetPatch{Weight: ptr("82,5"), Reps: ptr("8")}); err != nil {
		t.Fatal(err)
	}
	if err := f.m.AddSet(ctx, "0001"); err != nil {
		t.Fatalf("AddSet: %v", err)
	}

	sets := f.m.Snapshot().Exercises[0].Sets
	if len(sets) != 4 {
		t.Fatalf("sets = %d, want 4", len(sets))
	}
	last := sets[3]
	if last.ID != 4 {
		t.Errorf("new set id = %d, want 4", last.ID)
	}
	if last.Weight != "82,5" || last.Reps != "8" {
		t.Errorf("new set seeded %q × %q, want previous values 82,5 × 8", last.Weight, last.Reps)
	}
	if last.Completed {
		t.Error("new set must start incomplete")
	}
}

// TestRemoveSetRenumbers verifies set ids stay contiguous from 1 after removal.
func TestRemoveSetRenumbers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0001")); err != nil {
		t.Fatal(err)
	}
	if err := f.m.RemoveSet(ctx, "0001", 2); err != nil {
		t.Fatalf("RemoveSet: %v", err)
	}
	sets := f.m.Snapshot().Exercises[0].Sets
	if len(sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(sets))
	}
	for i, set := range sets {
		if set.ID != i+1 {
			t.Errorf("set %d id = %d, want %d", i, set.ID, i+1)
		}
	}

	if err := f.m.RemoveSet(ctx, "0001", 99); err != ErrUnknownSet {
		t.Errorf("remove unknown set = %v, want ErrUnknownSet", err)
	}
}

// TestUpdateSetPartial verifies nil patch fields leave values untouched.
func TestUpdateSetPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0001")); err != nil {
		t.Fatal(err)
	}
	if err := f.m.UpdateSet(ctx, "0001", 1, SetPatch{Weight: ptr("60"), Reps: ptr("12")}); err != nil {
		t.Fatal(err)
	}
	if err := f.m.UpdateSet(ctx, "0001", 1, SetPatch{Reps: ptr("10")}); err != nil {
		t.Fatal(err)
	}
	set := f.m.Snapshot().Exercises[0].Sets[0]
	if set.Weight != "60" {
		t.Errorf("weight = %q, want 60 (unchanged)", set.Weight)
	}
	if set.Reps != "10" {
		t.Errorf("reps = %q, want 10", set.Reps)
	}
}

// TestToggleCompletionCascade verifies that completing the last set of an
// exercise collapses it and expands the next one, and that finishing the
// final exercise leaves the list collapsed without error.
func TestToggleCompletionCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0060")); err != nil { // cardio: 1 set
		t.Fatal(err)
	}
	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0001")); err != nil {
		t.Fatal(err)
	}
	if err := f.m.ExpandExercise(ctx, "0060"); err != nil {
		t.Fatal(err)
	}

	if err := f.m.ToggleSetComplete(ctx, "0060", 1); err != nil {
		t.Fatalf("ToggleSetComplete: %v", err)
	}
	snap := f.m.Snapshot()
	if snap.Exercises[0].Expanded {
		t.Error("completed exercise should collapse")
	}
	if !snap.Exercises[1].Expanded {
		t.Error("next exercise should expand")
	}

	// Complete everything in the last exercise: no next to expand, no panic.
	for setID := 1; setID <= 3; setID++ {
		if err := f.m.ToggleSetComplete(ctx, "0001", setID); err != nil {
			t.Fatalf("toggle set %d: %v", setID, err)
		}
	}
	snap = f.m.Snapshot()
	if snap.Exercises[1].Expanded {
		t.Error("last exercise should collapse when fully complete")
	}
}

// TestToggleRecordsLastPerformed verifies the false→true edge records the
// previous-performance cache only when both weight and reps are filled.
func TestToggleRecordsLastPerformed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0001")); err != nil {
		t.Fatal(err)
	}

	// Empty weight/reps: no cache entry.
	if err := f.m.ToggleSetComplete(ctx, "0001", 1); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.m.LastPerformed(ctx, "0001"); ok {
		t.Error("empty set should not be cached")
	}

	if err := f.m.UpdateSet(ctx, "0001", 2, SetPatch{Weight: ptr("80"), Reps: ptr("5")}); err != nil {
		t.Fatal(err)
	}
	if err := f.m.ToggleSetComplete(ctx, "0001", 2); err != nil {
		t.Fatal(err)
	}
	lp, ok := f.m.LastPerformed(ctx, "0001")
	if !ok {
		t.Fatal("expected a last-performed entry")
	}
	if lp.Weight != "80" || lp.Reps != "5" {
		t.Errorf("last performed = %q × %q, want 80 × 5", lp.Weight, lp.Reps)
	}

	// true→false has no side effects: cache survives un-completion.
	if err := f.m.ToggleSetComplete(ctx, "0001", 2); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.m.LastPerformed(ctx, "0001"); !ok {
		t.Error("un-completing must not erase the cache")
	}
}

// TestPauseResumeElapsed verifies the duration clock freezes while paused.
func TestPauseResumeElapsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.StartEmpty(ctx); err != nil {
		t.Fatal(err)
	}
	f.advance(10 * time.Minute)

	if err := f.m.Pause(ctx); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	f.advance(5 * time.Minute)
	if got := f.m.Snapshot().ElapsedSeconds; got != 600 {
		t.Errorf("elapsed while paused = %d, want 600", got)
	}

	if err := f.m.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	f.advance(2 * time.Minute)
	if got := f.m.Snapshot().ElapsedSeconds; got != 720 {
		t.Errorf("elapsed after resume = %d, want 720", got)
	}

	// Resume only applies to a paused session.
	if err := f.m.Resume(ctx); err != ErrNoSession {
		t.Errorf("resume while active = %v, want ErrNoSession", err)
	}
}

// TestDiscard verifies a discard clears everything and writes no history.
func TestDiscard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.Discard(ctx); err != ErrNoSession {
		t.Errorf("discard on idle = %v, want ErrNoSession", err)
	}

	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0001")); err != nil {
		t.Fatal(err)
	}
	if err := f.m.ToggleSetComplete(ctx, "0001", 1); err != nil {
		t.Fatal(err)
	}
	if err := f.m.Discard(ctx); err != nil {
		t.Fatalf("Discard: %v", err)
	}

	snap := f.m.Snapshot()
	if snap.State != StateIdle {
		t.Errorf("state = %q, want idle", snap.State)
	}
	if len(f.history.records) != 0 {
		t.Errorf("history records = %d, want 0 after discard", len(f.history.records))
	}
	if _, found, _ := f.store.Get(ctx, store.KeyActiveSession); found {
		t.Error("persisted session should be cleared on discard")
	}
}

// TestRestore verifies a persisted session survives a restart with its
// elapsed duration intact.
func TestRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.AddExercise(ctx, mustRef(t, f.m, "0001")); err != nil {
		t.Fatal(err)
	}
	f.advance(10 * time.Minute)
	if err := f.m.UpdateSet(ctx, "0001", 1, SetPatch{Weight: ptr("80")}); err != nil {
		t.Fatal(err) // triggers a persist with elapsed = 600s
	}

	// "Restart": a fresh manager over the same store, 30 minutes later.
	f2 := newFixture(t)
	f2.store = f.store
	f2.m.store = f.store
	f2.clock = f.clock.Add(30 * time.Minute)
	if err := f2.m.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	snap := f2.m.Snapshot()
	if snap.State != StateActive {
		t.Fatalf("state = %q, want active", snap.State)
	}
	if len(snap.Exercises) != 1 || snap.Exercises[0].Sets[0].Weight != "80" {
		t.Error("restored session lost its exercise data")
	}
	if snap.ElapsedSeconds != 600 {
		t.Errorf("elapsed after restore = %d, want 600 (restart gap absorbed)", snap.ElapsedSeconds)
	}
}

// TestRestoreKeepsTemplateName verifies a template-sourced session still
// commits under the template's name after a restart.
func TestRestoreKeepsTemplateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tpl := models.SavedWorkout{ID: "tpl-1", Name: "Push", Exercises: []models.SavedExercise{{ID: "0001"}}}
	if err := f.m.LoadTemplate(ctx, tpl); err != nil {
		t.Fatal(err)
	}
	if err := f.m.UpdateSet(ctx, "0001", 1, SetPatch{Weight: ptr("80"), Reps: ptr("5")}); err != nil {
		t.Fatal(err)
	}
	if err := f.m.ToggleSetComplete(ctx, "0001", 1); err != nil {
		t.Fatal(err)
	}

	f2 := newFixture(t)
	f2.store = f.store
	f2.m.store = f.store
	if err := f2.m.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	rec, err := f2.m.Commit(ctx, CommitOptions{UpdateTemplate: true})
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if rec.WorkoutName != "Push" {
		t.Errorf("WorkoutName after restore = %q, want Push", rec.WorkoutName)
	}
	if rec.WorkoutID != "tpl-1" {
		t.Errorf("WorkoutID after restore = %q, want tpl-1", rec.WorkoutID)
	}
	if _, ok := f2.tpl.calls["tpl-1"]; !ok {
		t.Error("template last-done stamp missing after restored commit")
	}
}

// TestRestorePaused verifies a paused session restores paused with its clock
// still frozen, and keeps counting after Resume.
func TestRestorePaused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.m.StartEmpty(ctx); err != nil {
		t.Fatal(err)
	}
	f.advance(10 * time.Minute)
	if err := f.m.Pause(ctx); err != nil {
		t.Fatal(err)
	}

	f2 := newFixture(t)
	f2.store = f.store
	f2.m.store = f.store
	f2.clock = f.clock.Add(30 * time.Minute)
	if err := f2.m.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	snap := f2.m.Snapshot()
	if snap.State != StatePaused {
		t.Fatalf("state = %q, want paused", snap.State)
	}
	f2.advance(5 * time.Minute)
	if got := f2.m.Snapshot().ElapsedSeconds; got != 600 {
		t.Errorf("elapsed while paused = %d, want 600", got)
	}

	if err := f2.m.Resume(ctx); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	f2.advance(2 * time.Minute)
	if got := f2.m.Snapshot().ElapsedSeconds; got != 720 {
		t.Errorf("elapsed after resume = %d, want 720", got)
	}
}

// TestRestoreNothing verifies restoring with no persisted session is a no-op.
func TestRestoreNothing(t *testing.T) {
	f := newFixture(t)
	if err := f.m.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got := f.m.Snapshot().State; got != StateIdle {
		t.Errorf("state = %q, want idle", got)
	}
}

func ptr[T any](v T) *T { return &v }
