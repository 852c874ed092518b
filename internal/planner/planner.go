package planner

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/store"
)

// ErrTemplateNotFound is returned for id lookups that match nothing.
var ErrTemplateNotFound = errors.New("workout template not found")

// Provider owns the saved workout templates and the transient plan-under-
// construction buffer. Templates persist as one list under a single key;
// every mutation rewrites the whole collection. The draft buffer is
// in-memory only and dies with the process.
//
// The provider performs no validation on Save: an empty name or exercise
// list is accepted. Rejecting those is the caller's job.
type Provider struct {
	mu    sync.Mutex
	store store.Store
	log   *slog.Logger

	draft       []models.SavedExercise
	draftName   string
	buildingNew bool

	now func() time.Time
}

func New(st store.Store, log *slog.Logger) *Provider {
	return &Provider{store: st, log: log, now: time.Now}
}

// List returns all templates, newest first.
func (p *Provider) List(ctx context.Context) ([]models.SavedWorkout, error) {
	templates, _, err := store.LoadJSON[[]models.SavedWorkout](ctx, p.store, store.KeySavedWorkouts)
	return templates, err
}

// Get returns one template by id.
func (p *Provider) Get(ctx context.Context, id string) (*models.SavedWorkout, error) {
	templates, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], nil
		}
	}
	return nil, ErrTemplateNotFound
}

// Save creates a new template and prepends it to the collection.
func (p *Provider) Save(ctx context.Context, name string, exercises []models.SavedExercise, category string, aiGenerated bool) (*models.SavedWorkout, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	templates, _, err := store.LoadJSON[[]models.SavedWorkout](ctx, p.store, store.KeySavedWorkouts)
	if err != nil {
		return nil, err
	}

	tpl := models.SavedWorkout{
		ID:            uuid.NewString(),
		Name:          name,
		Exercises:     exercises,
		CreatedAt:     p.now(),
		Category:      category,
		IsAIGenerated: aiGenerated,
	}
	templates = append([]models.SavedWorkout{tpl}, templates...)

	if err := store.SaveJSON(ctx, p.store, store.KeySavedWorkouts, templates); err != nil {
		return nil, err
	}
	p.log.Info("template saved", "id", tpl.ID, "name", name, "exercises", len(exercises))
	return &tpl, nil
}

// Delete removes a template by id.
func (p *Provider) Delete(ctx context.Context, id string) error {
	return p.mutate(ctx, id, nil)
}

// ToggleFavorite flips a template's favorite flag.
func (p *Provider) ToggleFavorite(ctx context.Context, id string) error {
	return p.mutate(ctx, id, func(tpl *models.SavedWorkout) {
		tpl.IsFavorite = !tpl.IsFavorite
	})
}

// UpdateLastDone stamps when a template was last used for a finished session.
func (p *Provider) UpdateLastDone(ctx context.Context, id, label string) error {
	return p.mutate(ctx, id, func(tpl *models.SavedWorkout) {
		tpl.LastDoneLabel = label
	})
}

// UpdateExercises replaces a template's exercise list wholesale. No partial
// field updates exist at the storage layer.
func (p *Provider) UpdateExercises(ctx context.Context, id string, exercises []models.SavedExercise) error {
	return p.mutate(ctx, id, func(tpl *models.SavedWorkout) {
		tpl.Exercises = exercises
	})
}

// mutate finds a template by id, applies fn (nil fn deletes it), and
// rewrites the whole collection.
func (p *Provider) mutate(ctx context.Context, id string, fn func(*models.SavedWorkout)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	templates, _, err := store.LoadJSON[[]models.SavedWorkout](ctx, p.store, store.KeySavedWorkouts)
	if err != nil {
		return err
	}

	idx := -1
	for i := range templates {
		if templates[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrTemplateNotFound
	}

	if fn == nil {
		templates = append(templates[:idx], templates[idx+1:]...)
	} else {
		fn(&templates[idx])
	}
	return store.SaveJSON(ctx, p.store, store.KeySavedWorkouts, templates)
}

// Draft is the current plan-under-construction state.
type Draft struct {
	Name      string                 `json:"name"`
	Exercises []models.SavedExercise `json:"exercises"`
	Building  bool                   `json:"building"`
}

// Draft returns a copy of the construction buffer.
func (p *Provider) Draft() Draft {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Draft{
		Name:      p.draftName,
		Exercises: append([]models.SavedExercise(nil), p.draft...),
		Building:  p.buildingNew,
	}
}

// SetDraftName names the plan being assembled.
func (p *Provider) SetDraftName(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draftName = name
	p.buildingNew = true
}

// AddToDraft appends an exercise to the buffer. Duplicate adds by id are
// silently ignored.
func (p *Provider) AddToDraft(ex models.SavedExercise) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, existing := range p.draft {
		if existing.ID == ex.ID {
			return
		}
	}
	p.draft = append(p.draft, ex)
	p.buildingNew = true
}

// RemoveFromDraft drops an exercise from the buffer by id.
func (p *Provider) RemoveFromDraft(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, ex := range p.draft {
		if ex.ID == id {
			p.draft = append(p.draft[:i], p.draft[i+1:]...)
			return
		}
	}
}

// ClearDraft resets the buffer and the building flag together — one atomic
// transition, never separately.
func (p *Provider) ClearDraft() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draft = nil
	p.draftName = ""
	p.buildingNew = false
}

// SaveDraft persists the buffer as a new template and clears it.
func (p *Provider) SaveDraft(ctx context.Context, category string) (*models.SavedWorkout, error) {
	p.mu.Lock()
	name := p.draftName
	exercises := append([]models.SavedExercise(nil), p.draft...)
	p.mu.Unlock()

	tpl, err := p.Save(ctx, name, exercises, category, false)
	if err != nil {
		return nil, err
	}
	p.ClearDraft()
	return tpl, nil
}
