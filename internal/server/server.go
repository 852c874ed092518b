package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/catalog"
	"github.com/meltforce/liftlog/internal/history"
	"github.com/meltforce/liftlog/internal/planner"
	"github.com/meltforce/liftlog/internal/plans"
	"github.com/meltforce/liftlog/internal/profile"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/store"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	session   *session.Manager
	templates *planner.Provider
	history   *history.Service
	profile   *profile.Service
	catalog   *catalog.Catalog
	plans     *plans.Generator
	store     store.Store
	log       *slog.Logger
	apiKey    string
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(sess *session.Manager, tpl *planner.Provider, hist *history.Service, prof *profile.Service, cat *catalog.Catalog, gen *plans.Generator, st store.Store, apiKey string, log *slog.Logger) *Server {
	s := &Server{
		session:   sess,
		templates: tpl,
		history:   hist,
		profile:   prof,
		catalog:   cat,
		plans:     gen,
		store:     st,
		log:       log,
		apiKey:    apiKey,
		router:    chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Mutating routes require the API key when one is configured.
		if s.apiKey != "" {
			r.Use(APIKeyAuth(s.apiKey))
		}

		// Live session
		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDiscardSession)
			r.Post("/start", s.handleStartSession)
			r.Post("/template/{id}", s.handleLoadTemplate)
			r.Post("/pause", s.handlePauseSession)
			r.Post("/resume", s.handleResumeSession)
			r.Post("/finish", s.handleFinishSession)
			r.Post("/commit", s.handleCommitSession)

			r.Post("/exercises", s.handleAddExercise)
			r.Post("/exercises/reorder", s.handleReorderExercises)
			r.Delete("/exercises/{id}", s.handleRemoveExercise)
			r.Post("/exercises/{id}/expand", s.handleExpandExercise)
			r.Put("/exercises/{id}/rest", s.handleSetRestTime)
			r.Post("/exercises/{id}/sets", s.handleAddSet)
			r.Patch("/exercises/{id}/sets/{setID}", s.handleUpdateSet)
			r.Delete("/exercises/{id}/sets/{setID}", s.handleRemoveSet)
			r.Post("/exercises/{id}/sets/{setID}/toggle", s.handleToggleSet)

			r.Post("/rest/skip", s.handleSkipRest)
			r.Post("/rest/add", s.handleAddRestTime)
		})

		// Templates and the draft plan buffer
		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Post("/", s.handleSaveTemplate)
			r.Delete("/{id}", s.handleDeleteTemplate)
			r.Post("/{id}/favorite", s.handleToggleFavorite)
			r.Put("/{id}/exercises", s.handleUpdateTemplateExercises)
		})
		r.Route("/plan", func(r chi.Router) {
			r.Get("/", s.handleGetDraft)
			r.Delete("/", s.handleClearDraft)
			r.Put("/name", s.handleSetDraftName)
			r.Post("/exercises", s.handleAddToDraft)
			r.Delete("/exercises/{id}", s.handleRemoveFromDraft)
			r.Post("/save", s.handleSaveDraft)
		})

		// Catalog
		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}", s.handleGetExercise)
		r.Get("/exercises/{id}/last-performed", s.handleLastPerformed)

		// History and derived stats
		r.Get("/history", s.handleListHistory)
		r.Get("/stats/weekly", s.handleWeeklyStats)
		r.Get("/stats/top-exercises", s.handleTopExercises)
		r.Get("/stats/body-parts", s.handleBodyPartVolume)
		r.Get("/stats/streak", s.handleStreak)

		// Profile, settings, plan suggestions
		r.Get("/profile", s.handleGetProfile)
		r.Patch("/profile", s.handleUpdateProfile)
		r.Get("/settings/theme", s.handleGetTheme)
		r.Put("/settings/theme", s.handleSetTheme)
		r.Get("/settings/vibration", s.handleGetVibration)
		r.Put("/settings/vibration", s.handleSetVibration)
		r.Get("/plans/suggested", s.handleSuggestedPlans)
	})
}
