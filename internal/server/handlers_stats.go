package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/history"
	"github.com/meltforce/liftlog/internal/models"
)

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result := s.catalog.Search(q.Get("q"), q.Get("body_part"))
	if result == nil {
		result = []models.ExerciseRef{}
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	ref := s.catalog.FindByID(chi.URLParam(r, "id"))
	if ref == nil {
		writeError(w, http.StatusNotFound, "exercise not in catalog")
		return
	}
	writeJSON(w, http.StatusOK, ref)
}

func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if records == nil {
		records = []models.WorkoutHistoryRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleWeeklyStats(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.List(r.Context(), 0)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history.WeeklyStats(records, time.Now()))
}

func (s *Server) handleTopExercises(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.List(r.Context(), 0)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	top := history.TopExercises(records, s.catalog, time.Now())
	if top == nil {
		top = []history.TopExercise{}
	}
	writeJSON(w, http.StatusOK, top)
}

func (s *Server) handleBodyPartVolume(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.List(r.Context(), 0)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history.ComputeBodyPartVolume(records, s.catalog))
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.List(r.Context(), 0)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"weeks": history.Streak(records, time.Now())})
}
