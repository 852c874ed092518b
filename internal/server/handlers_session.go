package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/session"
)

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	if err := s.session.StartEmpty(r.Context()); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleLoadTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.templates.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.session.LoadTemplate(r.Context(), *tpl); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Discard(r.Context()); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Pause(r.Context()); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Resume(r.Context()); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleFinishSession runs the validation gates without committing. A
// blocked or needs-confirmation result is 422 so clients can't mistake it
// for a saved workout.
func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	check, err := s.session.Finish()
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	status := http.StatusOK
	if check.Status != session.FinishReady {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, check)
}

func (s *Server) handleCommitSession(w http.ResponseWriter, r *http.Request) {
	var opts session.CommitOptions
	opts.UpdateTemplate = true
	if r.ContentLength > 0 && !decodeBody(w, r, &opts) {
		return
	}
	rec, err := s.session.Commit(r.Context(), opts)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID string `json:"id"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	ref := s.catalog.FindByID(body.ID)
	if ref == nil {
		writeError(w, http.StatusNotFound, "exercise not in catalog")
		return
	}
	if err := s.session.AddExercise(r.Context(), *ref); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.session.RemoveExercise(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleReorderExercises(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Order []string `json:"order"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.session.ReorderExercises(r.Context(), body.Order); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleExpandExercise(w http.ResponseWriter, r *http.Request) {
	if err := s.session.ExpandExercise(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleSetRestTime(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Seconds int `json:"seconds"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.session.SetRestTime(r.Context(), chi.URLParam(r, "id"), body.Seconds); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	if err := s.session.AddSet(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	setID, err := strconv.Atoi(chi.URLParam(r, "setID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	var patch session.SetPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if err := s.session.UpdateSet(r.Context(), chi.URLParam(r, "id"), setID, patch); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	setID, err := strconv.Atoi(chi.URLParam(r, "setID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	if err := s.session.RemoveSet(r.Context(), chi.URLParam(r, "id"), setID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	setID, err := strconv.Atoi(chi.URLParam(r, "setID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid set id")
		return
	}
	if err := s.session.ToggleSetComplete(r.Context(), chi.URLParam(r, "id"), setID); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

// handleLastPerformed serves the "previous: X kg × Y" hint for an exercise.
func (s *Server) handleLastPerformed(w http.ResponseWriter, r *http.Request) {
	lp, ok := s.session.LastPerformed(r.Context(), chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "no previous performance recorded")
		return
	}
	writeJSON(w, http.StatusOK, lp)
}

func (s *Server) handleSkipRest(w http.ResponseWriter, r *http.Request) {
	s.session.SkipRest()
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}

func (s *Server) handleAddRestTime(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Seconds int `json:"seconds"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.session.AddRestTime(body.Seconds)
	writeJSON(w, http.StatusOK, s.session.Snapshot())
}
