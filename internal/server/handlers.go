package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/meltforce/liftlog/internal/planner"
	"github.com/meltforce/liftlog/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain sentinel errors to HTTP statuses: session
// conflicts are 409, missing entities 404, everything else 500.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionActive), errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, session.ErrUnknownExercise),
		errors.Is(err, session.ErrUnknownSet),
		errors.Is(err, planner.ErrTemplateNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrNothingCompleted):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.log.Error("handler error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
