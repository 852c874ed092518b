package server

import (
	"net/http"

	"github.com/meltforce/liftlog/internal/models"
	"github.com/meltforce/liftlog/internal/profile"
	"github.com/meltforce/liftlog/internal/store"
)

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	prof, err := s.profile.Get(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd profile.Update
	if !decodeBody(w, r, &upd) {
		return
	}
	if upd.Objective != nil {
		switch *upd.Objective {
		case models.ObjectiveHypertrophy, models.ObjectiveStrength, models.ObjectiveCutting:
		default:
			writeError(w, http.StatusBadRequest, "invalid objective")
			return
		}
	}
	prof, err := s.profile.Apply(r.Context(), upd)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, prof)
}

func (s *Server) handleGetTheme(w http.ResponseWriter, r *http.Request) {
	theme, found, err := store.LoadJSON[string](r.Context(), s.store, store.KeyTheme)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !found {
		theme = "light"
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": theme})
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Theme string `json:"theme"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Theme != "light" && body.Theme != "dark" {
		writeError(w, http.StatusBadRequest, "theme must be light or dark")
		return
	}
	if err := store.SaveJSON(r.Context(), s.store, store.KeyTheme, body.Theme); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": body.Theme})
}

func (s *Server) handleGetVibration(w http.ResponseWriter, r *http.Request) {
	v, found, err := store.LoadJSON[models.VibrationLength](r.Context(), s.store, store.KeyVibration)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if !found {
		v = models.VibrationMedium
	}
	writeJSON(w, http.StatusOK, map[string]models.VibrationLength{"vibration": v})
}

func (s *Server) handleSetVibration(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Vibration models.VibrationLength `json:"vibration"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	switch body.Vibration {
	case models.VibrationShort, models.VibrationMedium, models.VibrationLong:
	default:
		writeError(w, http.StatusBadRequest, "vibration must be short, medium or long")
		return
	}
	if err := store.SaveJSON(r.Context(), s.store, store.KeyVibration, body.Vibration); err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.session.SetVibration(body.Vibration)
	writeJSON(w, http.StatusOK, map[string]models.VibrationLength{"vibration": body.Vibration})
}

func (s *Server) handleSuggestedPlans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.plans.Suggested(r.Context()))
}
