package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/meltforce/liftlog/internal/models"
)

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.templates.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if templates == nil {
		templates = []models.SavedWorkout{}
	}
	writeJSON(w, http.StatusOK, templates)
}

// handleSaveTemplate validates name/exercises here, at the call site — the
// provider itself accepts anything.
func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name          string                 `json:"name"`
		Exercises     []models.SavedExercise `json:"exercises"`
		Category      string                 `json:"category,omitempty"`
		IsAIGenerated bool                   `json:"is_ai_generated,omitempty"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		writeError(w, http.StatusBadRequest, "template name is required")
		return
	}
	if len(body.Exercises) == 0 {
		writeError(w, http.StatusBadRequest, "template needs at least one exercise")
		return
	}

	tpl, err := s.templates.Save(r.Context(), body.Name, body.Exercises, body.Category, body.IsAIGenerated)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.ToggleFavorite(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateTemplateExercises(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Exercises []models.SavedExercise `json:"exercises"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.templates.UpdateExercises(r.Context(), chi.URLParam(r, "id"), body.Exercises); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.templates.Draft())
}

func (s *Server) handleClearDraft(w http.ResponseWriter, r *http.Request) {
	s.templates.ClearDraft()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetDraftName(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.templates.SetDraftName(body.Name)
	writeJSON(w, http.StatusOK, s.templates.Draft())
}

func (s *Server) handleAddToDraft(w http.ResponseWriter, r *http.Request) {
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
	s.templates.AddToDraft(models.SavedExercise{
		ID:        ref.ID,
		Name:      ref.Name,
		ImageURL:  ref.ImageURL,
		BodyParts: ref.BodyParts,
	})
	writeJSON(w, http.StatusOK, s.templates.Draft())
}

func (s *Server) handleRemoveFromDraft(w http.ResponseWriter, r *http.Request) {
	s.templates.RemoveFromDraft(chi.URLParam(r, "id"))
	writeJSON(w, http.StatusOK, s.templates.Draft())
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Category string `json:"category,omitempty"`
	}
	if r.ContentLength > 0 && !decodeBody(w, r, &body) {
		return
	}

	draft := s.templates.Draft()
	if strings.TrimSpace(draft.Name) == "" {
		writeError(w, http.StatusBadRequest, "plan name is required")
		return
	}
	if len(draft.Exercises) == 0 {
		writeError(w, http.StatusBadRequest, "plan needs at least one exercise")
		return
	}

	tpl, err := s.templates.SaveDraft(r.Context(), body.Category)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tpl)
}
