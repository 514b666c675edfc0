package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/keepsake/internal/fault"
	"github.com/lazypower/keepsake/internal/store"
)

func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	decisions, err := s.db.ListDecisions()
	if err != nil {
		respondError(w, err)
		return
	}
	if decisions == nil {
		decisions = []store.Decision{}
	}
	respondJSON(w, http.StatusOK, decisions)
}

func (s *Server) handleCreateDecision(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text     string `json:"text"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	d, err := s.engine.Create(r.Context(), req.Text, req.Category)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.db.GetDecision(id)
	if err != nil {
		respondError(w, err)
		return
	}
	if d == nil {
		respondError(w, &fault.NotFoundError{Resource: "decision", ID: id})
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleTogglePin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := s.db.TogglePin(id)
	if err != nil {
		respondError(w, err)
		return
	}
	if d == nil {
		respondError(w, &fault.NotFoundError{Resource: "decision", ID: id})
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req struct {
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Category) == "" {
		respondError(w, fault.NewValidation("category", "must not be empty"))
		return
	}

	d, err := s.db.SetCategory(id, req.Category)
	if err != nil {
		respondError(w, err)
		return
	}
	if d == nil {
		respondError(w, &fault.NotFoundError{Resource: "decision", ID: id})
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDecision(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	undoID, err := s.engine.Delete(id)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"deletedId": id,
		"undoId":    undoID,
	})
}

func (s *Server) handleUndoDelete(w http.ResponseWriter, r *http.Request) {
	undoID := chi.URLParam(r, "undoID")

	d, err := s.engine.Restore(undoID)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleClearDecisions(w http.ResponseWriter, r *http.Request) {
	n, err := s.db.ClearDecisions()
	if err != nil {
		respondError(w, err)
		return
	}
	log.Printf("decisions: cleared %d", n)

	respondJSON(w, http.StatusOK, map[string]int{"deletedCount": n})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ans, err := s.engine.Ask(r.Context(), req.Question)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ans)
}
