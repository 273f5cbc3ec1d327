package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hariteja007/NexusLearn-AI/internal/models"
	"github.com/hariteja007/NexusLearn-AI/internal/services"
)

type ProgressHandler struct {
	progress *services.ProgressService
}

func NewProgressHandler(progress *services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

type progressResponse struct {
	*models.ReadingProgress
	HasProgress bool `json:"has_progress"`
}

func (h *ProgressHandler) Save(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req services.ProgressUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.progress.Save(r.Context(), uid, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{ReadingProgress: p, HasProgress: true})
}

func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	p, found, err := h.progress.Get(r.Context(), uid, chi.URLParam(r, "notebookID"), chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, progressResponse{ReadingProgress: p, HasProgress: found})
}

func (h *ProgressHandler) ForNotebook(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	nbID := chi.URLParam(r, "notebookID")
	progress, err := h.progress.ForNotebook(r.Context(), uid, nbID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notebook_id": nbID, "progress": progress})
}
