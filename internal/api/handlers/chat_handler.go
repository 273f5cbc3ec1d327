package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hariteja007/NexusLearn-AI/internal/models"
	"github.com/hariteja007/NexusLearn-AI/internal/services"
)

type ChatHandler struct {
	docs      *services.DocumentService
	retrieval *services.RetrievalService
}

func NewChatHandler(docs *services.DocumentService, retrieval *services.RetrievalService) *ChatHandler {
	return &ChatHandler{docs: docs, retrieval: retrieval}
}

type queryRequest struct {
	Query       string   `json:"query"`
	TopK        int      `json:"top_k"`
	DocumentIDs []string `json:"document_ids"`
	PageNumbers []int    `json:"page_numbers"`
}

type askRequest struct {
	Question    string   `json:"question"`
	DocumentIDs []string `json:"document_ids"`
}

func (h *ChatHandler) Query(w http.ResponseWriter, r *http.Request) {
	nbID, ok := h.ownedNotebook(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	matches, err := h.retrieval.Query(r.Context(), nbID, req.Query, req.TopK, req.DocumentIDs, req.PageNumbers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if matches == nil {
		matches = []models.Match{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": matches})
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	nbID, ok := h.ownedNotebook(w, r)
	if !ok {
		return
	}
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ans, err := h.retrieval.Ask(r.Context(), nbID, req.Question, req.DocumentIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (h *ChatHandler) ownedNotebook(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := userID(w, r)
	if !ok {
		return "", false
	}
	nbID := chi.URLParam(r, "notebookID")
	if _, err := h.docs.Notebook(r.Context(), uid, nbID); err != nil {
		writeError(w, r, err)
		return "", false
	}
	return nbID, true
}
