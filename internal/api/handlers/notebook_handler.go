package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hariteja007/NexusLearn-AI/internal/core/ingestion_engine"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
	"github.com/hariteja007/NexusLearn-AI/internal/services"
)

// Ingestor is the part of the ingestion engine the HTTP layer drives.
type Ingestor interface {
	Ingest(ctx context.Context, notebookID, filename string, data []byte) (*models.Document, error)
	IngestBatch(ctx context.Context, notebookID string, uploads []ingestion_engine.Upload) []ingestion_engine.FileResult
	IngestVideo(ctx context.Context, notebookID, url, customTitle string) (*models.Document, error)
	EnsureChunks(ctx context.Context, doc *models.Document) []models.Chunk
	IndexHealth(ctx context.Context, documentID string) (*ingestion_engine.IndexHealth, error)
	DeleteDocument(ctx context.Context, documentID string) error
	DeleteNotebook(ctx context.Context, notebookID string) error
}

type NotebookHandler struct {
	docs     *services.DocumentService
	ingestor Ingestor
}

func NewNotebookHandler(docs *services.DocumentService, ing Ingestor) *NotebookHandler {
	return &NotebookHandler{docs: docs, ingestor: ing}
}

type createNotebookRequest struct {
	Name string `json:"name"`
}

func (h *NotebookHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	var req createNotebookRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	nb, err := h.docs.CreateNotebook(r.Context(), uid, req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, nb)
}

func (h *NotebookHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	nbs, err := h.docs.ListNotebooks(r.Context(), uid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if nbs == nil {
		nbs = []models.Notebook{}
	}
	writeJSON(w, http.StatusOK, nbs)
}

// Delete removes the notebook along with every document, blob, vector and
// cached analysis under it.
func (h *NotebookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	nbID := chi.URLParam(r, "notebookID")
	if _, err := h.docs.Notebook(r.Context(), uid, nbID); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.ingestor.DeleteNotebook(r.Context(), nbID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
