package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/core/ingestion_engine"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
	"github.com/hariteja007/NexusLearn-AI/internal/services"
)

const maxUploadBytes = 52 << 20

type DocumentHandler struct {
	docs     *services.DocumentService
	ingestor Ingestor
}

func NewDocumentHandler(docs *services.DocumentService, ing Ingestor) *DocumentHandler {
	return &DocumentHandler{docs: docs, ingestor: ing}
}

type uploadResult struct {
	Filename string           `json:"filename"`
	Document *models.Document `json:"document,omitempty"`
	Error    string           `json:"error,omitempty"`
	Status   int              `json:"status"`
}

// Upload ingests every file of a multipart request ("files" or "file"
// fields). One failing file does not fail the others.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	nbID := chi.URLParam(r, "notebookID")
	if _, err := h.docs.Notebook(r.Context(), uid, nbID); err != nil {
		writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, fmt.Errorf("%w: parse upload: %v", core.ErrInvalidInput, err))
		return
	}
	headers := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	if len(headers) == 0 {
		writeError(w, r, fmt.Errorf("%w: no files in request", core.ErrInvalidInput))
		return
	}

	uploads := make([]ingestion_engine.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: read %s: %v", core.ErrInvalidInput, fh.Filename, err))
			return
		}
		uploads = append(uploads, ingestion_engine.Upload{Filename: filepath.Base(fh.Filename), Data: data})
	}

	results := h.ingestor.IngestBatch(r.Context(), nbID, uploads)
	out := make([]uploadResult, len(results))
	created := 0
	for i, res := range results {
		out[i] = uploadResult{Filename: res.Filename, Document: res.Document, Status: http.StatusCreated}
		if res.Err != nil {
			out[i].Error = res.Err.Error()
			out[i].Status = statusFor(res.Err)
			continue
		}
		created++
	}

	status := http.StatusCreated
	switch {
	case created == 0 && len(out) == 1:
		status = out[0].Status
	case created == 0:
		status = http.StatusUnprocessableEntity
	case created < len(out):
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, map[string]any{"results": out})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

type youtubeRequest struct {
	URL         string `json:"url"`
	CustomTitle string `json:"custom_title"`
}

func (h *DocumentHandler) AddYouTube(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	nbID := chi.URLParam(r, "notebookID")
	if _, err := h.docs.Notebook(r.Context(), uid, nbID); err != nil {
		writeError(w, r, err)
		return
	}
	var req youtubeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.URL == "" {
		writeError(w, r, fmt.Errorf("%w: url is required", core.ErrInvalidInput))
		return
	}
	doc, err := h.ingestor.IngestVideo(r.Context(), nbID, req.URL, req.CustomTitle)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary(doc))
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	docs, err := h.docs.ListDocuments(r.Context(), uid, chi.URLParam(r, "notebookID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *DocumentHandler) Get(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summary(doc))
}

// Chunks returns the document's chunk list, rebuilding it from the stored
// source when the cached list is empty.
func (h *DocumentHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}
	chunks := h.ingestor.EnsureChunks(r.Context(), doc)
	writeJSON(w, http.StatusOK, map[string]any{
		"document_id": doc.ID,
		"chunks":      chunks,
		"total":       len(chunks),
	})
}

func (h *DocumentHandler) IndexHealth(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}
	health, err := h.ingestor.IndexHealth(r.Context(), doc.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, health)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.ownedDocument(w, r)
	if !ok {
		return
	}
	if err := h.ingestor.DeleteDocument(r.Context(), doc.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DocumentHandler) ownedDocument(w http.ResponseWriter, r *http.Request) (*models.Document, bool) {
	uid, ok := userID(w, r)
	if !ok {
		return nil, false
	}
	doc, err := h.docs.Document(r.Context(), uid, chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return doc, true
}

// summary drops the chunk bodies; they are served by Chunks.
func summary(doc *models.Document) *models.Document {
	d := *doc
	d.Chunks = nil
	return &d
}
