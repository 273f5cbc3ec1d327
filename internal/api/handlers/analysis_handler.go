package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hariteja007/NexusLearn-AI/internal/services"
)

type AnalysisHandler struct {
	docs     *services.DocumentService
	analysis *services.AnalysisService
}

func NewAnalysisHandler(docs *services.DocumentService, analysis *services.AnalysisService) *AnalysisHandler {
	return &AnalysisHandler{docs: docs, analysis: analysis}
}

type analyzeRequest struct {
	QuestionTypes []string `json:"question_types"`
}

// Analyze generates study questions for every page of a PDF. The body is
// optional.
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	doc, err := h.docs.Document(r.Context(), uid, chi.URLParam(r, "docID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, err)
		return
	}

	res, err := h.analysis.Analyze(r.Context(), doc, req.QuestionTypes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
