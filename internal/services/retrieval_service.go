package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

const (
	askTopK         = 5
	defaultTopK     = 5
	maxTopK         = 50
	noContextAnswer = "I couldn't find any relevant information in the uploaded documents."
)

// Searcher finds the chunks closest to a text.
type Searcher interface {
	Search(ctx context.Context, text string, topK int, filter models.VectorFilter) ([]models.Match, error)
}

type RetrievalService struct {
	index Searcher
	llm   core.LLMProvider
}

func NewRetrievalService(index Searcher, llm core.LLMProvider) *RetrievalService {
	return &RetrievalService{index: index, llm: llm}
}

// Source points an answer back at the chunk it was built from.
type Source struct {
	DocumentID string  `json:"doc_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	PageNumber *int    `json:"page_number,omitempty"`
	Score      float32 `json:"score"`
}

type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Query returns the closest chunks of a notebook, optionally narrowed to
// documents and pages.
func (s *RetrievalService) Query(ctx context.Context, notebookID, query string, topK int, documentIDs []string, pages []int) ([]models.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: query is empty", core.ErrInvalidInput)
	}
	switch {
	case topK <= 0:
		topK = defaultTopK
	case topK > maxTopK:
		topK = maxTopK
	}
	matches, err := s.index.Search(ctx, query, topK, models.VectorFilter{
		NotebookID:  notebookID,
		DocumentIDs: documentIDs,
		PageNumbers: pages,
	})
	if err != nil {
		return nil, err
	}
	if matches == nil {
		matches = []models.Match{}
	}
	return matches, nil
}

// Ask answers question from the five closest chunks of the notebook.
func (s *RetrievalService) Ask(ctx context.Context, notebookID, question string, documentIDs []string) (*Answer, error) {
	matches, err := s.Query(ctx, notebookID, question, askTopK, documentIDs, nil)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return &Answer{Answer: noContextAnswer, Sources: []Source{}}, nil
	}

	parts := make([]string, len(matches))
	sources := make([]Source, len(matches))
	for i, m := range matches {
		parts[i] = m.Metadata.Text
		sources[i] = Source{
			DocumentID: m.Metadata.DocID,
			Filename:   m.Metadata.Filename,
			ChunkIndex: m.Metadata.ChunkIndex,
			PageNumber: m.Metadata.PageNumber,
			Score:      m.Score,
		}
	}

	userPrompt := fmt.Sprintf(`Based on the following context from the uploaded documents, please answer the question.
If the answer cannot be found in the context, say so.

Context:
%s

Question: %s

Answer:`, strings.Join(parts, "\n\n"), question)

	answer, err := s.llm.Generate(ctx, "", userPrompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &Answer{Answer: strings.TrimSpace(answer), Sources: sources}, nil
}
