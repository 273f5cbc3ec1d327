package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// ProgressUpdate is one report from a reader.
type ProgressUpdate struct {
	NotebookID       string `json:"notebook_id"`
	DocumentID       string `json:"document_id"`
	CurrentPage      int    `json:"current_page"`
	MarkCompleted    bool   `json:"mark_completed"`
	TimeSpentSeconds int64  `json:"time_spent_seconds"`
}

// DocumentProgress is a stored position together with the document's name.
type DocumentProgress struct {
	models.ReadingProgress
	Filename string `json:"filename"`
}

// ProgressService records reading positions against a document's pages.
// Documents without pages are read as a single page.
type ProgressService struct {
	docs  *DocumentService
	store core.ProgressStore
}

func NewProgressService(docs *DocumentService, store core.ProgressStore) *ProgressService {
	return &ProgressService{docs: docs, store: store}
}

func readablePages(doc *models.Document) int {
	if doc.TotalPages > 0 {
		return doc.TotalPages
	}
	return 1
}

func (s *ProgressService) ownedDocument(ctx context.Context, userID, notebookID, documentID string) (*models.Document, error) {
	if _, err := s.docs.Notebook(ctx, userID, notebookID); err != nil {
		return nil, err
	}
	doc, err := s.docs.Document(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	if doc.NotebookID != notebookID {
		return nil, fmt.Errorf("document %s: %w", documentID, core.ErrNotFound)
	}
	return doc, nil
}

// Save moves the reader to u.CurrentPage, optionally marking that page read,
// and adds the reported reading time.
func (s *ProgressService) Save(ctx context.Context, userID string, u ProgressUpdate) (*models.ReadingProgress, error) {
	if u.TimeSpentSeconds < 0 {
		return nil, fmt.Errorf("%w: time_spent_seconds must not be negative", core.ErrInvalidInput)
	}
	doc, err := s.ownedDocument(ctx, userID, u.NotebookID, u.DocumentID)
	if err != nil {
		return nil, err
	}
	total := readablePages(doc)
	if u.CurrentPage < 1 || u.CurrentPage > total {
		return nil, fmt.Errorf("%w: current_page %d outside 1..%d", core.ErrInvalidInput, u.CurrentPage, total)
	}

	prev, ok, err := s.store.GetProgress(ctx, userID, doc.ID)
	if err != nil {
		return nil, err
	}
	completed := []int{}
	var spent int64
	if ok {
		for _, p := range prev.CompletedPages {
			if p >= 1 && p <= total {
				completed = append(completed, p)
			}
		}
		spent = prev.TimeSpentSeconds
	}
	if u.MarkCompleted && !slices.Contains(completed, u.CurrentPage) {
		completed = append(completed, u.CurrentPage)
	}
	slices.Sort(completed)

	p := &models.ReadingProgress{
		UserID:               userID,
		NotebookID:           doc.NotebookID,
		DocumentID:           doc.ID,
		CurrentPage:          u.CurrentPage,
		TotalPages:           total,
		CompletedPages:       completed,
		CompletionPercentage: float64(len(completed)) / float64(total) * 100,
	}
	if ok {
		p.CreatedAt = prev.CreatedAt
	}
	if err := s.store.SaveProgress(ctx, p, u.TimeSpentSeconds); err != nil {
		return nil, err
	}
	p.TimeSpentSeconds = spent + u.TimeSpentSeconds
	return p, nil
}

// Get returns the stored position, or page 1 with nothing completed when the
// document has not been opened yet.
func (s *ProgressService) Get(ctx context.Context, userID, notebookID, documentID string) (*models.ReadingProgress, bool, error) {
	doc, err := s.ownedDocument(ctx, userID, notebookID, documentID)
	if err != nil {
		return nil, false, err
	}
	p, ok, err := s.store.GetProgress(ctx, userID, doc.ID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return &models.ReadingProgress{
			UserID:         userID,
			NotebookID:     notebookID,
			DocumentID:     doc.ID,
			CurrentPage:    1,
			TotalPages:     readablePages(doc),
			CompletedPages: []int{},
		}, false, nil
	}
	return p, true, nil
}

// ForNotebook returns the user's progress in a notebook keyed by document id.
func (s *ProgressService) ForNotebook(ctx context.Context, userID, notebookID string) (map[string]DocumentProgress, error) {
	docs, err := s.docs.ListDocuments(ctx, userID, notebookID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(docs))
	for _, d := range docs {
		names[d.ID] = d.Filename
	}

	list, err := s.store.ListProgressByNotebook(ctx, userID, notebookID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]DocumentProgress, len(list))
	for _, p := range list {
		name, ok := names[p.DocumentID]
		if !ok {
			name = "Unknown"
		}
		out[p.DocumentID] = DocumentProgress{ReadingProgress: p, Filename: name}
	}
	return out, nil
}
