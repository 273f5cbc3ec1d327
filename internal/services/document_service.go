package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// Store is the persistence DocumentService reads from.
type Store interface {
	core.DocumentStore
	core.NotebookStore
}

// DocumentService owns notebooks and resolves documents on behalf of a user.
// Resources of other users are reported as not found.
type DocumentService struct {
	store Store
}

func NewDocumentService(store Store) *DocumentService {
	return &DocumentService{store: store}
}

func (s *DocumentService) CreateNotebook(ctx context.Context, userID, name string) (*models.Notebook, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: notebook name is required", core.ErrInvalidInput)
	}
	nb := &models.Notebook{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateNotebook(ctx, nb); err != nil {
		return nil, err
	}
	return nb, nil
}

func (s *DocumentService) ListNotebooks(ctx context.Context, userID string) ([]models.Notebook, error) {
	return s.store.ListNotebooksByUser(ctx, userID)
}

// Notebook returns the notebook if userID owns it.
func (s *DocumentService) Notebook(ctx context.Context, userID, notebookID string) (*models.Notebook, error) {
	nb, err := s.store.GetNotebook(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	if nb.UserID != userID {
		return nil, fmt.Errorf("notebook %s: %w", notebookID, core.ErrNotFound)
	}
	return nb, nil
}

// Document returns the stored record if its notebook belongs to userID.
// Chunks are returned as stored; callers that need them populated go through
// the ingestor.
func (s *DocumentService) Document(ctx context.Context, userID, docID string) (*models.Document, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Notebook(ctx, userID, doc.NotebookID); err != nil {
		return nil, fmt.Errorf("document %s: %w", docID, core.ErrNotFound)
	}
	return doc, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, userID, notebookID string) ([]models.Document, error) {
	if _, err := s.Notebook(ctx, userID, notebookID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocumentsByNotebook(ctx, notebookID)
	if err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []models.Document{}
	}
	return docs, nil
}
