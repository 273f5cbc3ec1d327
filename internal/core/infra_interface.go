package core

import (
	"context"

	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// DocumentStore persists document records. Each record is written in one
// statement so a reader never observes a partially created document.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocumentsByNotebook(ctx context.Context, notebookID string) ([]models.Document, error)
	UpdateDocumentChunks(ctx context.Context, id string, chunks []models.Chunk, totalPages int) error
	DeleteDocument(ctx context.Context, id string) error
	DeleteDocumentsByNotebook(ctx context.Context, notebookID string) (int, error)
	CountDocuments(ctx context.Context, notebookID string) (int, error)
}

type NotebookStore interface {
	CreateNotebook(ctx context.Context, nb *models.Notebook) error
	GetNotebook(ctx context.Context, id string) (*models.Notebook, error)
	ListNotebooksByUser(ctx context.Context, userID string) ([]models.Notebook, error)
	// IncrementDocumentCount adds n (which may be negative) in a single atomic update.
	IncrementDocumentCount(ctx context.Context, id string, n int) error
	DeleteNotebook(ctx context.Context, id string) error
}

// AnalysisCache stores per-page analysis results. A lookup miss returns ok=false
// and a nil error.
type AnalysisCache interface {
	GetAnalysis(ctx context.Context, documentID string, page int) (entry *models.AnalysisEntry, ok bool, err error)
	PutAnalysis(ctx context.Context, entry *models.AnalysisEntry) error
	DeleteAnalysisByDocument(ctx context.Context, documentID string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// ProgressStore keeps one reading position per (user, document). A lookup miss
// returns ok=false and a nil error.
type ProgressStore interface {
	GetProgress(ctx context.Context, userID, documentID string) (p *models.ReadingProgress, ok bool, err error)
	// SaveProgress upserts p and adds addSeconds to the stored reading time.
	SaveProgress(ctx context.Context, p *models.ReadingProgress, addSeconds int64) error
	ListProgressByNotebook(ctx context.Context, userID, notebookID string) ([]models.ReadingProgress, error)
	DeleteProgressByDocument(ctx context.Context, documentID string) error
}

// BlobStore holds raw uploaded bytes by key. Get and Delete of a missing key
// return an error matching ErrNotFound.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// SimilarityIndex is a nearest-neighbour index over chunk vectors.
type SimilarityIndex interface {
	Dimension() int
	Upsert(ctx context.Context, vectors []models.IndexedVector) error
	Query(ctx context.Context, vector []float32, topK int, filter models.VectorFilter) ([]models.Match, error)
	Delete(ctx context.Context, filter models.VectorFilter) error
	Count(ctx context.Context, filter models.VectorFilter) (int, error)
}
