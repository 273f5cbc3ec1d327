package ingestion_engine

import (
	"context"
	"runtime"
	"time"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/core/indexing"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// IngestConfig tunes the orchestrator.
//
// ExtractWorkers: goroutines that extract and chunk uploads.
// ExtractTimeout: upper bound for extracting one source.
// BatchWorkers:   files of one batch upload processed at once.
type IngestConfig struct {
	ExtractWorkers int
	ExtractTimeout time.Duration
	BatchWorkers   int
}

func (c IngestConfig) withDefaults() IngestConfig {
	if c.ExtractWorkers <= 0 {
		c.ExtractWorkers = runtime.NumCPU()
	}
	if c.ExtractTimeout <= 0 {
		c.ExtractTimeout = 2 * time.Minute
	}
	if c.BatchWorkers <= 0 {
		c.BatchWorkers = 4
	}
	return c
}

// Store is the persistence the orchestrator needs.
type Store interface {
	core.DocumentStore
	core.NotebookStore
	core.AnalysisCache
	core.ProgressStore
}

// Indexer writes and removes chunk vectors.
type Indexer interface {
	IndexChunks(ctx context.Context, doc *models.Document) (indexing.IndexReport, error)
	Delete(ctx context.Context, filter models.VectorFilter) error
	Count(ctx context.Context, filter models.VectorFilter) (int, error)
}

// Upload is one file of a batch upload.
type Upload struct {
	Filename string
	Data     []byte
}

// FileResult is the outcome for one file of a batch. Exactly one of Document
// and Err is set.
type FileResult struct {
	Filename string
	Document *models.Document
	Err      error
}

// IndexHealth compares a document's chunk count with its vectors in the index.
type IndexHealth struct {
	DocumentID  string `json:"document_id"`
	ChunksCount int    `json:"chunks_count"`
	Indexed     int    `json:"indexed"`
	Healthy     bool   `json:"healthy"`
}
