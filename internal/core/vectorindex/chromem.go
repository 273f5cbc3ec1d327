package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

const collectionName = "chunks"

// ChromemIndex is an embedded index backed by chromem-go. Vectors are always
// supplied by the caller, so the collection never embeds on its own.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	dim        int

	// chromem deletes by one where map at a time; mu keeps a multi-document
	// delete from interleaving with an upsert of the same documents.
	mu sync.RWMutex
}

var _ core.SimilarityIndex = (*ChromemIndex)(nil)

func noEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("chromem index expects precomputed embeddings")
}

// NewChromemIndex opens a persistent index under dir, or an in-memory one when
// dir is empty.
func NewChromemIndex(dir string, dim int) (*ChromemIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", dim)
	}

	db := chromem.NewDB()
	if dir != "" {
		var err error
		db, err = chromem.NewPersistentDB(dir, true)
		if err != nil {
			return nil, fmt.Errorf("open chromem db: %w", err)
		}
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, noEmbedding)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &ChromemIndex{db: db, collection: col, dim: dim}, nil
}

func (x *ChromemIndex) Dimension() int { return x.dim }

func (x *ChromemIndex) Upsert(ctx context.Context, vectors []models.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(vectors))
	for i, v := range vectors {
		if len(v.Vector) != x.dim {
			return fmt.Errorf("%w: vector %s has %d values, index has %d", core.ErrDimensionMismatch, v.ID, len(v.Vector), x.dim)
		}
		docs[i] = chromem.Document{
			ID:        v.ID,
			Metadata:  metadataToMap(v.Metadata),
			Embedding: v.Vector,
			Content:   v.Metadata.Text,
		}
	}

	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.collection.AddDocuments(ctx, docs, runtime.NumCPU())
}

func (x *ChromemIndex) Query(ctx context.Context, vector []float32, topK int, filter models.VectorFilter) ([]models.Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != x.dim {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", core.ErrDimensionMismatch, len(vector), x.dim)
	}
	results, err := x.search(ctx, vector, filter, topK)
	if err != nil {
		return nil, err
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// search returns filtered matches ordered by similarity. When some filter
// list cannot be pushed into the where clause the whole collection is ranked
// and then narrowed.
func (x *ChromemIndex) search(ctx context.Context, vector []float32, filter models.VectorFilter, limit int) ([]models.Match, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	count := x.collection.Count()
	if count == 0 {
		return nil, nil
	}
	n := limit
	if len(filter.DocumentIDs) > 1 || len(filter.PageNumbers) > 1 || n > count {
		n = count
	}

	res, err := x.collection.QueryEmbedding(ctx, vector, n, whereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	out := make([]models.Match, 0, len(res))
	for _, r := range res {
		md := mapToMetadata(r.Metadata)
		if !matches(filter, md) {
			continue
		}
		out = append(out, models.Match{ID: r.ID, Score: r.Similarity, Metadata: md})
	}
	return out, nil
}

func (x *ChromemIndex) Delete(ctx context.Context, filter models.VectorFilter) error {
	if filter.IsEmpty() {
		return errors.New("refusing to delete with an empty filter")
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for _, f := range expand(filter) {
		if err := x.collection.Delete(ctx, whereClause(f), nil); err != nil {
			return fmt.Errorf("chromem delete: %w", err)
		}
	}
	return nil
}

// Count ranks the collection against a unit probe vector and counts the hits
// that pass the filter.
func (x *ChromemIndex) Count(ctx context.Context, filter models.VectorFilter) (int, error) {
	if filter.IsEmpty() {
		return x.collection.Count(), nil
	}
	probe := make([]float32, x.dim)
	probe[0] = 1
	res, err := x.search(ctx, probe, filter, x.collection.Count())
	if err != nil {
		return 0, err
	}
	return len(res), nil
}
