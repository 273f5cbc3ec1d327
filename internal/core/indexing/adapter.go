package indexing

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/metrics"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// Options tunes how chunks are embedded and written.
//
// EmbedBatchSize:  texts per embedding request.
// UpsertBatchSize: vectors per index write.
// Workers:         embedding requests in flight at once.
type Options struct {
	EmbedBatchSize  int
	UpsertBatchSize int
	Workers         int
}

func (o Options) withDefaults() Options {
	if o.EmbedBatchSize <= 0 {
		o.EmbedBatchSize = 32
	}
	if o.UpsertBatchSize <= 0 {
		o.UpsertBatchSize = 100
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

// Adapter turns document chunks into index vectors and answers similarity
// queries against the same index.
type Adapter struct {
	embedder core.EmbeddingProvider
	index    core.SimilarityIndex
	opts     Options
}

// IndexReport describes one IndexChunks run. Failed holds the ordinals that
// are not in the index.
type IndexReport struct {
	DocumentID string
	Expected   int
	Indexed    int
	Failed     []int
}

// NewAdapter fails with ErrDimensionMismatch when the embedder and the index
// disagree on vector size.
func NewAdapter(embedder core.EmbeddingProvider, index core.SimilarityIndex, opts Options) (*Adapter, error) {
	if embedder == nil || index == nil {
		return nil, errors.New("indexing adapter needs an embedder and an index")
	}
	if embedder.Dimensions() != index.Dimension() {
		return nil, fmt.Errorf("%w: embedder produces %d, index stores %d",
			core.ErrDimensionMismatch, embedder.Dimensions(), index.Dimension())
	}
	return &Adapter{embedder: embedder, index: index, opts: opts.withDefaults()}, nil
}

// VectorID is the index key of chunk ordinal i of a document.
func VectorID(documentID string, i int) string {
	return fmt.Sprintf("%s_%d", documentID, i)
}

// IndexChunks embeds and upserts every chunk of doc. Chunks whose embedding
// or write fails are skipped; in that case the report is returned together
// with an *core.IndexingError.
func (a *Adapter) IndexChunks(ctx context.Context, doc *models.Document) (IndexReport, error) {
	report := IndexReport{DocumentID: doc.ID, Expected: len(doc.Chunks)}
	if len(doc.Chunks) == 0 {
		return report, nil
	}

	vectors, err := a.embedChunks(ctx, doc)
	if err != nil {
		return report, err
	}

	failed := make([]bool, len(doc.Chunks))
	batch := make([]models.IndexedVector, 0, a.opts.UpsertBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := a.index.Upsert(ctx, batch); err != nil {
			logrus.WithFields(logrus.Fields{"doc_id": doc.ID, "batch": len(batch)}).
				WithError(err).Warn("vector upsert failed")
			for _, v := range batch {
				failed[v.Metadata.ChunkIndex] = true
			}
		} else {
			report.Indexed += len(batch)
		}
		batch = batch[:0]
	}

	for i, ch := range doc.Chunks {
		if vectors[i] == nil {
			failed[i] = true
			continue
		}
		batch = append(batch, models.IndexedVector{
			ID:     VectorID(doc.ID, i),
			Vector: vectors[i],
			Metadata: models.VectorMetadata{
				DocID:      doc.ID,
				NotebookID: doc.NotebookID,
				Filename:   doc.Filename,
				FileType:   string(doc.SourceKind),
				ChunkIndex: i,
				Text:       ch.Text,
				PageNumber: ch.Page,
			},
		})
		if len(batch) == a.opts.UpsertBatchSize {
			flush()
		}
	}
	flush()

	for i, f := range failed {
		if f {
			report.Failed = append(report.Failed, i)
		}
	}
	metrics.ChunksIndexed.Add(int64(report.Indexed))

	if len(report.Failed) > 0 {
		return report, &core.IndexingError{
			DocumentID: doc.ID,
			Expected:   report.Expected,
			Indexed:    report.Indexed,
			Failed:     report.Failed,
		}
	}
	return report, nil
}

// embedChunks fills one slot per chunk ordinal. A slot stays nil when that
// chunk could not be embedded or its vector has the wrong dimension.
func (a *Adapter) embedChunks(ctx context.Context, doc *models.Document) ([][]float32, error) {
	out := make([][]float32, len(doc.Chunks))
	dim := a.index.Dimension()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.Workers)

	for start := 0; start < len(doc.Chunks); start += a.opts.EmbedBatchSize {
		end := min(start+a.opts.EmbedBatchSize, len(doc.Chunks))
		g.Go(func() error {
			texts := make([]string, end-start)
			for i := range texts {
				texts[i] = doc.Chunks[start+i].Text
			}

			vecs, err := a.embedder.EmbedTexts(gctx, texts)
			if err == nil && len(vecs) == len(texts) {
				for i, v := range vecs {
					if len(v) != dim {
						metrics.ChunkEmbedFailures.Add(1)
						logrus.WithFields(logrus.Fields{"doc_id": doc.ID, "chunk": start + i, "got": len(v), "want": dim}).
							Warn("chunk embedding has wrong dimension; skipping")
						continue
					}
					out[start+i] = v
				}
				return nil
			}
			if gctx.Err() != nil {
				return gctx.Err()
			}

			// retry one by one so a single bad chunk does not sink the batch
			for i, t := range texts {
				v, err := a.embedOne(gctx, t)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					metrics.ChunkEmbedFailures.Add(1)
					logrus.WithFields(logrus.Fields{"doc_id": doc.ID, "chunk": start + i}).
						WithError(err).Warn("chunk embedding failed; skipping")
					continue
				}
				out[start+i] = v
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Adapter) embedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := a.embedder.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one text", len(vecs))
	}
	if got := len(vecs[0]); got != a.index.Dimension() {
		return nil, fmt.Errorf("%w: embedder returned %d values, index stores %d",
			core.ErrDimensionMismatch, got, a.index.Dimension())
	}
	return vecs[0], nil
}

// Embed encodes a single query text.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	return a.embedOne(ctx, text)
}

func (a *Adapter) Query(ctx context.Context, vector []float32, topK int, filter models.VectorFilter) ([]models.Match, error) {
	return a.index.Query(ctx, vector, topK, filter)
}

// Search embeds text and queries the index with it.
func (a *Adapter) Search(ctx context.Context, text string, topK int, filter models.VectorFilter) ([]models.Match, error) {
	vec, err := a.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return a.index.Query(ctx, vec, topK, filter)
}

// Delete removes vectors of the filtered documents or notebook. A filter
// without a notebook or document constraint is rejected.
func (a *Adapter) Delete(ctx context.Context, filter models.VectorFilter) error {
	if filter.NotebookID == "" && len(filter.DocumentIDs) == 0 {
		return errors.New("vector delete needs a notebook or document filter")
	}
	return a.index.Delete(ctx, filter)
}

func (a *Adapter) Count(ctx context.Context, filter models.VectorFilter) (int, error) {
	return a.index.Count(ctx, filter)
}
