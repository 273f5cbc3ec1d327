package ingestion_engine

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/core/chunking"
	"github.com/hariteja007/NexusLearn-AI/internal/core/extractors"
	objectclient "github.com/hariteja007/NexusLearn-AI/internal/core/object-client"
	"github.com/hariteja007/NexusLearn-AI/internal/metrics"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// Document loads a document and makes sure its chunk list is populated.
func (i *DocumentIngestor) Document(ctx context.Context, id string) (*models.Document, error) {
	doc, err := i.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	i.EnsureChunks(ctx, doc)
	return doc, nil
}

// EnsureChunks returns doc's chunks, rebuilding them from the stored
// transcript or raw upload when the record has none. The rebuilt list is
// written back on a best effort basis. It never fails; when nothing can be
// rebuilt the result is empty.
func (i *DocumentIngestor) EnsureChunks(ctx context.Context, doc *models.Document) []models.Chunk {
	if len(doc.Chunks) > 0 {
		return doc.Chunks
	}
	log := logrus.WithFields(logrus.Fields{"doc_id": doc.ID, "kind": doc.SourceKind})

	res := i.rebuild(ctx, doc, log)
	if res == nil || len(res.Chunks) == 0 {
		return []models.Chunk{}
	}

	if err := i.store.UpdateDocumentChunks(ctx, doc.ID, res.Chunks, res.TotalPages); err != nil {
		log.WithError(err).Warn("rebuilt chunks not persisted")
	}
	metrics.ChunkRepairs.Add(1)
	log.WithField("chunks", len(res.Chunks)).Info("chunk list rebuilt")

	doc.Chunks = res.Chunks
	doc.ChunksCount = len(res.Chunks)
	doc.TotalPages = res.TotalPages
	return doc.Chunks
}

func (i *DocumentIngestor) rebuild(ctx context.Context, doc *models.Document, log *logrus.Entry) *chunking.Result {
	if doc.SourceKind == models.KindYouTube {
		if len(doc.Transcript) == 0 {
			log.Warn("no transcript to rebuild chunks from")
			return nil
		}
		return i.assembler.AssembleText(extractors.JoinTranscript(doc.Transcript))
	}

	ext, ok := i.registry.ForKind(doc.SourceKind)
	if !ok {
		log.Warn("no extractor for stored document kind")
		return nil
	}

	key := doc.StoragePath
	if key == "" {
		key = objectclient.DocumentKey(doc.NotebookID, doc.ID, string(doc.SourceKind))
	}
	data, err := i.blobs.Get(ctx, key)
	if err != nil {
		log.WithField("key", key).WithError(err).Warn("raw upload unavailable")
		return nil
	}

	out, err := i.extract(ctx, ext, core.Source{Filename: doc.Filename, Data: data}, false)
	if err != nil {
		log.WithError(err).Warn("re-extraction failed")
		return nil
	}
	return out.res
}

// DeleteDocument removes the raw upload, the document's vectors, its cached
// analyses, reading progress and the record, then decrements the notebook count.
func (i *DocumentIngestor) DeleteDocument(ctx context.Context, id string) error {
	doc, err := i.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	log := logrus.WithFields(logrus.Fields{"doc_id": id, "notebook_id": doc.NotebookID})

	if doc.StoragePath != "" {
		if err := i.blobs.Delete(ctx, doc.StoragePath); err != nil && !core.IsNotFound(err) {
			log.WithError(err).Warn("raw upload not removed")
		}
	}
	if err := i.indexer.Delete(ctx, models.VectorFilter{DocumentIDs: []string{id}}); err != nil {
		return err
	}
	if err := i.store.DeleteAnalysisByDocument(ctx, id); err != nil {
		return err
	}
	if err := i.store.DeleteProgressByDocument(ctx, id); err != nil {
		return err
	}
	if err := i.store.DeleteDocument(ctx, id); err != nil {
		return err
	}
	i.bumpCount(ctx, doc.NotebookID, -1)
	log.Info("document deleted")
	return nil
}

// DeleteNotebook removes every vector, raw upload and record of a notebook
// and then the notebook itself.
func (i *DocumentIngestor) DeleteNotebook(ctx context.Context, id string) error {
	if _, err := i.store.GetNotebook(ctx, id); err != nil {
		return err
	}
	log := logrus.WithField("notebook_id", id)

	if err := i.indexer.Delete(ctx, models.VectorFilter{NotebookID: id}); err != nil {
		return err
	}
	docs, err := i.store.ListDocumentsByNotebook(ctx, id)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.StoragePath != "" {
			if err := i.blobs.Delete(ctx, d.StoragePath); err != nil && !core.IsNotFound(err) {
				log.WithField("doc_id", d.ID).WithError(err).Warn("raw upload not removed")
			}
		}
		if err := i.store.DeleteAnalysisByDocument(ctx, d.ID); err != nil {
			return err
		}
		if err := i.store.DeleteProgressByDocument(ctx, d.ID); err != nil {
			return err
		}
	}
	removed, err := i.store.DeleteDocumentsByNotebook(ctx, id)
	if err != nil {
		return err
	}
	if err := i.store.DeleteNotebook(ctx, id); err != nil {
		return err
	}
	log.WithField("documents", removed).Info("notebook deleted")
	return nil
}

// IndexHealth reports whether every chunk of a document has a vector.
func (i *DocumentIngestor) IndexHealth(ctx context.Context, id string) (*IndexHealth, error) {
	doc, err := i.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	n, err := i.indexer.Count(ctx, models.VectorFilter{DocumentIDs: []string{id}})
	if err != nil {
		return nil, err
	}
	return &IndexHealth{
		DocumentID:  id,
		ChunksCount: doc.ChunksCount,
		Indexed:     n,
		Healthy:     n == doc.ChunksCount,
	}, nil
}
