package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/core/chunking"
	"github.com/hariteja007/NexusLearn-AI/internal/core/extractors"
	objectclient "github.com/hariteja007/NexusLearn-AI/internal/core/object-client"
	"github.com/hariteja007/NexusLearn-AI/internal/metrics"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// defaultVideoTitle names a video document when neither a custom title nor
// the video's own title is known.
const defaultVideoTitle = "YouTube Video"

// DocumentIngestor turns uploads and video links into stored, chunked and
// indexed documents, and owns their removal.
type DocumentIngestor struct {
	store     Store
	blobs     core.BlobStore
	indexer   Indexer
	registry  *extractors.Registry
	video     core.TranscriptExtractor
	assembler *chunking.Assembler
	pool      *Pool
	cfg       IngestConfig
	newID     func() string
}

func NewDocumentIngestor(
	store Store,
	blobs core.BlobStore,
	indexer Indexer,
	registry *extractors.Registry,
	video core.TranscriptExtractor,
	assembler *chunking.Assembler,
	cfg IngestConfig,
) *DocumentIngestor {
	cfg = cfg.withDefaults()
	if registry == nil {
		registry = extractors.Default()
	}
	if assembler == nil {
		assembler = chunking.NewAssembler(nil)
	}
	return &DocumentIngestor{
		store:     store,
		blobs:     blobs,
		indexer:   indexer,
		registry:  registry,
		video:     video,
		assembler: assembler,
		pool:      NewPool(cfg.ExtractWorkers),
		cfg:       cfg,
		newID:     uuid.NewString,
	}
}

// Start runs the extraction workers until ctx is done.
func (i *DocumentIngestor) Start(ctx context.Context) {
	i.pool.Start(ctx)
}

// Ingest stores one uploaded file as a new document of the notebook and
// bumps the notebook's document count.
func (i *DocumentIngestor) Ingest(ctx context.Context, notebookID, filename string, data []byte) (*models.Document, error) {
	if _, err := i.registry.ForFilename(filename); err != nil {
		metrics.IngestFailures.Add(1)
		return nil, err
	}
	if _, err := i.store.GetNotebook(ctx, notebookID); err != nil {
		return nil, err
	}

	doc, err := i.ingestFile(ctx, notebookID, filename, data)
	if err != nil {
		return nil, err
	}
	i.bumpCount(ctx, notebookID, 1)
	return doc, nil
}

// IngestBatch ingests every upload independently. A failing file never
// affects the others; the notebook count grows by the number of successes.
func (i *DocumentIngestor) IngestBatch(ctx context.Context, notebookID string, uploads []Upload) []FileResult {
	results := make([]FileResult, len(uploads))
	for k, up := range uploads {
		results[k].Filename = up.Filename
	}

	if _, err := i.store.GetNotebook(ctx, notebookID); err != nil {
		for k := range results {
			results[k].Err = err
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(i.cfg.BatchWorkers)
	for k, up := range uploads {
		g.Go(func() error {
			doc, err := i.ingestFile(ctx, notebookID, up.Filename, up.Data)
			results[k].Document, results[k].Err = doc, err
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Err == nil {
			succeeded++
		}
	}
	if succeeded > 0 {
		i.bumpCount(ctx, notebookID, succeeded)
	}
	return results
}

// ingestFile runs the pipeline for one file without touching the notebook
// counter: blob write, extraction, record insert, indexing.
func (i *DocumentIngestor) ingestFile(ctx context.Context, notebookID, filename string, data []byte) (doc *models.Document, err error) {
	defer func() {
		if err != nil {
			metrics.IngestFailures.Add(1)
		}
	}()

	ext, err := i.registry.ForFilename(filename)
	if err != nil {
		return nil, err
	}

	id := i.newID()
	key := objectclient.DocumentKey(notebookID, id, extractors.Extension(filename))
	log := logrus.WithFields(logrus.Fields{"doc_id": id, "notebook_id": notebookID, "file": filename})

	if err := i.blobs.Put(ctx, key, data, contentType(filename)); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	src := core.Source{Filename: filename, Data: data}
	out, err := i.extract(ctx, ext, src, true)
	if err != nil {
		log.WithError(err).Warn("extraction failed; raw upload kept")
		return nil, err
	}

	doc = &models.Document{
		ID:          id,
		NotebookID:  notebookID,
		Filename:    filename,
		SourceKind:  ext.Kind(),
		UploadedAt:  time.Now().UTC(),
		Chunks:      out.res.Chunks,
		ChunksCount: len(out.res.Chunks),
		TotalPages:  out.res.TotalPages,
		StoragePath: key,
		Metadata:    out.meta,
	}
	if err := i.store.InsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	i.index(ctx, doc)
	metrics.DocumentsIngested.Add(1)
	log.WithField("chunks", doc.ChunksCount).Info("document ingested")
	return doc, nil
}

// IngestVideo stores a video's transcript as a new document. A missing
// transcript fails the whole call.
func (i *DocumentIngestor) IngestVideo(ctx context.Context, notebookID, url, customTitle string) (doc *models.Document, err error) {
	defer func() {
		if err != nil {
			metrics.IngestFailures.Add(1)
		}
	}()

	if i.video == nil {
		return nil, fmt.Errorf("%w: video transcripts are not configured", core.ErrCapabilityUnavailable)
	}
	if _, err := i.store.GetNotebook(ctx, notebookID); err != nil {
		return nil, err
	}

	fctx, cancel := context.WithTimeout(ctx, i.cfg.ExtractTimeout)
	defer cancel()

	entries, meta, err := i.video.FetchVideo(fctx, url)
	if err != nil {
		return nil, err
	}
	meta["transcript_length"] = len(entries)

	res := i.assembler.AssembleText(extractors.JoinTranscript(entries))
	doc = &models.Document{
		ID:          i.newID(),
		NotebookID:  notebookID,
		Filename:    videoTitle(customTitle, meta),
		SourceKind:  models.KindYouTube,
		UploadedAt:  time.Now().UTC(),
		Chunks:      res.Chunks,
		ChunksCount: len(res.Chunks),
		SourceURL:   url,
		Transcript:  entries,
		Metadata:    meta,
	}
	if err := i.store.InsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	i.index(ctx, doc)
	i.bumpCount(ctx, notebookID, 1)
	metrics.DocumentsIngested.Add(1)
	logrus.WithFields(logrus.Fields{"doc_id": doc.ID, "notebook_id": notebookID, "url": url}).
		WithField("chunks", doc.ChunksCount).Info("video ingested")
	return doc, nil
}

func videoTitle(custom string, meta map[string]any) string {
	if t := strings.TrimSpace(custom); t != "" {
		return t
	}
	if t, ok := meta["title"].(string); ok && strings.TrimSpace(t) != "" {
		return t
	}
	return defaultVideoTitle
}

// index writes the document's vectors. Partial failures leave the document
// in place with fewer vectors than chunks; IndexHealth reports the gap.
func (i *DocumentIngestor) index(ctx context.Context, doc *models.Document) {
	log := logrus.WithFields(logrus.Fields{"doc_id": doc.ID, "notebook_id": doc.NotebookID})
	report, err := i.indexer.IndexChunks(ctx, doc)
	if err == nil {
		return
	}
	if errors.Is(err, core.ErrIndexingPartialFailure) {
		metrics.PartialIndexFailures.Add(1)
		log.WithFields(logrus.Fields{"indexed": report.Indexed, "expected": report.Expected, "failed": report.Failed}).
			Warn("document partially indexed")
		return
	}
	metrics.PartialIndexFailures.Add(1)
	log.WithError(err).Error("indexing failed")
}

func (i *DocumentIngestor) bumpCount(ctx context.Context, notebookID string, n int) {
	if err := i.store.IncrementDocumentCount(ctx, notebookID, n); err != nil {
		logrus.WithField("notebook_id", notebookID).WithError(err).Error("document count not updated")
	}
}

type extraction struct {
	res  *chunking.Result
	meta map[string]any
}

// extract assembles src on the worker pool within the extraction timeout.
// Metadata is only collected when withMeta is set.
func (i *DocumentIngestor) extract(ctx context.Context, ext core.Extractor, src core.Source, withMeta bool) (extraction, error) {
	ectx, cancel := context.WithTimeout(ctx, i.cfg.ExtractTimeout)
	defer cancel()

	out, err := Do(ectx, i.pool, func(ctx context.Context) (extraction, error) {
		res, err := i.assembler.Assemble(ctx, ext, src)
		if err != nil {
			return extraction{}, err
		}
		out := extraction{res: res}
		if withMeta {
			out.meta = metadataFor(ctx, ext, src, res)
		}
		return out, nil
	})
	switch {
	case err == nil:
		return out, nil
	case ctx.Err() != nil:
		return extraction{}, ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		metrics.ExtractionTimeouts.Add(1)
		return extraction{}, core.NewExtractionError(src.Name(),
			fmt.Errorf("gave up after %s: %w", i.cfg.ExtractTimeout, context.DeadlineExceeded))
	case errors.Is(err, core.ErrExtraction), errors.Is(err, core.ErrCapabilityUnavailable):
		return extraction{}, err
	default:
		return extraction{}, core.NewExtractionError(src.Name(), err)
	}
}

// metadataFor reuses the extracted text when the extractor can build
// metadata from it.
func metadataFor(ctx context.Context, ext core.Extractor, src core.Source, res *chunking.Result) map[string]any {
	if tm, ok := ext.(core.TextMetadataExtractor); ok {
		return tm.TextMetadata(src, res.Text)
	}
	return ext.Metadata(ctx, src)
}

func contentType(filename string) string {
	if ct := mime.TypeByExtension("." + extractors.Extension(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
