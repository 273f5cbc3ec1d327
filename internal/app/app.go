// internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/hariteja007/NexusLearn-AI/internal/config"
	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/core/chunking"
	db "github.com/hariteja007/NexusLearn-AI/internal/core/database"
	"github.com/hariteja007/NexusLearn-AI/internal/core/extractors"
	"github.com/hariteja007/NexusLearn-AI/internal/core/indexing"
	"github.com/hariteja007/NexusLearn-AI/internal/core/ingestion_engine"
	"github.com/hariteja007/NexusLearn-AI/internal/core/llm"
	objectclient "github.com/hariteja007/NexusLearn-AI/internal/core/object-client"
	"github.com/hariteja007/NexusLearn-AI/internal/core/vectorindex"
	"github.com/hariteja007/NexusLearn-AI/internal/services"
)

const purgeInterval = time.Hour

type App struct {
	DBClient  db.DbClient
	Blobs     core.BlobStore
	Index     core.SimilarityIndex
	Providers *llm.Providers
	Ingestor  *ingestion_engine.DocumentIngestor
	Server    *Server

	cancel context.CancelFunc
}

// NewApp connects every backend named in cfg and builds the HTTP server.
// Background work started here stops when ctx is done or Close is called.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET not set")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}

	initCtx, cancelInit := context.WithTimeout(ctx, 5*time.Minute)
	defer cancelInit()

	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	client, err := db.NewDatabaseClient(initCtx, cfg)
	if err != nil {
		return nil, err
	}
	var dbClient db.DbClient = client
	a.DBClient = dbClient
	logrus.WithField("driver", dbClient.Driver()).Info("database initialized and ready")

	blobs, err := objectclient.NewBlobStore(initCtx, cfg)
	if err != nil {
		return nil, err
	}
	a.Blobs = blobs
	logrus.WithField("backend", cfg.StorageBackend).Info("blob store ready")

	providers, err := llm.NewProviders(initCtx, cfg)
	if err != nil {
		return nil, err
	}
	a.Providers = providers

	index, err := vectorindex.New(initCtx, cfg, dbClient.DB())
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the vector index, %w", err)
	}
	a.Index = index

	adapter, err := indexing.NewAdapter(providers.Embedder, index, indexing.Options{
		EmbedBatchSize:  cfg.EmbedBatchSize,
		UpsertBatchSize: cfg.IndexBatchSize,
		Workers:         cfg.EmbedWorkers,
	})
	if err != nil {
		return nil, err
	}

	chunker, err := chunking.New(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, err
	}

	pdf := extractors.NewPDFExtractor()
	ingestor := ingestion_engine.NewDocumentIngestor(
		dbClient,
		blobs,
		adapter,
		extractors.Default(),
		extractors.NewYouTubeExtractor(extractors.NewVideoClient(nil)),
		chunking.NewAssembler(chunker),
		ingestion_engine.IngestConfig{
			ExtractWorkers: cfg.ExtractWorkers,
			ExtractTimeout: cfg.ExtractTimeout,
		},
	)
	a.Ingestor = ingestor

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	ingestor.Start(runCtx)
	go purgeAnalysis(runCtx, dbClient)

	docs := services.NewDocumentService(dbClient)
	retrieval := services.NewRetrievalService(adapter, providers.LLM)
	analysis := services.NewAnalysisService(dbClient, blobs, pdf, providers.LLM, cfg.AnalysisTTL)
	progress := services.NewProgressService(docs, dbClient)

	a.Server = NewServer(cfg, docs, ingestor, retrieval, analysis, progress)
	ok = true
	return a, nil
}

// purgeAnalysis drops expired analysis cache rows until ctx is done.
func purgeAnalysis(ctx context.Context, cache core.AnalysisCache) {
	t := time.NewTicker(purgeInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := cache.PurgeExpired(ctx)
			if err != nil {
				logrus.WithError(err).Warn("purge expired analysis")
				continue
			}
			if n > 0 {
				logrus.WithField("rows", n).Debug("purged expired analysis")
			}
		}
	}
}

func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.Providers != nil {
		_ = a.Providers.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
