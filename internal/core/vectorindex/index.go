package vectorindex

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hariteja007/NexusLearn-AI/internal/config"
	"github.com/hariteja007/NexusLearn-AI/internal/core"
)

// New opens the index named by cfg.VectorBackend. db is only used by pgvector.
func New(ctx context.Context, cfg *config.Config, db *sql.DB) (core.SimilarityIndex, error) {
	switch cfg.VectorBackend {
	case "pgvector":
		if db == nil {
			return nil, fmt.Errorf("pgvector index needs a database connection")
		}
		return NewPGVectorIndex(ctx, db, cfg.EmbedDim)
	case "chromem":
		return NewChromemIndex(cfg.VectorDir, cfg.EmbedDim)
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}
