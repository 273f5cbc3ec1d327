package objectclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/hariteja007/NexusLearn-AI/internal/config"
	"github.com/hariteja007/NexusLearn-AI/internal/core"
)

// NewBlobStore builds the storage backend named by cfg.StorageBackend.
func NewBlobStore(ctx context.Context, cfg *config.Config) (core.BlobStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3Client(ctx, cfg)
	case "local":
		return NewLocalStore(cfg.UploadsDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

// DocumentKey is where a document's raw upload is stored: {notebook}/{document}.{ext}.
func DocumentKey(notebookID, documentID, ext string) string {
	return fmt.Sprintf("%s/%s.%s", notebookID, documentID, strings.TrimPrefix(ext, "."))
}
