package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/nexus")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1000, cfg.ChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 100, cfg.IndexBatchSize)
	assert.Equal(t, 30*24*time.Hour, cfg.AnalysisTTL)
	assert.Equal(t, "postgres://localhost/nexus", cfg.DatabaseURL)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nexus.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
db_driver: sqlite
database_url: file.db
storage_backend: local
vector_backend: chromem
chunk_size: 500
chunk_overlap: 50
extract_timeout: 30s
`), 0o644))

	t.Setenv("CHUNK_OVERLAP", "100")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 500, cfg.ChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 30*time.Second, cfg.ExtractTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		c := DefaultConfig()
		c.DatabaseURL = "postgres://x"
		return c
	}

	require.NoError(t, base().Validate())

	c := base()
	c.ChunkOverlap = c.ChunkSize
	assert.Error(t, c.Validate())

	c = base()
	c.DBDriver = "mysql"
	assert.Error(t, c.Validate())

	c = base()
	c.DBDriver = "sqlite"
	assert.Error(t, c.Validate(), "pgvector needs postgres")

	c = base()
	c.DatabaseURL = ""
	assert.Error(t, c.Validate())

	c = base()
	c.StorageBackend = "gcs"
	assert.Error(t, c.Validate())
}
