package db

import (
	"database/sql"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
)

// DbClient is every persistence operation the services need, backed by one
// connection pool. DB exposes that pool to components that keep their own
// tables in the same database, such as the pgvector index.
type DbClient interface {
	core.DocumentStore
	core.NotebookStore
	core.AnalysisCache
	core.ProgressStore

	DB() *sql.DB
	Driver() string
	Close() error
}

var _ DbClient = (*DatabaseClient)(nil)
