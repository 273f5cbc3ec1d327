package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/hariteja007/NexusLearn-AI/internal/config"
)

// DatabaseClient implements the document, notebook and analysis cache stores
// on database/sql, against Postgres (pgx) or SQLite (modernc).
type DatabaseClient struct {
	db      *sql.DB
	dialect dialect
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	switch cfg.DBDriver {
	case string(dialectSQLite):
		path := cfg.DatabaseURL
		if path == "" {
			path = "nexuslearn.db"
		}
		return OpenSQLite(ctx, path)
	default:
		return OpenPostgres(ctx, cfg.DatabaseURL, cfg.SslCertPath)
	}
}

// OpenPostgres connects with pgx. When sslCertPath is set the connection
// verifies the server against that CA.
func OpenPostgres(ctx context.Context, databaseURL, sslCertPath string) (*DatabaseClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	dsn := databaseURL
	if sslCertPath != "" {
		if _, err := os.Stat(sslCertPath); err != nil {
			return nil, fmt.Errorf("ssl cert not accessible at %q: %w", sslCertPath, err)
		}
		u, err := url.Parse(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
		}
		q := u.Query()
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", sslCertPath)
		u.RawQuery = q.Encode()
		dsn = u.String()
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	return finishOpen(ctx, db, dialectPostgres)
}

// OpenSQLite opens (creating if needed) a SQLite database file. Use
// ":memory:" for a throwaway database.
func OpenSQLite(ctx context.Context, path string) (*DatabaseClient, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// SQLite has a single writer; one connection also keeps :memory: alive
	db.SetMaxOpenConns(1)

	return finishOpen(ctx, db, dialectSQLite)
}

func finishOpen(ctx context.Context, db *sql.DB, d dialect) (*DatabaseClient, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db, d); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	return &DatabaseClient{db: db, dialect: d}, nil
}

// DB exposes the pool so the pgvector index can share it.
func (c *DatabaseClient) DB() *sql.DB { return c.db }

// Driver reports "pgx" or "sqlite".
func (c *DatabaseClient) Driver() string { return string(c.dialect) }

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *DatabaseClient) q(query string) string {
	return c.dialect.rebind(query)
}
