package vectorindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pgvector/pgvector-go"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

// PGVectorIndex stores chunk vectors in the chunk_vectors table of the
// application database.
type PGVectorIndex struct {
	db  *sql.DB
	dim int
}

var _ core.SimilarityIndex = (*PGVectorIndex)(nil)

// NewPGVectorIndex creates chunk_vectors when missing and fails with
// ErrDimensionMismatch if an existing table was built for another dimension.
func NewPGVectorIndex(ctx context.Context, db *sql.DB, dim int) (*PGVectorIndex, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid vector dimension %d", dim)
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS chunk_vectors (
				id          TEXT PRIMARY KEY,
				doc_id      TEXT NOT NULL,
				notebook_id TEXT NOT NULL,
				filename    TEXT NOT NULL DEFAULT '',
				file_type   TEXT NOT NULL DEFAULT '',
				chunk_index INT  NOT NULL,
				text        TEXT NOT NULL,
				page_number INT,
				embedding   vector(%d) NOT NULL
			)`, dim),
		`CREATE INDEX IF NOT EXISTS idx_chunk_vectors_doc ON chunk_vectors(doc_id)`,
		`CREATE INDEX IF NOT EXISTS idx_chunk_vectors_notebook ON chunk_vectors(notebook_id)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return nil, fmt.Errorf("prepare chunk_vectors: %w", err)
		}
	}

	var have int
	const q = `
		SELECT atttypmod FROM pg_attribute
		WHERE attrelid = 'chunk_vectors'::regclass AND attname = 'embedding'
	`
	if err := db.QueryRowContext(ctx, q).Scan(&have); err != nil {
		return nil, fmt.Errorf("read vector dimension: %w", err)
	}
	if have != dim {
		return nil, fmt.Errorf("%w: chunk_vectors holds %d-dim vectors, embedder produces %d", core.ErrDimensionMismatch, have, dim)
	}
	return &PGVectorIndex{db: db, dim: dim}, nil
}

func (x *PGVectorIndex) Dimension() int { return x.dim }

func (x *PGVectorIndex) Upsert(ctx context.Context, vectors []models.IndexedVector) error {
	if len(vectors) == 0 {
		return nil
	}
	tx, err := x.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO chunk_vectors
			(id, doc_id, notebook_id, filename, file_type, chunk_index, text, page_number, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			doc_id = EXCLUDED.doc_id,
			notebook_id = EXCLUDED.notebook_id,
			filename = EXCLUDED.filename,
			file_type = EXCLUDED.file_type,
			chunk_index = EXCLUDED.chunk_index,
			text = EXCLUDED.text,
			page_number = EXCLUDED.page_number,
			embedding = EXCLUDED.embedding
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, v := range vectors {
		if len(v.Vector) != x.dim {
			_ = tx.Rollback()
			return fmt.Errorf("%w: vector %s has %d values, index has %d", core.ErrDimensionMismatch, v.ID, len(v.Vector), x.dim)
		}
		md := v.Metadata
		var page sql.NullInt64
		if md.PageNumber != nil {
			page = sql.NullInt64{Int64: int64(*md.PageNumber), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			v.ID, md.DocID, md.NotebookID, md.Filename, md.FileType, md.ChunkIndex, md.Text, page, pgvector.NewVector(v.Vector),
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// where renders filter as a SQL condition with parameters numbered from next.
func where(f models.VectorFilter, next int) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.NotebookID != "" {
		conds = append(conds, fmt.Sprintf("notebook_id = $%d", next+len(args)))
		args = append(args, f.NotebookID)
	}
	if len(f.DocumentIDs) > 0 {
		conds = append(conds, fmt.Sprintf("doc_id = ANY($%d)", next+len(args)))
		args = append(args, f.DocumentIDs)
	}
	if len(f.PageNumbers) > 0 {
		conds = append(conds, fmt.Sprintf("page_number = ANY($%d)", next+len(args)))
		args = append(args, f.PageNumbers)
	}
	if len(conds) == 0 {
		return "TRUE", nil
	}
	return strings.Join(conds, " AND "), args
}

// Query ranks by cosine distance; Score is the cosine similarity.
func (x *PGVectorIndex) Query(ctx context.Context, vector []float32, topK int, filter models.VectorFilter) ([]models.Match, error) {
	if topK <= 0 {
		return nil, nil
	}
	if len(vector) != x.dim {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", core.ErrDimensionMismatch, len(vector), x.dim)
	}

	cond, args := where(filter, 3)
	q := fmt.Sprintf(`
		SELECT id, doc_id, notebook_id, filename, file_type, chunk_index, text, page_number,
		       1 - (embedding <=> $1) AS score
		FROM chunk_vectors
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, cond)

	rows, err := x.db.QueryContext(ctx, q, append([]any{pgvector.NewVector(vector), topK}, args...)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Match
	for rows.Next() {
		var (
			m     models.Match
			page  sql.NullInt64
			score float64
		)
		md := &m.Metadata
		if err := rows.Scan(&m.ID, &md.DocID, &md.NotebookID, &md.Filename, &md.FileType, &md.ChunkIndex, &md.Text, &page, &score); err != nil {
			return nil, err
		}
		if page.Valid {
			p := int(page.Int64)
			md.PageNumber = &p
		}
		m.Score = float32(score)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (x *PGVectorIndex) Delete(ctx context.Context, filter models.VectorFilter) error {
	if filter.IsEmpty() {
		return errors.New("refusing to delete with an empty filter")
	}
	cond, args := where(filter, 1)
	_, err := x.db.ExecContext(ctx, `DELETE FROM chunk_vectors WHERE `+cond, args...)
	return err
}

func (x *PGVectorIndex) Count(ctx context.Context, filter models.VectorFilter) (int, error) {
	cond, args := where(filter, 1)
	var n int
	err := x.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunk_vectors WHERE `+cond, args...).Scan(&n)
	return n, err
}
