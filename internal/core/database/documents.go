package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

var _ core.DocumentStore = (*DatabaseClient)(nil)

// InsertDocument writes the whole record, chunk list included, in one statement.
func (c *DatabaseClient) InsertDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	chunks, err := marshalJSON(doc.Chunks, "[]")
	if err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}
	transcript, err := marshalNullableJSON(doc.Transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	metadata, err := marshalNullableJSON(doc.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	const q = `
		INSERT INTO documents
			(id, notebook_id, filename, source_kind, uploaded_at, chunks, chunks_count,
			 total_pages, storage_path, source_url, transcript, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = c.db.ExecContext(ctx, c.q(q),
		doc.ID, doc.NotebookID, doc.Filename, string(doc.SourceKind), doc.UploadedAt.UTC(),
		chunks, doc.ChunksCount, doc.TotalPages, doc.StoragePath, doc.SourceURL, transcript, metadata)
	return err
}

const documentColumns = `id, notebook_id, filename, source_kind, uploaded_at, chunks, chunks_count,
	total_pages, storage_path, source_url, transcript, metadata`

func (c *DatabaseClient) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	q := `SELECT ` + documentColumns + ` FROM documents WHERE id = ?`
	doc, err := scanDocument(c.db.QueryRowContext(ctx, c.q(q), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ListDocumentsByNotebook returns the notebook's documents, newest first,
// without their chunk lists or transcripts.
func (c *DatabaseClient) ListDocumentsByNotebook(ctx context.Context, notebookID string) ([]models.Document, error) {
	const q = `
		SELECT id, notebook_id, filename, source_kind, uploaded_at, '[]', chunks_count,
			total_pages, storage_path, source_url, NULL, metadata
		FROM documents
		WHERE notebook_id = ?
		ORDER BY uploaded_at DESC
	`
	rows, err := c.db.QueryContext(ctx, c.q(q), notebookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		doc.Chunks = nil
		out = append(out, *doc)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateDocumentChunks(ctx context.Context, id string, chunks []models.Chunk, totalPages int) error {
	encoded, err := marshalJSON(chunks, "[]")
	if err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}
	const q = `
		UPDATE documents
		SET chunks = ?, chunks_count = ?, total_pages = ?
		WHERE id = ?
	`
	res, err := c.db.ExecContext(ctx, c.q(q), encoded, len(chunks), totalPages, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (c *DatabaseClient) DeleteDocument(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, c.q(`DELETE FROM documents WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("document %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (c *DatabaseClient) DeleteDocumentsByNotebook(ctx context.Context, notebookID string) (int, error) {
	res, err := c.db.ExecContext(ctx, c.q(`DELETE FROM documents WHERE notebook_id = ?`), notebookID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (c *DatabaseClient) CountDocuments(ctx context.Context, notebookID string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, c.q(`SELECT COUNT(*) FROM documents WHERE notebook_id = ?`), notebookID).Scan(&n)
	return n, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		d                            models.Document
		kind                         string
		uploaded                     dbTime
		chunks, transcript, metadata []byte
	)
	if err := row.Scan(
		&d.ID, &d.NotebookID, &d.Filename, &kind, &uploaded, &chunks, &d.ChunksCount,
		&d.TotalPages, &d.StoragePath, &d.SourceURL, &transcript, &metadata,
	); err != nil {
		return nil, err
	}
	d.SourceKind = models.SourceKind(kind)
	d.UploadedAt = uploaded.Time

	if err := unmarshalJSON(chunks, &d.Chunks); err != nil {
		return nil, fmt.Errorf("decode chunks of %s: %w", d.ID, err)
	}
	if err := unmarshalJSON(transcript, &d.Transcript); err != nil {
		return nil, fmt.Errorf("decode transcript of %s: %w", d.ID, err)
	}
	if err := unmarshalJSON(metadata, &d.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", d.ID, err)
	}
	return &d, nil
}

func marshalJSON(v any, empty string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return empty, nil
	}
	return string(b), nil
}

// marshalNullableJSON encodes nil slices and maps as SQL NULL.
func marshalNullableJSON(v any) (any, error) {
	s, err := marshalJSON(v, "")
	if err != nil || s == "" {
		return nil, err
	}
	return s, nil
}

func unmarshalJSON(b []byte, v any) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return json.Unmarshal(b, v)
}
