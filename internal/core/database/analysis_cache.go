package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

var _ core.AnalysisCache = (*DatabaseClient)(nil)

// GetAnalysis returns the cached entry for a page. Missing and expired
// entries are both reported as a miss.
func (c *DatabaseClient) GetAnalysis(ctx context.Context, documentID string, page int) (*models.AnalysisEntry, bool, error) {
	const q = `
		SELECT document_id, page_number, result, created_at, expires_at
		FROM analysis_cache
		WHERE document_id = ? AND page_number = ? AND expires_at > ?
	`
	var (
		e       models.AnalysisEntry
		result  []byte
		created dbTime
		expires int64
	)
	err := c.db.QueryRowContext(ctx, c.q(q), documentID, page, time.Now().Unix()).
		Scan(&e.DocumentID, &e.PageNumber, &result, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	e.Result = result
	e.CreatedAt = created.Time
	e.ExpiresAt = time.Unix(expires, 0).UTC()
	return &e, true, nil
}

// PutAnalysis inserts or replaces the entry for (document, page).
func (c *DatabaseClient) PutAnalysis(ctx context.Context, e *models.AnalysisEntry) error {
	if e == nil {
		return errors.New("nil analysis entry")
	}
	if e.PageNumber < 1 {
		return errors.New("analysis page number must be at least 1")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	const q = `
		INSERT INTO analysis_cache (document_id, page_number, result, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (document_id, page_number)
		DO UPDATE SET result = excluded.result, created_at = excluded.created_at, expires_at = excluded.expires_at
	`
	_, err := c.db.ExecContext(ctx, c.q(q),
		e.DocumentID, e.PageNumber, string(e.Result), e.CreatedAt.UTC(), e.ExpiresAt.Unix())
	return err
}

func (c *DatabaseClient) DeleteAnalysisByDocument(ctx context.Context, documentID string) error {
	_, err := c.db.ExecContext(ctx, c.q(`DELETE FROM analysis_cache WHERE document_id = ?`), documentID)
	return err
}

// PurgeExpired removes entries past their expiry and reports how many went.
func (c *DatabaseClient) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, c.q(`DELETE FROM analysis_cache WHERE expires_at <= ?`), time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
