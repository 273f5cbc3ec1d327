package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hariteja007/NexusLearn-AI/internal/core"
	"github.com/hariteja007/NexusLearn-AI/internal/models"
)

var _ core.ProgressStore = (*DatabaseClient)(nil)

const progressColumns = `user_id, notebook_id, document_id, current_page, total_pages, completed_pages,
	completion_percentage, time_spent_seconds, last_read_at, created_at, updated_at`

func (c *DatabaseClient) GetProgress(ctx context.Context, userID, documentID string) (*models.ReadingProgress, bool, error) {
	q := `SELECT ` + progressColumns + ` FROM reading_progress WHERE user_id = ? AND document_id = ?`
	p, err := scanProgress(c.db.QueryRowContext(ctx, c.q(q), userID, documentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// SaveProgress inserts or replaces the position for (user, document). Reading
// time accumulates in the same statement.
func (c *DatabaseClient) SaveProgress(ctx context.Context, p *models.ReadingProgress, addSeconds int64) error {
	if p == nil {
		return errors.New("nil reading progress")
	}
	if p.CurrentPage < 1 {
		return errors.New("current page must be at least 1")
	}
	completed, err := marshalJSON(p.CompletedPages, "[]")
	if err != nil {
		return fmt.Errorf("encode completed pages: %w", err)
	}
	now := time.Now().UTC()
	if p.LastReadAt.IsZero() {
		p.LastReadAt = now
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	const q = `
		INSERT INTO reading_progress
			(user_id, notebook_id, document_id, current_page, total_pages, completed_pages,
			 completion_percentage, time_spent_seconds, last_read_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, document_id) DO UPDATE SET
			notebook_id = excluded.notebook_id,
			current_page = excluded.current_page,
			total_pages = excluded.total_pages,
			completed_pages = excluded.completed_pages,
			completion_percentage = excluded.completion_percentage,
			time_spent_seconds = reading_progress.time_spent_seconds + excluded.time_spent_seconds,
			last_read_at = excluded.last_read_at,
			updated_at = excluded.updated_at
	`
	_, err = c.db.ExecContext(ctx, c.q(q),
		p.UserID, p.NotebookID, p.DocumentID, p.CurrentPage, p.TotalPages, completed,
		p.CompletionPercentage, addSeconds, p.LastReadAt.UTC(), p.CreatedAt.UTC(), p.UpdatedAt)
	return err
}

func (c *DatabaseClient) ListProgressByNotebook(ctx context.Context, userID, notebookID string) ([]models.ReadingProgress, error) {
	q := `SELECT ` + progressColumns + ` FROM reading_progress WHERE user_id = ? AND notebook_id = ? ORDER BY last_read_at DESC`
	rows, err := c.db.QueryContext(ctx, c.q(q), userID, notebookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ReadingProgress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) DeleteProgressByDocument(ctx context.Context, documentID string) error {
	_, err := c.db.ExecContext(ctx, c.q(`DELETE FROM reading_progress WHERE document_id = ?`), documentID)
	return err
}

func scanProgress(row rowScanner) (*models.ReadingProgress, error) {
	var (
		p                         models.ReadingProgress
		completed                 []byte
		lastRead, created, update dbTime
	)
	err := row.Scan(&p.UserID, &p.NotebookID, &p.DocumentID, &p.CurrentPage, &p.TotalPages, &completed,
		&p.CompletionPercentage, &p.TimeSpentSeconds, &lastRead, &created, &update)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSON(completed, &p.CompletedPages); err != nil {
		return nil, fmt.Errorf("decode completed pages: %w", err)
	}
	if p.CompletedPages == nil {
		p.CompletedPages = []int{}
	}
	p.LastReadAt = lastRead.Time
	p.CreatedAt = created.Time
	p.UpdatedAt = update.Time
	return &p, nil
}
