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

var _ core.NotebookStore = (*DatabaseClient)(nil)

func (c *DatabaseClient) CreateNotebook(ctx context.Context, nb *models.Notebook) error {
	if nb == nil {
		return errors.New("nil notebook")
	}
	if nb.CreatedAt.IsZero() {
		nb.CreatedAt = time.Now().UTC()
	}
	const q = `
		INSERT INTO notebooks (id, user_id, name, document_count, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := c.db.ExecContext(ctx, c.q(q), nb.ID, nb.UserID, nb.Name, nb.DocumentCount, nb.CreatedAt.UTC())
	return err
}

func (c *DatabaseClient) GetNotebook(ctx context.Context, id string) (*models.Notebook, error) {
	const q = `SELECT id, user_id, name, document_count, created_at FROM notebooks WHERE id = ?`
	var (
		nb      models.Notebook
		created dbTime
	)
	err := c.db.QueryRowContext(ctx, c.q(q), id).Scan(&nb.ID, &nb.UserID, &nb.Name, &nb.DocumentCount, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("notebook %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	nb.CreatedAt = created.Time
	return &nb, nil
}

func (c *DatabaseClient) ListNotebooksByUser(ctx context.Context, userID string) ([]models.Notebook, error) {
	const q = `
		SELECT id, user_id, name, document_count, created_at
		FROM notebooks
		WHERE user_id = ?
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, c.q(q), userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Notebook
	for rows.Next() {
		var (
			nb      models.Notebook
			created dbTime
		)
		if err := rows.Scan(&nb.ID, &nb.UserID, &nb.Name, &nb.DocumentCount, &created); err != nil {
			return nil, err
		}
		nb.CreatedAt = created.Time
		out = append(out, nb)
	}
	return out, rows.Err()
}

// IncrementDocumentCount adds n to the counter in a single UPDATE.
func (c *DatabaseClient) IncrementDocumentCount(ctx context.Context, id string, n int) error {
	const q = `UPDATE notebooks SET document_count = document_count + ? WHERE id = ?`
	res, err := c.db.ExecContext(ctx, c.q(q), n, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return fmt.Errorf("notebook %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func (c *DatabaseClient) DeleteNotebook(ctx context.Context, id string) error {
	res, err := c.db.ExecContext(ctx, c.q(`DELETE FROM notebooks WHERE id = ?`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("notebook %s: %w", id, core.ErrNotFound)
	}
	return nil
}
