package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"typeracer/internal/database"
	"typeracer/internal/models"
)

// TextRepository handles database operations for test texts
type TextRepository struct {
	db database.DBTX
}

// NewTextRepository creates a new text repository
func NewTextRepository(db database.DBTX) *TextRepository {
	return &TextRepository{db: db}
}

// CreateText inserts an active text
func (r *TextRepository) CreateText(ctx context.Context, t models.NewText, now time.Time) (*models.TestText, error) {
	query := `
		INSERT INTO test_texts (content, language, difficulty, word_count, is_active, created_at)
		VALUES (?, ?, ?, ?, TRUE, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, t.Content, t.Language, t.Difficulty, t.WordCount, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create text: %w", err)
	}
	return &models.TestText{
		ID:         id,
		Content:    t.Content,
		Language:   t.Language,
		Difficulty: t.Difficulty,
		WordCount:  t.WordCount,
		IsActive:   true,
		CreatedAt:  now,
	}, nil
}

// GetTextByID retrieves a text regardless of its active flag
func (r *TextRepository) GetTextByID(ctx context.Context, id int64) (*models.TestText, error) {
	query := `
		SELECT id, content, language, difficulty, word_count, is_active, created_at
		FROM test_texts
		WHERE id = ?
	`
	return scanText(r.db.QueryRowContext(ctx, query, id))
}

// CountActive returns the number of active texts matching the filters
func (r *TextRepository) CountActive(ctx context.Context, language, difficulty string) (int, error) {
	var count int
	query := "SELECT COUNT(*) FROM test_texts WHERE language = ? AND difficulty = ? AND is_active = TRUE"
	if err := r.db.QueryRowContext(ctx, query, language, difficulty).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count texts: %w", err)
	}
	return count, nil
}

// CountAll returns the number of stored texts
func (r *TextRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM test_texts").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count texts: %w", err)
	}
	return count, nil
}

// GetActiveAt returns the offset-th active text matching the filters in id order.
// Returns nil when the offset is past the end.
func (r *TextRepository) GetActiveAt(ctx context.Context, language, difficulty string, offset int) (*models.TestText, error) {
	query := `
		SELECT id, content, language, difficulty, word_count, is_active, created_at
		FROM test_texts
		WHERE language = ? AND difficulty = ? AND is_active = TRUE
		ORDER BY id
		LIMIT 1 OFFSET ?
	`
	return scanText(r.db.QueryRowContext(ctx, query, language, difficulty, offset))
}

// ListActive returns every active text in id order
func (r *TextRepository) ListActive(ctx context.Context) ([]models.TestText, error) {
	query := `
		SELECT id, content, language, difficulty, word_count, is_active, created_at
		FROM test_texts
		WHERE is_active = TRUE
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list texts: %w", err)
	}
	defer rows.Close()

	var texts []models.TestText
	for rows.Next() {
		var t models.TestText
		if err := rows.Scan(&t.ID, &t.Content, &t.Language, &t.Difficulty, &t.WordCount, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan text: %w", err)
		}
		texts = append(texts, t)
	}
	return texts, rows.Err()
}

// DeactivateText soft-deletes a text. Returns false if it was already inactive or missing.
func (r *TextRepository) DeactivateText(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE test_texts SET is_active = FALSE WHERE id = ? AND is_active = TRUE", id)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate text: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to deactivate text: %w", err)
	}
	return n == 1, nil
}

func scanText(row *sql.Row) (*models.TestText, error) {
	text := &models.TestText{}
	err := row.Scan(
		&text.ID,
		&text.Content,
		&text.Language,
		&text.Difficulty,
		&text.WordCount,
		&text.IsActive,
		&text.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get text: %w", err)
	}
	return text, nil
}

// WithTx returns a repository bound to tx
func (r *TextRepository) WithTx(tx *database.Tx) *TextRepository {
	return &TextRepository{db: tx}
}
