package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"typeracer/internal/models"
)

// HistoryRepository serves paginated result history through sqlx
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// GetHistory returns one page of an owner's results, newest first, plus the total count.
// A zero since means all time.
func (r *HistoryRepository) GetHistory(ctx context.Context, owner models.Owner, since time.Time, limit, offset int) ([]models.HistoryEntry, int, error) {
	where := "WHERE tr.user_id = ?"
	if owner.IsGuest() {
		where = "WHERE tr.guest_session_id = ?"
	}
	args := []interface{}{owner.ID}
	if !since.IsZero() {
		where += " AND tr.created_at >= ?"
		args = append(args, since)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, r.db.Rebind("SELECT COUNT(*) FROM test_results tr "+where), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count history: %w", err)
	}

	query := r.db.Rebind(`
		SELECT
			tr.id, tr.wpm, tr.raw_wpm, tr.accuracy, tr.correct_chars, tr.incorrect_chars,
			tr.total_chars, tr.duration_seconds, COALESCE(tr.text_snippet, '') AS text_snippet, tr.created_at,
			tt.content AS text_content, tt.word_count AS text_word_count
		FROM test_results tr
		JOIN test_sessions ts ON tr.test_session_id = ts.id
		JOIN test_texts tt ON ts.test_text_id = tt.id
		` + where + `
		ORDER BY tr.created_at DESC, tr.id DESC
		LIMIT ? OFFSET ?
	`)
	args = append(args, limit, offset)

	entries := []models.HistoryEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get history: %w", err)
	}
	return entries, total, nil
}
