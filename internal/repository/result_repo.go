package repository

import (
	"context"
	"fmt"

	"typeracer/internal/database"
	"typeracer/internal/models"
)

// ResultRepository handles database operations for test results
type ResultRepository struct {
	db database.DBTX
}

// NewResultRepository creates a new result repository
func NewResultRepository(db database.DBTX) *ResultRepository {
	return &ResultRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ResultRepository) WithTx(tx *database.Tx) *ResultRepository {
	return &ResultRepository{db: tx}
}

// CreateResult inserts a result and sets its ID
func (r *ResultRepository) CreateResult(ctx context.Context, res *models.TestResult) error {
	userID, guestSessionID := res.Owner.Columns()
	query := `
		INSERT INTO test_results (
			user_id, guest_session_id, test_session_id, wpm, raw_wpm, accuracy,
			correct_chars, incorrect_chars, total_chars, duration_seconds, text_snippet, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		userID, guestSessionID, res.TestSessionID, res.WPM, res.RawWPM, res.Accuracy,
		res.CorrectChars, res.IncorrectChars, res.TotalChars, res.DurationSeconds, res.TextSnippet, res.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create test result: %w", err)
	}
	res.ID = id
	return nil
}

// ReassignGuestResults moves every result of a guest session to a user
func (r *ResultRepository) ReassignGuestResults(ctx context.Context, guestSessionID, userID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE test_results SET user_id = ?, guest_session_id = NULL WHERE guest_session_id = ?",
		userID, guestSessionID)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign guest results: %w", err)
	}
	return res.RowsAffected()
}

// CountByOwner returns how many results the owner has
func (r *ResultRepository) CountByOwner(ctx context.Context, owner models.Owner) (int, error) {
	column := "user_id"
	if owner.IsGuest() {
		column = "guest_session_id"
	}
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM test_results WHERE "+column+" = ?", owner.ID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count results: %w", err)
	}
	return count, nil
}
