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

// TestSessionRepository handles database operations for issued test sessions
type TestSessionRepository struct {
	db database.DBTX
}

// NewTestSessionRepository creates a new test session repository
func NewTestSessionRepository(db database.DBTX) *TestSessionRepository {
	return &TestSessionRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *TestSessionRepository) WithTx(tx *database.Tx) *TestSessionRepository {
	return &TestSessionRepository{db: tx}
}

// CreateSession stores an unused session and returns its id
func (r *TestSessionRepository) CreateSession(ctx context.Context, s *models.TestSession) (int64, error) {
	userID, guestSessionID := s.Owner.Columns()
	query := `
		INSERT INTO test_sessions (
			token_hash, user_id, guest_session_id, test_text_id, duration_seconds,
			issued_at, expires_at, is_used, ip_address, user_agent_hash
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		s.TokenHash, userID, guestSessionID, s.TextID, s.DurationSeconds,
		s.IssuedAt, s.ExpiresAt, s.IPAddress, s.UserAgentHash,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create test session: %w", err)
	}
	return id, nil
}

// MarkUsed flips an unused, unexpired session to used. It reports whether
// this call performed the transition; only one caller can ever see true.
func (r *TestSessionRepository) MarkUsed(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE test_sessions
		SET is_used = TRUE, used_at = ?
		WHERE token_hash = ? AND is_used = FALSE AND expires_at > ?
	`, now, tokenHash, now)
	if err != nil {
		return false, fmt.Errorf("failed to consume test session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to consume test session: %w", err)
	}
	return n == 1, nil
}

// GetByTokenHash retrieves a session by the hash of its token
func (r *TestSessionRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.TestSession, error) {
	query := `
		SELECT id, token_hash, user_id, guest_session_id, test_text_id, duration_seconds,
			issued_at, expires_at, is_used, used_at, COALESCE(ip_address, ''), COALESCE(user_agent_hash, '')
		FROM test_sessions
		WHERE token_hash = ?
	`
	var (
		s              models.TestSession
		userID         sql.NullInt64
		guestSessionID sql.NullInt64
		usedAt         sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&s.ID,
		&s.TokenHash,
		&userID,
		&guestSessionID,
		&s.TextID,
		&s.DurationSeconds,
		&s.IssuedAt,
		&s.ExpiresAt,
		&s.IsUsed,
		&usedAt,
		&s.IPAddress,
		&s.UserAgentHash,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get test session: %w", err)
	}

	owner, err := models.OwnerFromColumns(nullInt64Ptr(userID), nullInt64Ptr(guestSessionID))
	if err != nil {
		return nil, fmt.Errorf("test session %d: %w", s.ID, err)
	}
	s.Owner = owner
	if usedAt.Valid {
		t := usedAt.Time
		s.UsedAt = &t
	}
	return &s, nil
}

// DeleteExpiredUnused removes sessions that were never consumed and expired before cutoff.
// Consumed sessions stay as provenance for their result.
func (r *TestSessionRepository) DeleteExpiredUnused(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM test_sessions WHERE is_used = FALSE AND expires_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired test sessions: %w", err)
	}
	return res.RowsAffected()
}

func nullInt64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}
