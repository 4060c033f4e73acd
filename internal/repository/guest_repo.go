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

// GuestRepository handles database operations for guest sessions
type GuestRepository struct {
	db database.DBTX
}

// NewGuestRepository creates a new guest session repository
func NewGuestRepository(db database.DBTX) *GuestRepository {
	return &GuestRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *GuestRepository) WithTx(tx *database.Tx) *GuestRepository {
	return &GuestRepository{db: tx}
}

// CreateGuestSession inserts an active guest session
func (r *GuestRepository) CreateGuestSession(ctx context.Context, guestID string, now time.Time) (*models.GuestSession, error) {
	query := `
		INSERT INTO guest_sessions (guest_id, created_at, last_seen_at, is_active)
		VALUES (?, ?, ?, TRUE)
	`
	id, err := r.db.ExecReturningID(ctx, query, guestID, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create guest session: %w", err)
	}
	return &models.GuestSession{
		ID:         id,
		GuestID:    guestID,
		CreatedAt:  now,
		LastSeenAt: now,
		IsActive:   true,
	}, nil
}

// GetActiveByGuestID retrieves an active guest session by its cookie id
func (r *GuestRepository) GetActiveByGuestID(ctx context.Context, guestID string) (*models.GuestSession, error) {
	query := `
		SELECT id, guest_id, created_at, last_seen_at, is_active
		FROM guest_sessions
		WHERE guest_id = ? AND is_active = TRUE
	`
	return scanGuest(r.db.QueryRowContext(ctx, query, guestID))
}

// GetByGuestID retrieves a guest session in any state
func (r *GuestRepository) GetByGuestID(ctx context.Context, guestID string) (*models.GuestSession, error) {
	query := `
		SELECT id, guest_id, created_at, last_seen_at, is_active
		FROM guest_sessions
		WHERE guest_id = ?
	`
	return scanGuest(r.db.QueryRowContext(ctx, query, guestID))
}

func scanGuest(row *sql.Row) (*models.GuestSession, error) {
	g := &models.GuestSession{}
	err := row.Scan(&g.ID, &g.GuestID, &g.CreatedAt, &g.LastSeenAt, &g.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get guest session: %w", err)
	}
	return g, nil
}

// Touch records guest activity
func (r *GuestRepository) Touch(ctx context.Context, id int64, now time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE guest_sessions SET last_seen_at = ? WHERE id = ? AND is_active = TRUE", now, id); err != nil {
		return fmt.Errorf("failed to touch guest session: %w", err)
	}
	return nil
}

// Deactivate retires an active guest session. It reports whether this call
// performed the transition, which makes it the serialisation point for
// concurrent reconciliations.
func (r *GuestRepository) Deactivate(ctx context.Context, guestID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE guest_sessions SET is_active = FALSE WHERE guest_id = ? AND is_active = TRUE", guestID)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate guest session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to deactivate guest session: %w", err)
	}
	return n == 1, nil
}

// RetireInactive deactivates guest sessions not seen since cutoff
func (r *GuestRepository) RetireInactive(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE guest_sessions SET is_active = FALSE WHERE is_active = TRUE AND last_seen_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to retire guest sessions: %w", err)
	}
	return res.RowsAffected()
}

// DeleteRetired removes inactive guest sessions not seen since cutoff that
// no longer own any result or test session
func (r *GuestRepository) DeleteRetired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM guest_sessions
		WHERE is_active = FALSE
			AND last_seen_at < ?
			AND NOT EXISTS (SELECT 1 FROM test_results tr WHERE tr.guest_session_id = guest_sessions.id)
			AND NOT EXISTS (SELECT 1 FROM test_sessions ts WHERE ts.guest_session_id = guest_sessions.id)
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete guest sessions: %w", err)
	}
	return res.RowsAffected()
}
