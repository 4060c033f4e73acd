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

// RefreshTokenRepository handles database operations for refresh tokens
type RefreshTokenRepository struct {
	db database.DBTX
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

// CreateToken stores a refresh token hash
func (r *RefreshTokenRepository) CreateToken(ctx context.Context, t *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, device_info, ip_address, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, t.UserID, t.TokenHash, t.DeviceInfo, t.IPAddress, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	t.ID = id
	return nil
}

// GetByHash retrieves a refresh token by its hash
func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, COALESCE(device_info, ''), COALESCE(ip_address, ''), expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = ?
	`
	var (
		t         models.RefreshToken
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&t.ID, &t.UserID, &t.TokenHash, &t.DeviceInfo, &t.IPAddress, &t.ExpiresAt, &revokedAt, &t.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}
	if revokedAt.Valid {
		rt := revokedAt.Time
		t.RevokedAt = &rt
	}
	return &t, nil
}

// Revoke marks a token revoked. Returns false if it was unknown or already revoked.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, "UPDATE refresh_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL", now, tokenHash)
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return n == 1, nil
}

// DeleteStale removes tokens that expired or were revoked before now
func (r *RefreshTokenRepository) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at < ? OR revoked_at IS NOT NULL", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale refresh tokens: %w", err)
	}
	return res.RowsAffected()
}
