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

// UserRepository handles database operations for users
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new user repository
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *UserRepository) WithTx(tx *database.Tx) *UserRepository {
	return &UserRepository{db: tx}
}

const userColumns = `id, username, email, password_hash, COALESCE(avatar_url, ''), best_wpm, avg_wpm, total_tests, is_active, created_at, updated_at`

// CreateUser inserts a new user with empty stats
func (r *UserRepository) CreateUser(ctx context.Context, username, email, passwordHash string, now time.Time) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash, best_wpm, avg_wpm, total_tests, is_active, created_at, updated_at)
		VALUES (?, ?, ?, 0, 0, 0, TRUE, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query, username, email, passwordHash, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &models.User{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// GetUserByID retrieves an active user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ? AND is_active = TRUE`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetUserByLogin retrieves an active user by username or email
func (r *UserRepository) GetUserByLogin(ctx context.Context, identifier string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE (username = ? OR email = ?) AND is_active = TRUE`
	return r.scanUser(r.db.QueryRowContext(ctx, query, identifier, identifier))
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.AvatarURL,
		&user.Stats.BestWPM,
		&user.Stats.AvgWPM,
		&user.Stats.TotalTests,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UsernameExists reports whether the username is taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM users WHERE username = ?", username)
}

// EmailExists reports whether the email is taken
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email)
}

func (r *UserRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return count > 0, nil
}

// ApplyResultStats folds one result into the user's rolling stats.
// best_wpm moves through a compare-and-swap, so isNewRecord is true only for
// the submission that actually raised it. The running mean and count update
// in one statement and cannot lose a concurrent increment.
func (r *UserRepository) ApplyResultStats(ctx context.Context, userID int64, wpm float64, now time.Time) (isNewRecord bool, err error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET best_wpm = ? WHERE id = ? AND best_wpm < ?",
		wpm, userID, wpm)
	if err != nil {
		return false, fmt.Errorf("failed to update best wpm: %w", err)
	}
	raised, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update best wpm: %w", err)
	}

	res, err = r.db.ExecContext(ctx, `
		UPDATE users
		SET avg_wpm = (avg_wpm * total_tests + ?) / (total_tests + 1),
			total_tests = total_tests + 1,
			updated_at = ?
		WHERE id = ?
	`, wpm, now, userID)
	if err != nil {
		return false, fmt.Errorf("failed to update average wpm: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update average wpm: %w", err)
	}
	if n == 0 {
		return false, fmt.Errorf("failed to update stats: user %d not found", userID)
	}

	return raised == 1, nil
}
