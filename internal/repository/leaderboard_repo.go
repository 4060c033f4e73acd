package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"typeracer/internal/models"
)

// LeaderboardFilter narrows the ranked result set
type LeaderboardFilter struct {
	Since      time.Time // zero means all time
	Difficulty string    // empty means any
}

func (f LeaderboardFilter) where() (string, []interface{}) {
	clauses := []string{"tr.user_id IS NOT NULL", "u.is_active = TRUE"}
	var args []interface{}
	if !f.Since.IsZero() {
		clauses = append(clauses, "tr.created_at >= ?")
		args = append(args, f.Since)
	}
	if f.Difficulty != "" {
		clauses = append(clauses, "tt.difficulty = ?")
		args = append(args, f.Difficulty)
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

const rankedFrom = `
	FROM test_results tr
	JOIN users u ON tr.user_id = u.id
	JOIN test_sessions ts ON tr.test_session_id = ts.id
	JOIN test_texts tt ON ts.test_text_id = tt.id
`

// rankOrder ranks by best speed, then accuracy, then recency. The user id
// makes ties deterministic so page ranks and UserRank agree.
const rankOrder = `MAX(tr.wpm) DESC, AVG(tr.accuracy) DESC, MAX(tr.created_at) DESC, tr.user_id ASC`

// LeaderboardRepository serves ranking read models through sqlx
type LeaderboardRepository struct {
	db *sqlx.DB
}

// NewLeaderboardRepository creates a new leaderboard repository
func NewLeaderboardRepository(db *sqlx.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// CountRanked returns the number of users with at least one matching result
func (r *LeaderboardRepository) CountRanked(ctx context.Context, f LeaderboardFilter) (int, error) {
	where, args := f.where()
	var total int
	query := r.db.Rebind(`SELECT COUNT(DISTINCT tr.user_id) ` + rankedFrom + where)
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count leaderboard: %w", err)
	}
	return total, nil
}

// GetLeaderboard returns one page of ranked users
func (r *LeaderboardRepository) GetLeaderboard(ctx context.Context, f LeaderboardFilter, limit, offset int) ([]models.LeaderboardEntry, error) {
	where, args := f.where()
	query := r.db.Rebind(`
		SELECT
			u.id, u.username, COALESCE(u.avatar_url, '') AS avatar_url,
			MAX(tr.wpm) AS best_wpm,
			AVG(tr.wpm) AS avg_wpm,
			COUNT(tr.id) AS total_tests,
			AVG(tr.accuracy) AS avg_accuracy
		` + rankedFrom + where + `
		GROUP BY tr.user_id, u.id, u.username, u.avatar_url
		ORDER BY ` + rankOrder + `
		LIMIT ? OFFSET ?
	`)
	args = append(args, limit, offset)

	entries := []models.LeaderboardEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}
	for i := range entries {
		entries[i].Rank = offset + i + 1
	}
	return entries, nil
}

// GetUserRank returns the 1-based rank of userID, or 0 when the user has no matching results
func (r *LeaderboardRepository) GetUserRank(ctx context.Context, userID int64, f LeaderboardFilter) (int, error) {
	where, args := f.where()
	query := r.db.Rebind(`
		SELECT ranked.rank_no
		FROM (
			SELECT tr.user_id, ROW_NUMBER() OVER (ORDER BY ` + rankOrder + `) AS rank_no
			` + rankedFrom + where + `
			GROUP BY tr.user_id
		) ranked
		WHERE ranked.user_id = ?
	`)
	args = append(args, userID)

	var rank int
	err := r.db.GetContext(ctx, &rank, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get user rank: %w", err)
	}
	return rank, nil
}

// GetGlobalStats summarises all stored activity
func (r *LeaderboardRepository) GetGlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE is_active = TRUE) AS total_users,
			(SELECT COUNT(*) FROM test_results) AS total_tests,
			(SELECT COUNT(*) FROM guest_sessions) AS total_guest_sessions,
			(SELECT COALESCE(AVG(wpm), 0) FROM test_results) AS avg_wpm,
			(SELECT COALESCE(MAX(wpm), 0) FROM test_results) AS best_wpm,
			(SELECT COALESCE(AVG(accuracy), 0) FROM test_results) AS avg_accuracy,
			(SELECT COUNT(*) FROM test_results WHERE duration_seconds = 15) AS tests_15s,
			(SELECT COUNT(*) FROM test_results WHERE duration_seconds = 30) AS tests_30s,
			(SELECT COUNT(*) FROM test_results WHERE duration_seconds = 60) AS tests_60s
	`
	var stats models.GlobalStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get global stats: %w", err)
	}
	return &stats, nil
}
