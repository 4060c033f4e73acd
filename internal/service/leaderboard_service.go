package service

import (
	"context"
	"time"

	"typeracer/internal/database"
	"typeracer/internal/models"
	"typeracer/internal/repository"
	"typeracer/internal/validation"
)

// LeaderboardQuery selects a page of the ranking
type LeaderboardQuery struct {
	Page       int
	Limit      int
	Timeframe  string
	Difficulty string
}

// LeaderboardPage is one page of ranked users
type LeaderboardPage struct {
	Entries    []models.LeaderboardEntry `json:"leaderboard"`
	Pagination models.Pagination         `json:"pagination"`
	UserRank   int                       `json:"userRank,omitempty"`
	Timeframe  models.Timeframe          `json:"timeframe"`
}

// HistoryPage is one page of a caller's results
type HistoryPage struct {
	Results    []models.HistoryEntry `json:"results"`
	Pagination models.Pagination     `json:"pagination"`
}

// LeaderboardService serves the read side: rankings, history and totals
type LeaderboardService struct {
	board   *repository.LeaderboardRepository
	history *repository.HistoryRepository
	now     func() time.Time
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(board *repository.LeaderboardRepository, history *repository.HistoryRepository) *LeaderboardService {
	return &LeaderboardService{board: board, history: history, now: database.Now}
}

func (s *LeaderboardService) filter(timeframe, difficulty string) (models.Timeframe, repository.LeaderboardFilter, error) {
	tf, ok := models.ParseTimeframe(timeframe)
	if !ok {
		return "", repository.LeaderboardFilter{}, validation.ValidationError{Field: "timeframe", Message: "timeframe must be all, today, week, or month"}
	}
	if difficulty != "" && !models.IsValidDifficulty(difficulty) {
		return "", repository.LeaderboardFilter{}, validation.ValidationError{Field: "difficulty", Message: "difficulty must be easy, medium, or hard"}
	}
	return tf, repository.LeaderboardFilter{Since: tf.Since(s.now()), Difficulty: difficulty}, nil
}

// GetLeaderboard returns a ranked page. When userID is set the caller's own
// rank under the same filter is included.
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, q LeaderboardQuery, userID int64) (*LeaderboardPage, error) {
	tf, f, err := s.filter(q.Timeframe, q.Difficulty)
	if err != nil {
		return nil, err
	}
	page, limit := models.NormalizePage(q.Page, q.Limit)

	total, err := s.board.CountRanked(ctx, f)
	if err != nil {
		return nil, err
	}
	entries, err := s.board.GetLeaderboard(ctx, f, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	out := &LeaderboardPage{
		Entries:    entries,
		Pagination: models.NewPagination(page, limit, total),
		Timeframe:  tf,
	}
	if userID > 0 {
		if out.UserRank, err = s.board.GetUserRank(ctx, userID, f); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GetUserRank returns the all-time rank of a user, or 0 when unranked
func (s *LeaderboardService) GetUserRank(ctx context.Context, userID int64, timeframe, difficulty string) (int, error) {
	_, f, err := s.filter(timeframe, difficulty)
	if err != nil {
		return 0, err
	}
	return s.board.GetUserRank(ctx, userID, f)
}

// GetGlobalStats returns site-wide totals
func (s *LeaderboardService) GetGlobalStats(ctx context.Context) (*models.GlobalStats, error) {
	return s.board.GetGlobalStats(ctx)
}

// GetUserHistory returns a user's results, newest first
func (s *LeaderboardService) GetUserHistory(ctx context.Context, userID int64, page, limit int, timeframe string) (*HistoryPage, error) {
	tf, ok := models.ParseTimeframe(timeframe)
	if !ok {
		return nil, validation.ValidationError{Field: "timeframe", Message: "timeframe must be all, today, week, or month"}
	}
	return s.historyPage(ctx, models.UserOwner(userID), tf.Since(s.now()), page, limit)
}

// GetGuestHistory returns the results recorded by a guest session
func (s *LeaderboardService) GetGuestHistory(ctx context.Context, guestSessionID int64, page, limit int) (*HistoryPage, error) {
	return s.historyPage(ctx, models.GuestOwner(guestSessionID), time.Time{}, page, limit)
}

func (s *LeaderboardService) historyPage(ctx context.Context, owner models.Owner, since time.Time, page, limit int) (*HistoryPage, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	page, limit = models.NormalizePage(page, limit)
	results, total, err := s.history.GetHistory(ctx, owner, since, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.HistoryEntry{}
	}
	return &HistoryPage{Results: results, Pagination: models.NewPagination(page, limit, total)}, nil
}
