package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"typeracer/internal/service"
)

// LeaderboardHandler serves rankings and site statistics
type LeaderboardHandler struct {
	leaderboardService *service.LeaderboardService
	logger             *zap.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboardService *service.LeaderboardService, logger *zap.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService, logger: logger}
}

// GetLeaderboard returns a page of the ranking, with the caller's rank when signed in
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	q := service.LeaderboardQuery{
		Page:       page,
		Limit:      limit,
		Timeframe:  r.URL.Query().Get("timeframe"),
		Difficulty: r.URL.Query().Get("difficulty"),
	}

	var userID int64
	if user := GetUserFromContext(r.Context()); user != nil {
		userID = user.ID
	}

	board, err := h.leaderboardService.GetLeaderboard(r.Context(), q, userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to get leaderboard", err)
		return
	}
	respondJSON(w, http.StatusOK, "", board)
}

// GetUserRank returns the caller's rank
func (h *LeaderboardHandler) GetUserRank(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondJSON(w, http.StatusUnauthorized, ErrUnauthorized, nil)
		return
	}

	rank, err := h.leaderboardService.GetUserRank(r.Context(), user.ID,
		r.URL.Query().Get("timeframe"), r.URL.Query().Get("difficulty"))
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to get user rank", err)
		return
	}
	respondJSON(w, http.StatusOK, "", map[string]interface{}{
		"rank":  rank,
		"stats": user.Stats,
	})
}

// GetGlobalStats returns site-wide totals
func (h *LeaderboardHandler) GetGlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.leaderboardService.GetGlobalStats(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to get global stats", err)
		return
	}
	respondJSON(w, http.StatusOK, "", stats)
}
