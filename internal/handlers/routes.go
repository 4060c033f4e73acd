package handlers

import (
	"net/http"

	"typeracer/internal/security"
)

// Limiters are the per-IP budgets for the rate-limited routes
type Limiters struct {
	Text   *security.RateLimiter
	Submit *security.RateLimiter
	Auth   *security.RateLimiter
}

// Handlers groups everything RegisterRoutes mounts
type Handlers struct {
	Middleware  *Middleware
	Limiters    Limiters
	System      *SystemHandler
	Tests       *TestHandler
	Auth        *AuthHandler
	Leaderboard *LeaderboardHandler
	Metrics     http.Handler
}

// RegisterRoutes mounts the JSON API on mux
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	m := h.Middleware

	mux.HandleFunc("GET /health", h.System.Health)
	mux.Handle("GET /metrics", h.Metrics)
	mux.HandleFunc("GET /api/csrf-token", h.System.CSRFToken)

	// Typing tests
	mux.HandleFunc("POST /api/tests/guest-session", m.OptionalAuth(m.GuestSession(h.Tests.EnsureGuestSession)))
	mux.HandleFunc("GET /api/tests/texts", m.OptionalAuth(m.GuestSession(m.RateLimit(h.Limiters.Text, h.Tests.GetText))))
	mux.HandleFunc("POST /api/tests/submit", m.OptionalAuth(m.GuestSession(m.RateLimit(h.Limiters.Submit,
		m.CSRFProtect(m.RequireGuestOrAuth(h.Tests.SubmitResult))))))
	mux.HandleFunc("GET /api/tests/history", m.RequireAuth(h.Tests.GetHistory))
	mux.HandleFunc("GET /api/tests/guest-history", m.GuestSession(h.Tests.GetGuestHistory))

	// Auth
	mux.HandleFunc("POST /api/auth/register", m.GuestSession(m.RateLimit(h.Limiters.Auth, h.Auth.Register)))
	mux.HandleFunc("POST /api/auth/login", m.GuestSession(m.RateLimit(h.Limiters.Auth, h.Auth.Login)))
	mux.HandleFunc("POST /api/auth/refresh", h.Auth.Refresh)
	mux.HandleFunc("POST /api/auth/logout", h.Auth.Logout)
	mux.HandleFunc("GET /api/auth/me", m.RequireAuth(h.Auth.Me))

	// Leaderboard
	mux.HandleFunc("GET /api/leaderboard", m.OptionalAuth(h.Leaderboard.GetLeaderboard))
	mux.HandleFunc("GET /api/leaderboard/rank", m.RequireAuth(h.Leaderboard.GetUserRank))
	mux.HandleFunc("GET /api/leaderboard/stats", h.Leaderboard.GetGlobalStats)
}
