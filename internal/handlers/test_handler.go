package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"typeracer/internal/scoring"
	"typeracer/internal/security"
	"typeracer/internal/service"
	"typeracer/internal/validation"
)

// TestHandler serves the typing test lifecycle
type TestHandler struct {
	typingService      *service.TypingService
	leaderboardService *service.LeaderboardService
	guestCookieMaxAge  time.Duration
	logger             *zap.Logger
}

// NewTestHandler creates a new test handler
func NewTestHandler(typingService *service.TypingService, leaderboardService *service.LeaderboardService, guestCookieMaxAge time.Duration, logger *zap.Logger) *TestHandler {
	return &TestHandler{
		typingService:      typingService,
		leaderboardService: leaderboardService,
		guestCookieMaxAge:  guestCookieMaxAge,
		logger:             logger,
	}
}

// GetText picks a text and issues the session token that authorises one submission
func (h *TestHandler) GetText(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	duration := 0
	if raw := q.Get("duration"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, "duration must be a number", nil)
			return
		}
		duration = n
	}

	assignment, err := h.typingService.GetTestAssignment(r.Context(), identityFromContext(r.Context()),
		q.Get("language"), q.Get("difficulty"), duration, fingerprint(r))
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to assign test", err)
		return
	}

	respondJSON(w, http.StatusOK, "", assignment)
}

type submitRequest struct {
	SessionToken    string   `json:"sessionToken"`
	WPM             *float64 `json:"wpm"`
	RawWPM          *float64 `json:"rawWpm"`
	Accuracy        *float64 `json:"accuracy"`
	CorrectChars    int      `json:"correctChars"`
	IncorrectChars  int      `json:"incorrectChars"`
	TotalChars      int      `json:"totalChars"`
	DurationSeconds int      `json:"durationSeconds"`
	TextSnippet     string   `json:"textSnippet"`
}

func (req submitRequest) submission() service.Submission {
	sub := service.Submission{
		Counters: scoring.Counters{
			CorrectChars:    req.CorrectChars,
			IncorrectChars:  req.IncorrectChars,
			TotalChars:      req.TotalChars,
			DurationSeconds: req.DurationSeconds,
		},
		TextSnippet: req.TextSnippet,
	}
	if req.WPM != nil && req.RawWPM != nil && req.Accuracy != nil {
		sub.Declared = &scoring.Metrics{WPM: *req.WPM, RawWPM: *req.RawWPM, Accuracy: *req.Accuracy}
	}
	return sub
}

// SubmitResult consumes the session token and records the scored result
func (h *TestHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrInvalidJSON, nil)
		return
	}
	if req.SessionToken == "" {
		respondWithServiceError(w, h.logger, "", validation.ValidationError{Field: "sessionToken", Message: "session token is required"})
		return
	}

	submitted, err := h.typingService.SubmitResult(r.Context(), req.SessionToken,
		identityFromContext(r.Context()), req.submission(), fingerprint(r))
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to submit result", err)
		return
	}

	respondJSON(w, http.StatusCreated, "Test result submitted successfully", submitted)
}

// EnsureGuestSession returns the caller's guest session, creating one when
// the caller is neither signed in nor already a guest
func (h *TestHandler) EnsureGuestSession(w http.ResponseWriter, r *http.Request) {
	if GetUserFromContext(r.Context()) != nil {
		respondJSON(w, http.StatusOK, "User is authenticated", map[string]interface{}{"isGuest": false})
		return
	}

	if guest := GetGuestFromContext(r.Context()); guest != nil {
		respondJSON(w, http.StatusOK, "Guest session exists", map[string]interface{}{"isGuest": true, "guestId": guest.GuestID})
		return
	}

	guest, err := h.typingService.CreateGuestSession(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to create guest session", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, GuestCookieName, guest.GuestID, "/", h.guestCookieMaxAge))
	respondJSON(w, http.StatusOK, "Guest session created", map[string]interface{}{"isGuest": true, "guestId": guest.GuestID})
}

// GetHistory returns the signed-in user's results
func (h *TestHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondJSON(w, http.StatusUnauthorized, ErrUnauthorized, nil)
		return
	}

	page, limit := pageParams(r)
	history, err := h.leaderboardService.GetUserHistory(r.Context(), user.ID, page, limit, r.URL.Query().Get("timeframe"))
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to get history", err)
		return
	}
	respondJSON(w, http.StatusOK, "", history)
}

// GetGuestHistory returns the results of the caller's guest session
func (h *TestHandler) GetGuestHistory(w http.ResponseWriter, r *http.Request) {
	guest := GetGuestFromContext(r.Context())
	if guest == nil {
		respondJSON(w, http.StatusUnauthorized, "Guest session required", nil)
		return
	}

	page, limit := pageParams(r)
	history, err := h.leaderboardService.GetGuestHistory(r.Context(), guest.ID, page, limit)
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to get guest history", err)
		return
	}
	respondJSON(w, http.StatusOK, "", history)
}

// pageParams reads page and limit; bad values fall back to defaults
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}
