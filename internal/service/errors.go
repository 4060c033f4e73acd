package service

import (
	"errors"

	"typeracer/internal/scoring"
)

var (
	ErrNoTextAvailable         = errors.New("no text available for the specified criteria")
	ErrInvalidOwner            = errors.New("session must belong to exactly one user or guest")
	ErrInvalidOrExpiredSession = errors.New("invalid or expired session token")
	ErrDurationMismatch        = errors.New("duration mismatch with session")
	ErrGuestSessionNotFound    = errors.New("guest session not found")
	ErrInvalidDuration         = errors.New("duration must be between 15 and 120 seconds")
	ErrTextNotFound            = errors.New("text not found")

	ErrUsernameTaken       = errors.New("username already taken")
	ErrEmailTaken          = errors.New("email already taken")
	ErrInvalidCredentials  = errors.New("invalid username/email or password")
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	ErrUserNotFound        = errors.New("user not found")
)

// ErrInvalidMetrics is the scoring error, re-exported for callers of the services
var ErrInvalidMetrics = scoring.ErrInvalidMetrics
