package service

import (
	"context"
	"time"

	"typeracer/internal/models"
	"typeracer/internal/scoring"
)

// DefaultDurationSeconds is used when a client does not ask for a duration
const DefaultDurationSeconds = 60

// Identity is who the HTTP layer resolved the caller to be.
// Zero fields mean absent.
type Identity struct {
	UserID         int64
	GuestSessionID int64
}

// Owner picks the owner for new sessions. An authenticated user wins over a
// guest cookie.
func (id Identity) Owner() (models.Owner, error) {
	switch {
	case id.UserID > 0:
		return models.UserOwner(id.UserID), nil
	case id.GuestSessionID > 0:
		return models.GuestOwner(id.GuestSessionID), nil
	}
	return models.Owner{}, ErrInvalidOwner
}

// Assignment is a text plus the token that authorises one submission for it
type Assignment struct {
	Text            *models.TestText `json:"text"`
	SessionToken    string           `json:"sessionToken"`
	DurationSeconds int              `json:"durationSeconds"`
	ExpiresAt       time.Time        `json:"expiresAt"`
}

// Submitted is the outcome of a successful submission
type Submitted struct {
	Result      *models.TestResult `json:"result"`
	IsNewRecord bool               `json:"isNewRecord"`
	IsGuest     bool               `json:"isGuest"`
}

// TypingService ties the test lifecycle together: pick a text, issue a
// session, consume it on submit, score and record
type TypingService struct {
	texts    *TextService
	sessions *SessionService
	results  *ResultService
	guests   *GuestService
}

// NewTypingService creates a new typing service
func NewTypingService(texts *TextService, sessions *SessionService, results *ResultService, guests *GuestService) *TypingService {
	return &TypingService{texts: texts, sessions: sessions, results: results, guests: guests}
}

// GetTestAssignment picks a text and issues a session for it
func (s *TypingService) GetTestAssignment(ctx context.Context, id Identity, language, difficulty string, durationSeconds int, fp models.Fingerprint) (*Assignment, error) {
	owner, err := id.Owner()
	if err != nil {
		return nil, err
	}
	if durationSeconds == 0 {
		durationSeconds = DefaultDurationSeconds
	}
	if !scoring.ValidDuration(durationSeconds) {
		return nil, ErrInvalidDuration
	}

	text, err := s.texts.PickText(ctx, language, difficulty)
	if err != nil {
		return nil, err
	}

	issued, err := s.sessions.Issue(ctx, owner, text.ID, durationSeconds, fp)
	if err != nil {
		return nil, err
	}

	return &Assignment{
		Text:            text,
		SessionToken:    issued.Token,
		DurationSeconds: durationSeconds,
		ExpiresAt:       issued.ExpiresAt,
	}, nil
}

// SubmitResult consumes the session token and records the scored result for
// the session's owner. The caller's identity only has to be present; the
// owner always comes from the session.
func (s *TypingService) SubmitResult(ctx context.Context, token string, id Identity, sub Submission, fp models.Fingerprint) (*Submitted, error) {
	if _, err := id.Owner(); err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrInvalidOrExpiredSession
	}
	// Reject malformed counters before the token is spent.
	if _, err := scoring.Compute(sub.Counters); err != nil {
		return nil, err
	}

	consumed, err := s.sessions.Consume(ctx, token, fp)
	if err != nil {
		return nil, err
	}

	outcome, err := s.results.Record(ctx, consumed, sub)
	if err != nil {
		return nil, err
	}

	return &Submitted{
		Result:      outcome.Result,
		IsNewRecord: outcome.IsNewRecord,
		IsGuest:     consumed.Owner.IsGuest(),
	}, nil
}

// CreateGuestSession starts a new anonymous session
func (s *TypingService) CreateGuestSession(ctx context.Context) (*models.GuestSession, error) {
	return s.guests.Create(ctx)
}

// ReconcileOnAuth moves a guest's results to the user who just signed in
func (s *TypingService) ReconcileOnAuth(ctx context.Context, guestID string, userID int64) int {
	return s.guests.ReconcileOnAuth(ctx, guestID, userID)
}
