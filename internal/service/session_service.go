package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"typeracer/internal/database"
	"typeracer/internal/metrics"
	"typeracer/internal/models"
	"typeracer/internal/repository"
	"typeracer/internal/scoring"
	"typeracer/internal/security"
)

// SessionService issues single-use test session tokens and consumes them exactly once
type SessionService struct {
	db                *database.DB
	sessions          *repository.TestSessionRepository
	logger            *zap.Logger
	metrics           *metrics.Metrics
	ttl               time.Duration
	strictFingerprint bool
	now               func() time.Time
}

// SessionOptions configures a SessionService
type SessionOptions struct {
	TTL               time.Duration
	StrictFingerprint bool
}

// NewSessionService creates a new session service
func NewSessionService(db *database.DB, sessions *repository.TestSessionRepository, logger *zap.Logger, m *metrics.Metrics, opts SessionOptions) *SessionService {
	return &SessionService{
		db:                db,
		sessions:          sessions,
		logger:            logger,
		metrics:           m,
		ttl:               opts.TTL,
		strictFingerprint: opts.StrictFingerprint,
		now:               database.Now,
	}
}

// Issue binds a fresh token to the text, duration, owner and fingerprint.
// The returned token is the only copy; only its hash is stored.
func (s *SessionService) Issue(ctx context.Context, owner models.Owner, textID int64, durationSeconds int, fp models.Fingerprint) (*models.IssuedSession, error) {
	if !owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if !scoring.ValidDuration(durationSeconds) {
		return nil, ErrInvalidDuration
	}

	token, err := security.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session token: %w", err)
	}

	now := s.now()
	session := &models.TestSession{
		TokenHash:       security.HashToken(token),
		Owner:           owner,
		TextID:          textID,
		DurationSeconds: durationSeconds,
		IssuedAt:        now,
		ExpiresAt:       now.Add(s.ttl),
		IPAddress:       fp.IP,
		UserAgentHash:   hashUserAgent(fp.UserAgent),
	}
	id, err := s.sessions.CreateSession(ctx, session)
	if err != nil {
		return nil, err
	}

	s.metrics.SessionsIssued.Inc()
	s.logger.Debug("test session issued",
		zap.Int64("session_id", id),
		zap.Stringer("owner", owner),
		zap.Int64("text_id", textID),
		zap.Int("duration_seconds", durationSeconds),
	)

	return &models.IssuedSession{SessionID: id, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Consume atomically marks the session used and returns its bound context.
// Unknown, used and expired tokens all fail with ErrInvalidOrExpiredSession.
// A fingerprint mismatch is logged and, in strict mode, rejected without
// using up the token.
func (s *SessionService) Consume(ctx context.Context, token string, fp models.Fingerprint) (*models.SessionContext, error) {
	if token == "" {
		s.metrics.SessionsConsumed.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidOrExpiredSession
	}
	tokenHash := security.HashToken(token)

	var consumed *models.SessionContext
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		repo := s.sessions.WithTx(tx)

		ok, err := repo.MarkUsed(ctx, tokenHash, s.now())
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidOrExpiredSession
		}

		session, err := repo.GetByTokenHash(ctx, tokenHash)
		if err != nil {
			return err
		}
		if session == nil {
			return ErrInvalidOrExpiredSession
		}

		if mismatched := s.checkFingerprint(session, fp); mismatched && s.strictFingerprint {
			return ErrInvalidOrExpiredSession
		}

		consumed = &models.SessionContext{
			SessionID:       session.ID,
			TextID:          session.TextID,
			DurationSeconds: session.DurationSeconds,
			Owner:           session.Owner,
		}
		return nil
	})
	if err != nil {
		s.metrics.SessionsConsumed.WithLabelValues("rejected").Inc()
		return nil, err
	}

	s.metrics.SessionsConsumed.WithLabelValues("ok").Inc()
	return consumed, nil
}

func (s *SessionService) checkFingerprint(session *models.TestSession, fp models.Fingerprint) bool {
	ipMismatch := session.IPAddress != "" && session.IPAddress != fp.IP
	uaHash := hashUserAgent(fp.UserAgent)
	uaMismatch := session.UserAgentHash != "" && session.UserAgentHash != uaHash
	if !ipMismatch && !uaMismatch {
		return false
	}

	if ipMismatch {
		s.metrics.FingerprintMismatch.WithLabelValues("ip").Inc()
	}
	if uaMismatch {
		s.metrics.FingerprintMismatch.WithLabelValues("user_agent").Inc()
	}
	s.logger.Warn("test session fingerprint mismatch",
		zap.Int64("session_id", session.ID),
		zap.String("expected_ip", session.IPAddress),
		zap.String("actual_ip", fp.IP),
		zap.String("expected_ua_hash", session.UserAgentHash),
		zap.String("actual_ua_hash", uaHash),
		zap.Bool("strict", s.strictFingerprint),
	)
	return true
}

func hashUserAgent(ua string) string {
	if ua == "" {
		return ""
	}
	return security.HashString(ua)
}
