package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"typeracer/internal/database"
	"typeracer/internal/metrics"
	"typeracer/internal/repository"
)

// RetentionPolicy sets how long terminal rows are kept
type RetentionPolicy struct {
	SessionGrace  time.Duration // after expiry, for unconsumed test sessions
	GuestInactive time.Duration // without activity before a guest is retired
	GuestDelete   time.Duration // without activity before a retired guest is deleted
}

// SweepReport counts rows touched by one sweep
type SweepReport struct {
	ExpiredSessions int64
	RetiredGuests   int64
	DeletedGuests   int64
	RefreshTokens   int64
}

// SweepService removes rows that can no longer change state
type SweepService struct {
	sessions *repository.TestSessionRepository
	guests   *repository.GuestRepository
	refresh  *repository.RefreshTokenRepository
	policy   RetentionPolicy
	logger   *zap.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// NewSweepService creates a new sweep service
func NewSweepService(sessions *repository.TestSessionRepository, guests *repository.GuestRepository, refresh *repository.RefreshTokenRepository, policy RetentionPolicy, logger *zap.Logger, m *metrics.Metrics) *SweepService {
	return &SweepService{
		sessions: sessions,
		guests:   guests,
		refresh:  refresh,
		policy:   policy,
		logger:   logger,
		metrics:  m,
		now:      database.Now,
	}
}

// Run performs every sweep once. Each step is independent; the first error
// stops the run and the partial report is returned with it.
func (s *SweepService) Run(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	now := s.now()

	steps := []struct {
		kind string
		dst  *int64
		run  func() (int64, error)
	}{
		{"test_sessions", &report.ExpiredSessions, func() (int64, error) {
			return s.sessions.DeleteExpiredUnused(ctx, now.Add(-s.policy.SessionGrace))
		}},
		{"guests_retired", &report.RetiredGuests, func() (int64, error) {
			return s.guests.RetireInactive(ctx, now.Add(-s.policy.GuestInactive))
		}},
		{"guests_deleted", &report.DeletedGuests, func() (int64, error) {
			return s.guests.DeleteRetired(ctx, now.Add(-s.policy.GuestDelete))
		}},
		{"refresh_tokens", &report.RefreshTokens, func() (int64, error) {
			return s.refresh.DeleteStale(ctx, now)
		}},
	}

	for _, step := range steps {
		n, err := step.run()
		if err != nil {
			s.logger.Error("retention sweep failed", zap.String("kind", step.kind), zap.Error(err))
			return report, err
		}
		*step.dst = n
		s.metrics.SweepRows.WithLabelValues(step.kind).Add(float64(n))
	}

	s.logger.Info("retention sweep complete",
		zap.Int64("expired_sessions", report.ExpiredSessions),
		zap.Int64("retired_guests", report.RetiredGuests),
		zap.Int64("deleted_guests", report.DeletedGuests),
		zap.Int64("refresh_tokens", report.RefreshTokens),
	)
	return report, nil
}
