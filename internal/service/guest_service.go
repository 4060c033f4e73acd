package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"typeracer/internal/database"
	"typeracer/internal/metrics"
	"typeracer/internal/models"
	"typeracer/internal/repository"
	"typeracer/internal/security"
)

// ReconcileOutcome reports how many guest results moved to the user
type ReconcileOutcome struct {
	ClaimedCount int
}

// GuestService manages anonymous sessions and merges them into user accounts
type GuestService struct {
	db      *database.DB
	guests  *repository.GuestRepository
	results *repository.ResultRepository
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewGuestService creates a new guest service
func NewGuestService(db *database.DB, guests *repository.GuestRepository, results *repository.ResultRepository, logger *zap.Logger, m *metrics.Metrics) *GuestService {
	return &GuestService{
		db:      db,
		guests:  guests,
		results: results,
		logger:  logger,
		metrics: m,
		now:     database.Now,
	}
}

// Create starts a new guest session with a random uuid
func (s *GuestService) Create(ctx context.Context) (*models.GuestSession, error) {
	return s.guests.CreateGuestSession(ctx, security.GenerateSessionID(), s.now())
}

// Resolve returns the active guest session for a cookie value and records
// activity. An unknown or retired guest yields nil.
func (s *GuestService) Resolve(ctx context.Context, guestID string) (*models.GuestSession, error) {
	if guestID == "" {
		return nil, nil
	}
	guest, err := s.guests.GetActiveByGuestID(ctx, guestID)
	if err != nil || guest == nil {
		return nil, err
	}
	now := s.now()
	if err := s.guests.Touch(ctx, guest.ID, now); err != nil {
		return nil, err
	}
	guest.LastSeenAt = now
	return guest, nil
}

// Reconcile retires the guest session and moves all of its results to userID
// in one transaction. Deactivation comes first, so of several concurrent
// calls for the same guest only one proceeds; the rest see
// ErrGuestSessionNotFound.
func (s *GuestService) Reconcile(ctx context.Context, guestID string, userID int64) (*ReconcileOutcome, error) {
	if guestID == "" {
		return nil, ErrGuestSessionNotFound
	}
	if userID <= 0 {
		return nil, ErrInvalidOwner
	}

	var claimed int64
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		guests := s.guests.WithTx(tx)

		ok, err := guests.Deactivate(ctx, guestID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrGuestSessionNotFound
		}

		guest, err := guests.GetByGuestID(ctx, guestID)
		if err != nil {
			return err
		}
		if guest == nil {
			return ErrGuestSessionNotFound
		}

		claimed, err = s.results.WithTx(tx).ReassignGuestResults(ctx, guest.ID, userID)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrGuestSessionNotFound) {
			s.metrics.Reconciliations.WithLabelValues("not_found").Inc()
			return nil, err
		}
		s.metrics.Reconciliations.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to reconcile guest session: %w", err)
	}

	s.metrics.Reconciliations.WithLabelValues("ok").Inc()
	s.logger.Info("guest session reconciled",
		zap.Int64("user_id", userID),
		zap.Int64("claimed", claimed),
	)
	return &ReconcileOutcome{ClaimedCount: int(claimed)}, nil
}

// ReconcileOnAuth is the best-effort merge run after login or registration.
// It never fails: a missing guest claims nothing and other errors are logged.
func (s *GuestService) ReconcileOnAuth(ctx context.Context, guestID string, userID int64) int {
	if guestID == "" {
		return 0
	}
	outcome, err := s.Reconcile(ctx, guestID, userID)
	if errors.Is(err, ErrGuestSessionNotFound) {
		return 0
	}
	if err != nil {
		s.logger.Error("guest reconciliation failed", zap.Int64("user_id", userID), zap.Error(err))
		return 0
	}
	return outcome.ClaimedCount
}
