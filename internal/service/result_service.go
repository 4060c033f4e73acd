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
)

// metricTolerance is how far client-declared metrics may drift from the server's
const metricTolerance = 0.5

// Submission is what a client reports after typing
type Submission struct {
	Counters    scoring.Counters
	Declared    *scoring.Metrics // optional client-side values
	TextSnippet string
}

// RecordOutcome is the result of recording a submission
type RecordOutcome struct {
	Result      *models.TestResult
	IsNewRecord bool
}

// ResultService persists scored results and maintains user stats
type ResultService struct {
	db            *database.DB
	users         *repository.UserRepository
	results       *repository.ResultRepository
	logger        *zap.Logger
	metrics       *metrics.Metrics
	strictMetrics bool
	now           func() time.Time
}

// NewResultService creates a new result service
func NewResultService(db *database.DB, users *repository.UserRepository, results *repository.ResultRepository, logger *zap.Logger, m *metrics.Metrics, strictMetrics bool) *ResultService {
	return &ResultService{
		db:            db,
		users:         users,
		results:       results,
		logger:        logger,
		metrics:       m,
		strictMetrics: strictMetrics,
		now:           database.Now,
	}
}

// Record scores the submission against the consumed session and stores it
// for the session's owner. For users, the result insert and the stats update
// commit together.
func (s *ResultService) Record(ctx context.Context, consumed *models.SessionContext, sub Submission) (*RecordOutcome, error) {
	if consumed == nil || !consumed.Owner.Valid() {
		return nil, ErrInvalidOwner
	}
	if sub.Counters.DurationSeconds != consumed.DurationSeconds {
		return nil, ErrDurationMismatch
	}

	computed, err := scoring.Compute(sub.Counters)
	if err != nil {
		return nil, err
	}
	if sub.Declared != nil {
		if dev := scoring.Deviation(computed, *sub.Declared); dev > metricTolerance {
			s.logger.Warn("declared metrics differ from computed",
				zap.Int64("session_id", consumed.SessionID),
				zap.Float64("declared_wpm", sub.Declared.WPM),
				zap.Float64("computed_wpm", computed.WPM),
				zap.Float64("deviation", dev),
			)
			if s.strictMetrics {
				return nil, fmt.Errorf("%w: declared metrics deviate by %.2f", ErrInvalidMetrics, dev)
			}
		}
	}

	now := s.now()
	result := &models.TestResult{
		Owner:           consumed.Owner,
		TestSessionID:   consumed.SessionID,
		WPM:             computed.WPM,
		RawWPM:          computed.RawWPM,
		Accuracy:        computed.Accuracy,
		CorrectChars:    sub.Counters.CorrectChars,
		IncorrectChars:  sub.Counters.IncorrectChars,
		TotalChars:      sub.Counters.TotalChars,
		DurationSeconds: sub.Counters.DurationSeconds,
		TextSnippet:     models.TrimSnippet(sub.TextSnippet),
		CreatedAt:       now,
	}

	var isNewRecord bool
	err = s.db.WithTx(ctx, func(tx *database.Tx) error {
		if err := s.results.WithTx(tx).CreateResult(ctx, result); err != nil {
			return err
		}
		if !consumed.Owner.IsUser() {
			return nil
		}
		var err error
		isNewRecord, err = s.users.WithTx(tx).ApplyResultStats(ctx, consumed.Owner.ID, result.WPM, now)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}

	s.metrics.ResultsRecorded.WithLabelValues(consumed.Owner.Kind.String()).Inc()
	if isNewRecord {
		s.metrics.PersonalBests.Inc()
	}
	s.logger.Info("test result recorded",
		zap.Int64("result_id", result.ID),
		zap.Int64("session_id", consumed.SessionID),
		zap.Stringer("owner", consumed.Owner),
		zap.Float64("wpm", result.WPM),
		zap.Bool("new_record", isNewRecord),
	)

	return &RecordOutcome{Result: result, IsNewRecord: isNewRecord}, nil
}
