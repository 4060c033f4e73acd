package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"typeracer/internal/database"
	"typeracer/internal/database/dbtest"
	"typeracer/internal/metrics"
	"typeracer/internal/models"
	"typeracer/internal/repository"
	"typeracer/internal/scoring"
	"typeracer/internal/security"
)

const testPassword = "Secret-pass1"

type testEnv struct {
	db       *database.DB
	metrics  *metrics.Metrics
	users    *repository.UserRepository
	texts    *TextService
	sessions *SessionService
	results  *ResultService
	guests   *GuestService
	typing   *TypingService
	auth     *AuthService
	board    *LeaderboardService
	sweep    *SweepService
}

type envOption func(*SessionOptions, *bool)

func withStrictFingerprint() envOption {
	return func(o *SessionOptions, _ *bool) { o.StrictFingerprint = true }
}

func withStrictMetrics() envOption {
	return func(_ *SessionOptions, strict *bool) { *strict = true }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db := dbtest.Open(t)
	logger := zaptest.NewLogger(t)
	m := metrics.New()

	sessionOpts := SessionOptions{TTL: 10 * time.Minute}
	strictMetrics := false
	for _, opt := range opts {
		opt(&sessionOpts, &strictMetrics)
	}

	users := repository.NewUserRepository(db)
	textRepo := repository.NewTextRepository(db)
	sessionRepo := repository.NewTestSessionRepository(db)
	guestRepo := repository.NewGuestRepository(db)
	resultRepo := repository.NewResultRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)

	texts := NewTextService(db, textRepo, logger)
	sessions := NewSessionService(db, sessionRepo, logger, m, sessionOpts)
	results := NewResultService(db, users, resultRepo, logger, m, strictMetrics)
	guests := NewGuestService(db, guestRepo, resultRepo, logger, m)

	env := &testEnv{
		db:       db,
		metrics:  m,
		users:    users,
		texts:    texts,
		sessions: sessions,
		results:  results,
		guests:   guests,
		typing:   NewTypingService(texts, sessions, results, guests),
		auth: NewAuthService(users, refreshRepo, guests,
			security.NewTokenIssuer("test-secret", 15*time.Minute), 24*time.Hour, logger),
		board: NewLeaderboardService(
			repository.NewLeaderboardRepository(db.Sqlx()),
			repository.NewHistoryRepository(db.Sqlx()),
		),
		sweep: NewSweepService(sessionRepo, guestRepo, refreshRepo, RetentionPolicy{
			SessionGrace:  time.Hour,
			GuestInactive: 30 * 24 * time.Hour,
			GuestDelete:   90 * 24 * time.Hour,
		}, logger, m),
	}

	if err := texts.SeedDefaultTexts(context.Background()); err != nil {
		t.Fatalf("SeedDefaultTexts() error = %v", err)
	}
	return env
}

func (e *testEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user, err := e.users.CreateUser(context.Background(), username, username+"@example.com", "x", database.Now())
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	return user
}

func (e *testEnv) createGuest(t *testing.T) *models.GuestSession {
	t.Helper()
	guest, err := e.guests.Create(context.Background())
	if err != nil {
		t.Fatalf("guests.Create() error = %v", err)
	}
	return guest
}

// counters builds a valid submission that scores exactly wpm with no errors
func counters(wpm, duration int) scoring.Counters {
	correct := wpm * 5 * duration / 60
	return scoring.Counters{
		CorrectChars:    correct,
		TotalChars:      correct,
		DurationSeconds: duration,
	}
}

var testFingerprint = models.Fingerprint{IP: "203.0.113.7", UserAgent: "test-agent/1.0"}

// takeTest issues a session for id and submits a result scoring wpm
func (e *testEnv) takeTest(t *testing.T, id Identity, wpm int) *Submitted {
	t.Helper()
	ctx := context.Background()

	a, err := e.typing.GetTestAssignment(ctx, id, "en", "medium", 60, testFingerprint)
	if err != nil {
		t.Fatalf("GetTestAssignment() error = %v", err)
	}
	s, err := e.typing.SubmitResult(ctx, a.SessionToken, id, Submission{Counters: counters(wpm, 60)}, testFingerprint)
	if err != nil {
		t.Fatalf("SubmitResult() error = %v", err)
	}
	return s
}
