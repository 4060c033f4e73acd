package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"typeracer/internal/config"
	"typeracer/internal/database"
	"typeracer/internal/handlers"
	"typeracer/internal/logging"
	"typeracer/internal/metrics"
	"typeracer/internal/repository"
	"typeracer/internal/scheduler"
	"typeracer/internal/security"
	"typeracer/internal/service"
)

// swapHandler serves a bootstrap handler until the full API is mounted
type swapHandler struct {
	current atomic.Pointer[http.Handler]
}

func (s *swapHandler) set(h http.Handler) {
	s.current.Store(&h)
}

func (s *swapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*s.current.Load()).ServeHTTP(w, r)
}

// retentionJob runs the retention sweep and prunes idle rate limit visitors.
// The sweep logs its own row counts.
func retentionJob(sweep *service.SweepService, limiters handlers.Limiters, logger *zap.Logger) scheduler.Job {
	return func(ctx context.Context) error {
		if _, err := sweep.Run(ctx); err != nil {
			return err
		}
		pruned := limiters.Text.Cleanup() + limiters.Submit.Cleanup() + limiters.Auth.Cleanup()
		logger.Debug("rate limit visitors pruned", zap.Int("count", pruned))
		return nil
	}
}

func main() {
	cfg := config.Load()

	logger := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.IsDevelopment() {
		if cfg.JWTAccessSecret == "" {
			cfg.JWTAccessSecret = "dev-access-secret"
		}
		if cfg.CSRFSecret == "" {
			cfg.CSRFSecret = "dev-csrf-secret"
		}
		logger.Warn("using development secrets")
	}
	if err := security.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Fatal("invalid TRUSTED_PROXIES", zap.Error(err))
	}

	// Health reports progress while the rest of startup runs
	root := &swapHandler{}
	bootstrap := http.NewServeMux()
	bootstrap.HandleFunc("GET /health", handlers.NewSystemHandler(nil, nil, logger).Health)
	root.set(bootstrap)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", addr), zap.String("env", cfg.Environment))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	ctx := context.Background()

	handlers.SetCurrentStep(handlers.StepDatabase)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	handlers.CompleteStep(handlers.StepDatabase)
	logger.Info("database connection established", zap.String("type", cfg.DatabaseType))

	handlers.SetCurrentStep(handlers.StepMigrations)
	if err := db.RunMigrations(ctx); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	handlers.CompleteStep(handlers.StepMigrations)

	m := metrics.New()

	userRepo := repository.NewUserRepository(db)
	textRepo := repository.NewTextRepository(db)
	sessionRepo := repository.NewTestSessionRepository(db)
	guestRepo := repository.NewGuestRepository(db)
	resultRepo := repository.NewResultRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)

	textService := service.NewTextService(db, textRepo, logger)

	handlers.SetCurrentStep(handlers.StepSeedTexts)
	if cfg.SeedDefaultTexts {
		if err := textService.SeedDefaultTexts(ctx); err != nil {
			logger.Fatal("failed to seed default texts", zap.Error(err))
		}
	}
	handlers.CompleteStep(handlers.StepSeedTexts)

	handlers.SetCurrentStep(handlers.StepServices)
	sessionService := service.NewSessionService(db, sessionRepo, logger, m, service.SessionOptions{
		TTL:               cfg.TestSessionTTL,
		StrictFingerprint: cfg.StrictFingerprint,
	})
	resultService := service.NewResultService(db, userRepo, resultRepo, logger, m, cfg.StrictMetrics)
	guestService := service.NewGuestService(db, guestRepo, resultRepo, logger, m)
	typingService := service.NewTypingService(textService, sessionService, resultService, guestService)
	authService := service.NewAuthService(userRepo, refreshRepo, guestService,
		security.NewTokenIssuer(cfg.JWTAccessSecret, cfg.AccessTokenTTL), cfg.RefreshTokenTTL, logger)
	leaderboardService := service.NewLeaderboardService(
		repository.NewLeaderboardRepository(db.Sqlx()),
		repository.NewHistoryRepository(db.Sqlx()),
	)
	sweepService := service.NewSweepService(sessionRepo, guestRepo, refreshRepo, service.RetentionPolicy{
		SessionGrace:  cfg.TestSessionGrace,
		GuestInactive: cfg.GuestInactiveAge,
		GuestDelete:   cfg.GuestDeleteAge,
	}, logger, m)

	csrf := security.NewCSRFGenerator(cfg.CSRFSecret)
	limiters := handlers.Limiters{
		Text:   security.NewRateLimiter(cfg.RateLimitTextPerMinute, time.Minute),
		Submit: security.NewRateLimiter(cfg.RateLimitSubmitPerMinute, time.Minute),
		Auth:   security.NewRateLimiter(cfg.RateLimitAuthPerMinute, time.Minute),
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, handlers.Handlers{
		Middleware:  handlers.NewMiddleware(authService, guestService, csrf, logger),
		Limiters:    limiters,
		System:      handlers.NewSystemHandler(db, csrf, logger),
		Tests:       handlers.NewTestHandler(typingService, leaderboardService, cfg.GuestCookieMaxAge, logger),
		Auth:        handlers.NewAuthHandler(authService, logger),
		Leaderboard: handlers.NewLeaderboardHandler(leaderboardService, logger),
		Metrics:     m.Handler(),
	})
	handlers.CompleteStep(handlers.StepServices)

	handlers.SetCurrentStep(handlers.StepScheduler)
	jobs := scheduler.New(logger)
	err = jobs.Every(cfg.SweepInterval, "retention-sweep", retentionJob(sweepService, limiters, logger))
	if err != nil {
		logger.Fatal("failed to schedule retention sweep", zap.Error(err))
	}
	jobs.Start()
	defer jobs.Stop()
	handlers.CompleteStep(handlers.StepScheduler)

	root.set(m.Middleware(handlers.Logging(logger)(mux)))
	handlers.MarkReady()
	logger.Info("server ready", zap.String("addr", addr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
