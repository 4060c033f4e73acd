package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"typeracer/internal/security"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	Ready    bool
	Current  string
	Progress int
	Steps    []StartupStep
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepSeedTexts  = "Seeding default texts"
	StepServices   = "Initializing services"
	StepScheduler  = "Starting retention sweeps"
	StepReady      = "Server ready"
)

var startupStatus = newStartupStatus()

func newStartupStatus() *StartupStatus {
	names := []string{StepDatabase, StepMigrations, StepSeedTexts, StepServices, StepScheduler, StepReady}
	steps := make([]StartupStep, len(names))
	for i, name := range names {
		steps[i] = StartupStep{Name: name}
	}
	return &StartupStatus{Current: "Initializing...", Steps: steps}
}

// SetCurrentStep updates the current initialization step
func SetCurrentStep(step string) {
	startupStatus.mu.Lock()
	defer startupStatus.mu.Unlock()
	startupStatus.Current = step
}

// CompleteStep marks a step as completed and updates progress
func CompleteStep(stepName string) {
	startupStatus.mu.Lock()
	defer startupStatus.mu.Unlock()

	completed := 0
	for i := range startupStatus.Steps {
		if startupStatus.Steps[i].Name == stepName {
			startupStatus.Steps[i].Completed = true
		}
		if startupStatus.Steps[i].Completed {
			completed++
		}
	}
	startupStatus.Progress = (completed * 100) / len(startupStatus.Steps)
}

// MarkReady marks the server as fully initialized
func MarkReady() {
	startupStatus.mu.Lock()
	defer startupStatus.mu.Unlock()
	for i := range startupStatus.Steps {
		startupStatus.Steps[i].Completed = true
	}
	startupStatus.Ready = true
	startupStatus.Current = StepReady
	startupStatus.Progress = 100
}

// IsReady returns whether the server is fully initialized
func IsReady() bool {
	startupStatus.mu.RLock()
	defer startupStatus.mu.RUnlock()
	return startupStatus.Ready
}

func startupSnapshot() map[string]interface{} {
	startupStatus.mu.RLock()
	defer startupStatus.mu.RUnlock()
	steps := make([]StartupStep, len(startupStatus.Steps))
	copy(steps, startupStatus.Steps)
	return map[string]interface{}{
		"ready":    startupStatus.Ready,
		"current":  startupStatus.Current,
		"progress": startupStatus.Progress,
		"steps":    steps,
	}
}

// Pinger reports whether the database is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler serves health and CSRF endpoints
type SystemHandler struct {
	db     Pinger
	csrf   *security.CSRFGenerator
	logger *zap.Logger
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(db Pinger, csrf *security.CSRFGenerator, logger *zap.Logger) *SystemHandler {
	return &SystemHandler{db: db, csrf: csrf, logger: logger}
}

// Health reports startup progress until the server is ready, then database reachability
func (h *SystemHandler) Health(w http.ResponseWriter, r *http.Request) {
	if !IsReady() {
		respondJSON(w, http.StatusServiceUnavailable, "Server starting", startupSnapshot())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("health check failed", zap.Error(err))
		respondJSON(w, http.StatusServiceUnavailable, "Database unavailable", nil)
		return
	}

	respondJSON(w, http.StatusOK, "Server is running", map[string]interface{}{
		"timestamp": time.Now().UTC(),
	})
}

// CSRFToken sets a fresh csrf_id cookie and returns the matching token
func (h *SystemHandler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	csrfID := security.GenerateSessionID()
	token, err := h.csrf.GenerateToken(csrfID)
	if err != nil {
		respondWithError(w, h.logger, http.StatusInternalServerError, "Failed to generate CSRF token", "", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, CSRFCookieName, csrfID, "/", time.Hour))
	respondJSON(w, http.StatusOK, "", map[string]string{"csrfToken": token})
}
