package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"typeracer/internal/security"
)

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func resetStartupStatus(t *testing.T) {
	previous := startupStatus
	startupStatus = newStartupStatus()
	t.Cleanup(func() { startupStatus = previous })
}

func TestStartupProgress(t *testing.T) {
	resetStartupStatus(t)

	CompleteStep(StepDatabase)
	CompleteStep(StepMigrations)
	CompleteStep(StepMigrations)
	SetCurrentStep(StepSeedTexts)

	snap := startupSnapshot()
	if snap["progress"] != 33 {
		t.Errorf("progress = %v, want 33", snap["progress"])
	}
	if snap["current"] != StepSeedTexts {
		t.Errorf("current = %v, want %q", snap["current"], StepSeedTexts)
	}
	if IsReady() {
		t.Error("IsReady() = true before MarkReady")
	}

	MarkReady()
	if !IsReady() || startupSnapshot()["progress"] != 100 {
		t.Errorf("after MarkReady: %v", startupSnapshot())
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		ready  bool
		ping   error
		status int
	}{
		{"starting", false, nil, http.StatusServiceUnavailable},
		{"ready", true, nil, http.StatusOK},
		{"database down", true, errors.New("connection refused"), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetStartupStatus(t)
			if tt.ready {
				MarkReady()
			}
			h := NewSystemHandler(fakePinger{err: tt.ping}, security.NewCSRFGenerator("s"), zap.NewNop())

			rec := httptest.NewRecorder()
			h.Health(rec, httptest.NewRequest("GET", "/health", nil))
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}

func TestCSRFTokenMatchesCookie(t *testing.T) {
	csrf := security.NewCSRFGenerator("s")
	h := NewSystemHandler(fakePinger{}, csrf, zap.NewNop())

	rec := httptest.NewRecorder()
	h.CSRFToken(rec, httptest.NewRequest("GET", "/api/csrf-token", nil))

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == CSRFCookieName {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly {
		t.Fatalf("csrf cookie = %+v", cookie)
	}

	want, _ := csrf.GenerateToken(cookie.Value)
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("body %q does not carry token for cookie", rec.Body.String())
	}
}
