package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"typeracer/internal/service"
	"typeracer/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, zap.NewNop(), 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}

	var body Response
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if body.Success || body.Message != "Teapot" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	recorder := httptest.NewRecorder()

	respondWithError(recorder, zap.New(core), 500, ErrInternalServerError, "", errors.New("boom"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if entries[0].Message != ErrInternalServerError {
		t.Fatalf("expected log to use user message, got %q", entries[0].Message)
	}
	if got := entries[0].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected log to include error, got %v", got)
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{validation.ValidationError{Field: "x", Message: "bad"}, http.StatusBadRequest},
		{service.ErrNoTextAvailable, http.StatusNotFound},
		{service.ErrInvalidOwner, http.StatusBadRequest},
		{service.ErrInvalidOrExpiredSession, http.StatusBadRequest},
		{service.ErrDurationMismatch, http.StatusBadRequest},
		{fmt.Errorf("%w: too fast", service.ErrInvalidMetrics), http.StatusBadRequest},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrInvalidRefreshToken, http.StatusUnauthorized},
		{service.ErrUsernameTaken, http.StatusConflict},
		{service.ErrEmailTaken, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			got, msg := statusForError(tt.err)
			if got != tt.want {
				t.Errorf("statusForError() = %d, want %d", got, tt.want)
			}
			if got == http.StatusInternalServerError && msg != ErrInternalServerError {
				t.Errorf("internal error message leaked: %q", msg)
			}
		})
	}
}
