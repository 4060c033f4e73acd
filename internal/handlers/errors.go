package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"typeracer/internal/service"
	"typeracer/internal/validation"
)

// Response is the envelope every API response uses
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Response{Success: status < 400, Message: message, Data: data})
}

func respondWithError(w http.ResponseWriter, logger *zap.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		logger.Error(logMsg, zap.Int("status", status), zap.Error(err))
	}

	respondJSON(w, status, userMsg, nil)
}

// respondWithServiceError maps a service error to its status. Unknown errors
// are logged and hidden behind a generic message.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, logMsg string, err error) {
	status, msg := statusForError(err)
	if status == http.StatusInternalServerError {
		respondWithError(w, logger, status, msg, logMsg, err)
		return
	}
	respondJSON(w, status, msg, nil)
}

func statusForError(err error) (int, string) {
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Message
	}

	switch {
	case errors.Is(err, service.ErrNoTextAvailable),
		errors.Is(err, service.ErrTextNotFound),
		errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrGuestSessionNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrInvalidOwner),
		errors.Is(err, service.ErrInvalidOrExpiredSession),
		errors.Is(err, service.ErrDurationMismatch),
		errors.Is(err, service.ErrInvalidDuration),
		errors.Is(err, service.ErrInvalidMetrics):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, service.ErrEmailTaken):
		return http.StatusConflict, err.Error()
	}
	return http.StatusInternalServerError, ErrInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst)
}
