package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"typeracer/internal/models"
	"typeracer/internal/security"
	"typeracer/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

type authResponse struct {
	User           *models.User `json:"user"`
	AccessToken    string       `json:"accessToken"`
	ClaimedResults int          `json:"claimedResults"`
}

func clientInfo(r *http.Request) service.ClientInfo {
	info := service.ClientInfo{IP: security.GetClientIP(r), UserAgent: r.UserAgent()}
	if guest := GetGuestFromContext(r.Context()); guest != nil {
		info.GuestID = guest.GuestID
	}
	return info
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, r *http.Request, res *service.AuthResult) {
	maxAge := time.Until(res.RefreshExpiresAt)
	http.SetCookie(w, security.CreateSessionCookie(r, RefreshCookieName, res.RefreshToken, "/", maxAge))
}

// signedIn finishes register and login: the guest cookie is dropped once its
// results belong to the user
func (h *AuthHandler) signedIn(w http.ResponseWriter, r *http.Request, status int, message string, res *service.AuthResult) {
	h.setRefreshCookie(w, r, res)
	if GetGuestFromContext(r.Context()) != nil {
		http.SetCookie(w, security.CreateDeleteCookie(r, GuestCookieName, "/"))
	}
	respondJSON(w, status, message, authResponse{
		User:           res.User,
		AccessToken:    res.AccessToken,
		ClaimedResults: res.ClaimedResults,
	})
}

// Register creates an account
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrInvalidJSON, nil)
		return
	}

	res, err := h.authService.Register(r.Context(), service.Credentials{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, clientInfo(r))
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to register user", err)
		return
	}

	h.signedIn(w, r, http.StatusCreated, "User registered successfully", res)
}

// Login authenticates by username or email
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrInvalidJSON, nil)
		return
	}

	res, err := h.authService.Login(r.Context(), req.Username, req.Password, clientInfo(r))
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to log in", err)
		return
	}

	h.signedIn(w, r, http.StatusOK, "Login successful", res)
}

// Refresh issues a new access token from the refresh cookie
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var token string
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		token = cookie.Value
	}

	user, access, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to refresh token", err)
		return
	}

	respondJSON(w, http.StatusOK, "Token refreshed successfully", map[string]interface{}{
		"user":        user,
		"accessToken": access,
	})
}

// Logout revokes the refresh token and clears its cookie
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(RefreshCookieName); err == nil {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			h.logger.Error("failed to revoke refresh token", zap.Error(err))
		}
	}

	http.SetCookie(w, security.CreateDeleteCookie(r, RefreshCookieName, "/"))
	respondJSON(w, http.StatusOK, "Logged out successfully", nil)
}

// Me returns the signed-in user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondJSON(w, http.StatusUnauthorized, ErrUnauthorized, nil)
		return
	}
	respondJSON(w, http.StatusOK, "", map[string]interface{}{"user": user})
}
