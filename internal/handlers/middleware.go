package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"typeracer/internal/metrics"
	"typeracer/internal/models"
	"typeracer/internal/security"
	"typeracer/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	UserContextKey  ContextKey = "user"
	GuestContextKey ContextKey = "guest"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService  *service.AuthService
	guestService *service.GuestService
	csrf         *security.CSRFGenerator
	logger       *zap.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService, guestService *service.GuestService, csrf *security.CSRFGenerator, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService:  authService,
		guestService: guestService,
		csrf:         csrf,
		logger:       logger,
	}
}

// authenticate resolves the bearer token to an active user, or nil
func (m *Middleware) authenticate(r *http.Request) *models.User {
	token, ok := bearerToken(r)
	if !ok {
		return nil
	}
	userID, err := m.authService.VerifyAccessToken(token)
	if err != nil {
		return nil
	}
	user, err := m.authService.GetUser(r.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

// OptionalAuth attaches the user when a valid access token is present
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if user := m.authenticate(r); user != nil {
			r = r.WithContext(context.WithValue(r.Context(), UserContextKey, user))
		}
		next(w, r)
	}
}

// RequireAuth is middleware that requires a valid access token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := m.authenticate(r)
		if user == nil {
			respondJSON(w, http.StatusUnauthorized, ErrUnauthorized, nil)
			return
		}
		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// GuestSession attaches the active guest session named by the guestId cookie
func (m *Middleware) GuestSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(GuestCookieName); err == nil {
			guest, err := m.guestService.Resolve(r.Context(), cookie.Value)
			if err != nil {
				m.logger.Warn("failed to resolve guest session", zap.Error(err))
			}
			if guest != nil {
				r = r.WithContext(context.WithValue(r.Context(), GuestContextKey, guest))
			}
		}
		next(w, r)
	}
}

// RequireGuestOrAuth rejects requests with neither a user nor a guest session
func (m *Middleware) RequireGuestOrAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if GetUserFromContext(r.Context()) == nil && GetGuestFromContext(r.Context()) == nil {
			respondJSON(w, http.StatusUnauthorized, ErrGuestOrAuthRequired, nil)
			return
		}
		next(w, r)
	}
}

// CSRFProtect requires the X-CSRF-Token header to match the csrf_id cookie
func (m *Middleware) CSRFProtect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CSRFCookieName)
		if err != nil || !m.csrf.ValidateToken(cookie.Value, r.Header.Get(CSRFHeaderName)) {
			respondJSON(w, http.StatusForbidden, ErrCSRFInvalid, nil)
			return
		}
		next(w, r)
	}
}

// RateLimit rejects clients that exceed the limiter's budget
func (m *Middleware) RateLimit(limiter *security.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := security.GetClientIP(r)
		if !limiter.Allow(ip) {
			m.logger.Warn("rate limit exceeded", zap.String("ip", ip), zap.String("path", r.URL.Path))
			respondJSON(w, http.StatusTooManyRequests, ErrTooManyRequests, nil)
			return
		}
		next(w, r)
	}
}

// Logging middleware logs HTTP requests
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec, status := metrics.StatusRecorder(w)

			next.ServeHTTP(rec, r)

			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("ip", security.GetClientIP(r)),
			)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

// GetUserFromContext retrieves the user from the request context
func GetUserFromContext(ctx context.Context) *models.User {
	user, ok := ctx.Value(UserContextKey).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetGuestFromContext retrieves the guest session from the request context
func GetGuestFromContext(ctx context.Context) *models.GuestSession {
	guest, ok := ctx.Value(GuestContextKey).(*models.GuestSession)
	if !ok {
		return nil
	}
	return guest
}

// identityFromContext collects whoever the middleware resolved
func identityFromContext(ctx context.Context) service.Identity {
	var id service.Identity
	if user := GetUserFromContext(ctx); user != nil {
		id.UserID = user.ID
	}
	if guest := GetGuestFromContext(ctx); guest != nil {
		id.GuestSessionID = guest.ID
	}
	return id
}

func fingerprint(r *http.Request) models.Fingerprint {
	return models.Fingerprint{IP: security.GetClientIP(r), UserAgent: r.UserAgent()}
}
