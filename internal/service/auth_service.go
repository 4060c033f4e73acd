package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"typeracer/internal/database"
	"typeracer/internal/models"
	"typeracer/internal/repository"
	"typeracer/internal/security"
	"typeracer/internal/validation"
)

const maxDeviceInfoLen = 255

// Credentials is the input to Register
type Credentials struct {
	Username string
	Email    string
	Password string
}

// ClientInfo describes where an auth request came from
type ClientInfo struct {
	IP        string
	UserAgent string
	GuestID   string // guestId cookie, may be empty
}

// AuthResult is returned by Register and Login
type AuthResult struct {
	User             *models.User
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
	ClaimedResults   int
}

// AuthService handles authentication business logic
type AuthService struct {
	users      *repository.UserRepository
	refresh    *repository.RefreshTokenRepository
	guests     *GuestService
	issuer     *security.TokenIssuer
	refreshTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(users *repository.UserRepository, refresh *repository.RefreshTokenRepository, guests *GuestService, issuer *security.TokenIssuer, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		refresh:    refresh,
		guests:     guests,
		issuer:     issuer,
		refreshTTL: refreshTTL,
		logger:     logger,
		now:        database.Now,
	}
}

// Register creates a new user account, claims the caller's guest results and
// signs the user in
func (s *AuthService) Register(ctx context.Context, c Credentials, client ClientInfo) (*AuthResult, error) {
	username := strings.TrimSpace(c.Username)
	email := strings.ToLower(strings.TrimSpace(c.Email))

	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(c.Password); err != nil {
		return nil, err
	}

	taken, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	taken, err = s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if taken {
		return nil, ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(c.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, username, email, passwordHash, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID))

	return s.signIn(ctx, user, client)
}

// Login authenticates by username or email
func (s *AuthService) Login(ctx context.Context, identifier, password string, client ClientInfo) (*AuthResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}

	user, err := s.users.GetUserByLogin(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return s.signIn(ctx, user, client)
}

// signIn merges guest activity and issues both tokens
func (s *AuthService) signIn(ctx context.Context, user *models.User, client ClientInfo) (*AuthResult, error) {
	claimed := s.guests.ReconcileOnAuth(ctx, client.GuestID, user.ID)

	access, err := s.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	refreshToken, err := security.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	now := s.now()
	deviceInfo := client.UserAgent
	if len(deviceInfo) > maxDeviceInfoLen {
		deviceInfo = deviceInfo[:maxDeviceInfoLen]
	}
	rt := &models.RefreshToken{
		UserID:     user.ID,
		TokenHash:  security.HashToken(refreshToken),
		DeviceInfo: deviceInfo,
		IPAddress:  client.IP,
		ExpiresAt:  now.Add(s.refreshTTL),
		CreatedAt:  now,
	}
	if err := s.refresh.CreateToken(ctx, rt); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:             user,
		AccessToken:      access,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: rt.ExpiresAt,
		ClaimedResults:   claimed,
	}, nil
}

// Refresh exchanges a refresh token for a new access token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.User, string, error) {
	if refreshToken == "" {
		return nil, "", ErrInvalidRefreshToken
	}
	rt, err := s.refresh.GetByHash(ctx, security.HashToken(refreshToken))
	if err != nil {
		return nil, "", err
	}
	if rt == nil || !rt.IsUsable(s.now()) {
		return nil, "", ErrInvalidRefreshToken
	}

	user, err := s.users.GetUserByID(ctx, rt.UserID)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrInvalidRefreshToken
	}

	access, err := s.issuer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, "", err
	}
	return user, access, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	_, err := s.refresh.Revoke(ctx, security.HashToken(refreshToken), s.now())
	return err
}

// GetUser returns an active user by ID
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// VerifyAccessToken returns the user id carried by a valid access token
func (s *AuthService) VerifyAccessToken(token string) (int64, error) {
	return s.issuer.Verify(token)
}
