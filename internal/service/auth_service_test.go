package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"typeracer/internal/validation"
)

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	client := ClientInfo{IP: "203.0.113.7", UserAgent: "test-agent/1.0"}

	reg, err := env.auth.Register(ctx, Credentials{Username: "ada", Email: "Ada@Example.com", Password: testPassword}, client)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.User.Email != "ada@example.com" {
		t.Errorf("Email = %q, want lower-cased", reg.User.Email)
	}
	if reg.AccessToken == "" || reg.RefreshToken == "" {
		t.Fatal("Register() returned empty tokens")
	}
	userID, err := env.auth.VerifyAccessToken(reg.AccessToken)
	if err != nil || userID != reg.User.ID {
		t.Errorf("VerifyAccessToken() = %d, %v; want %d", userID, err, reg.User.ID)
	}

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
	}{
		{"by username", "ada", testPassword, nil},
		{"by email", "ADA@example.com", testPassword, nil},
		{"wrong password", "ada", "Wrong-pass1", ErrInvalidCredentials},
		{"unknown user", "bob", testPassword, ErrInvalidCredentials},
		{"empty", "", "", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := env.auth.Login(ctx, tt.identifier, tt.password, client)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && res.User.ID != reg.User.ID {
				t.Errorf("Login() user = %d, want %d", res.User.ID, reg.User.ID)
			}
		})
	}
}

func TestRegisterRejects(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.auth.Register(ctx, Credentials{Username: "ada", Email: "ada@example.com", Password: testPassword}, ClientInfo{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		creds    Credentials
		want     error
		wantVErr bool
	}{
		{"username taken", Credentials{Username: "ada", Email: "other@example.com", Password: testPassword}, ErrUsernameTaken, false},
		{"email taken", Credentials{Username: "bob", Email: "ada@example.com", Password: testPassword}, ErrEmailTaken, false},
		{"weak password", Credentials{Username: "bob", Email: "bob@example.com", Password: "password"}, nil, true},
		{"bad username", Credentials{Username: "b!", Email: "bob@example.com", Password: testPassword}, nil, true},
		{"bad email", Credentials{Username: "bob", Email: "bob", Password: testPassword}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(ctx, tt.creds, ClientInfo{})
			if tt.wantVErr {
				var verr validation.ValidationError
				if !errors.As(err, &verr) {
					t.Errorf("Register() error = %v, want ValidationError", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Register() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRegisterClaimsGuestResults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	guest := env.createGuest(t)
	env.takeTest(t, Identity{GuestSessionID: guest.ID}, 40)
	env.takeTest(t, Identity{GuestSessionID: guest.ID}, 55)

	reg, err := env.auth.Register(ctx, Credentials{Username: "ada", Email: "ada@example.com", Password: testPassword}, ClientInfo{GuestID: guest.GuestID})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if reg.ClaimedResults != 2 {
		t.Errorf("ClaimedResults = %d, want 2", reg.ClaimedResults)
	}

	// Logging in again with the same cookie is a no-op.
	login, err := env.auth.Login(ctx, "ada", testPassword, ClientInfo{GuestID: guest.GuestID})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if login.ClaimedResults != 0 {
		t.Errorf("second ClaimedResults = %d, want 0", login.ClaimedResults)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, Credentials{Username: "ada", Email: "ada@example.com", Password: testPassword}, ClientInfo{})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	user, access, err := env.auth.Refresh(ctx, reg.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if user.ID != reg.User.ID || access == "" {
		t.Errorf("Refresh() = %d, %q", user.ID, access)
	}

	if _, _, err := env.auth.Refresh(ctx, "unknown"); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Refresh(unknown) error = %v, want ErrInvalidRefreshToken", err)
	}

	if err := env.auth.Logout(ctx, reg.RefreshToken); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, _, err := env.auth.Refresh(ctx, reg.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Refresh() after logout error = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestRefreshExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	reg, err := env.auth.Register(ctx, Credentials{Username: "ada", Email: "ada@example.com", Password: testPassword}, ClientInfo{})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	env.auth.now = func() time.Time { return reg.RefreshExpiresAt.Add(time.Second) }
	if _, _, err := env.auth.Refresh(ctx, reg.RefreshToken); !errors.Is(err, ErrInvalidRefreshToken) {
		t.Errorf("Refresh() after expiry error = %v, want ErrInvalidRefreshToken", err)
	}
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.auth.GetUser(context.Background(), 42); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser() error = %v, want ErrUserNotFound", err)
	}
}
