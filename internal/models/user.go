package models

import "time"

// User represents a registered typist
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Stats        UserStats `json:"stats"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserStats are the rolling aggregates kept on the user row.
// They only move forward through ResultRecorder.
type UserStats struct {
	BestWPM    float64 `json:"bestWpm"`
	AvgWPM     float64 `json:"avgWpm"`
	TotalTests int     `json:"totalTests"`
}

// RefreshToken is a long-lived login token. Only its hash is stored.
type RefreshToken struct {
	ID         int64
	UserID     int64
	TokenHash  string
	DeviceInfo string
	IPAddress  string
	ExpiresAt  time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

// IsUsable reports whether the token is neither revoked nor expired at now
func (t *RefreshToken) IsUsable(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
