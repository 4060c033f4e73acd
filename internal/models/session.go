package models

import (
	"fmt"
	"time"
)

// OwnerKind tags which identity class owns a session or result
type OwnerKind int

const (
	ownerNone OwnerKind = iota
	OwnerUser
	OwnerGuest
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerUser:
		return "user"
	case OwnerGuest:
		return "guest"
	default:
		return "none"
	}
}

// Owner identifies exactly one user or one guest session.
// The zero value is invalid.
type Owner struct {
	Kind OwnerKind
	ID   int64
}

// UserOwner returns the owner for a registered user
func UserOwner(userID int64) Owner {
	return Owner{Kind: OwnerUser, ID: userID}
}

// GuestOwner returns the owner for a guest session row id
func GuestOwner(guestSessionID int64) Owner {
	return Owner{Kind: OwnerGuest, ID: guestSessionID}
}

// Valid reports whether the owner names exactly one identity
func (o Owner) Valid() bool {
	return (o.Kind == OwnerUser || o.Kind == OwnerGuest) && o.ID > 0
}

func (o Owner) IsUser() bool  { return o.Valid() && o.Kind == OwnerUser }
func (o Owner) IsGuest() bool { return o.Valid() && o.Kind == OwnerGuest }

// Columns returns the (user_id, guest_session_id) pair for storage.
// Exactly one of them is non-nil for a valid owner.
func (o Owner) Columns() (userID, guestSessionID *int64) {
	id := o.ID
	switch o.Kind {
	case OwnerUser:
		return &id, nil
	case OwnerGuest:
		return nil, &id
	}
	return nil, nil
}

func (o Owner) String() string {
	return fmt.Sprintf("%s:%d", o.Kind, o.ID)
}

// OwnerFromColumns rebuilds an owner from the two nullable owner columns
func OwnerFromColumns(userID, guestSessionID *int64) (Owner, error) {
	switch {
	case userID != nil && guestSessionID == nil:
		return UserOwner(*userID), nil
	case userID == nil && guestSessionID != nil:
		return GuestOwner(*guestSessionID), nil
	}
	return Owner{}, fmt.Errorf("row must have exactly one owner")
}

// Fingerprint is the soft client binding recorded at issue time
type Fingerprint struct {
	IP        string
	UserAgent string
}

// TestSession is the stored form of an issued test. The token itself is never stored.
type TestSession struct {
	ID              int64
	TokenHash       string
	Owner           Owner
	TextID          int64
	DurationSeconds int
	IssuedAt        time.Time
	ExpiresAt       time.Time
	IsUsed          bool
	UsedAt          *time.Time
	IPAddress       string
	UserAgentHash   string
}

// IssuedSession is returned to the client once. Token is the only copy of the plaintext.
type IssuedSession struct {
	SessionID int64
	Token     string
	ExpiresAt time.Time
}

// SessionContext is what a successful consumption yields
type SessionContext struct {
	SessionID       int64
	TextID          int64
	DurationSeconds int
	Owner           Owner
}
