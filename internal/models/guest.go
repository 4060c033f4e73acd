package models

import "time"

// GuestSession is an anonymous identity kept in a long-lived cookie
type GuestSession struct {
	ID         int64
	GuestID    string
	CreatedAt  time.Time
	LastSeenAt time.Time
	IsActive   bool
}
