package model

import (
	"context"
	"time"
)

// DefaultSessionDuration is the sliding lifetime of a session.
const DefaultSessionDuration = 24 * time.Hour

// SessionStore persists server-side sessions.
type SessionStore interface {
	Create(ctx context.Context, session Session) error
	GetByID(ctx context.Context, id string) (Session, error)
	Touch(ctx context.Context, id string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// Session binds an opaque session ID to its owner.
type Session struct {
	ID         string
	OwnerEmail string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
