package model

import (
	"context"
	"time"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	// Create stores a new user. It returns ErrAlreadyExists when the email is taken.
	Create(ctx context.Context, user User) error
	GetByEmail(ctx context.Context, email string) (User, error)
}

// User represents a stored user with its password hash.
type User struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity is an authenticated principal.
type Identity struct {
	Email string
}

// IsZero reports whether the identity is empty.
func (i Identity) IsZero() bool {
	return i.Email == ""
}
