package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/password"
)

type passwordHasher interface {
	Hash(plain string) (string, error)
	Compare(hash, plain string) error
	CompareDummy(plain string)
}

// Credentials creates users and checks their passwords.
type Credentials struct {
	users  model.UserStore
	hasher passwordHasher
	logger *logger.Logger
}

func NewCredentials(users model.UserStore, hasher passwordHasher, logger *logger.Logger) *Credentials {
	return &Credentials{users: users, hasher: hasher, logger: logger}
}

// CreateUser returns model.ErrAlreadyExists when the email is taken.
func (c *Credentials) CreateUser(ctx context.Context, email, plain string) error {
	// Create still reports a duplicate that races past this lookup.
	_, err := c.users.GetByEmail(ctx, email)
	if err == nil {
		return model.ErrAlreadyExists
	}
	if !errors.Is(err, model.ErrNotFound) {
		return fmt.Errorf("failed to get user by email: %w", err)
	}

	hash, err := c.hasher.Hash(plain)
	if err != nil {
		return err
	}

	user := model.User{
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := c.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			return model.ErrAlreadyExists
		}
		c.logger.Error("Credentials service: failed to create user",
			"email", email,
			"error", err.Error())
		return fmt.Errorf("failed to create user: %w", err)
	}

	c.logger.Info("Credentials service: user created", "email", email)
	return nil
}

// VerifyUser returns model.ErrNotFound or model.ErrWrongPassword on failure.
func (c *Credentials) VerifyUser(ctx context.Context, email, plain string) (model.Identity, error) {
	// No stored hash can match a password bcrypt refuses to hash.
	if len(plain) > password.MaxLength {
		c.hasher.CompareDummy(plain[:password.MaxLength])
		return model.Identity{}, model.ErrWrongPassword
	}

	user, err := c.users.GetByEmail(ctx, email)
	if errors.Is(err, model.ErrNotFound) {
		c.hasher.CompareDummy(plain)
		return model.Identity{}, model.ErrNotFound
	}
	if err != nil {
		return model.Identity{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := c.hasher.Compare(user.PasswordHash, plain); err != nil {
		if errors.Is(err, password.ErrMismatch) {
			return model.Identity{}, model.ErrWrongPassword
		}
		return model.Identity{}, err
	}

	return model.Identity{Email: user.Email}, nil
}
