package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

const sessionIDBytes = 32

// Sessions issues and validates server-side sessions. The cookie value is a
// signed token whose ID names the stored session.
type Sessions struct {
	store  model.SessionStore
	users  model.UserStore
	tokens model.TokenManager
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

func NewSessions(
	store model.SessionStore,
	users model.UserStore,
	tokens model.TokenManager,
	ttl time.Duration,
	logger *logger.Logger,
) *Sessions {
	if ttl <= 0 {
		ttl = model.DefaultSessionDuration
	}
	return &Sessions{
		store:  store,
		users:  users,
		tokens: tokens,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

func (s *Sessions) TTL() time.Duration {
	return s.ttl
}

func newSessionID() (string, error) {
	b := make([]byte, sessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *Sessions) Create(ctx context.Context, identity model.Identity) (string, model.Session, error) {
	id, err := newSessionID()
	if err != nil {
		return "", model.Session{}, err
	}

	now := s.now().UTC()
	session := model.Session{
		ID:         id,
		OwnerEmail: identity.Email,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}

	token, err := s.tokens.GenerateSessionToken(id, now)
	if err != nil {
		return "", model.Session{}, fmt.Errorf("failed to sign session token: %w", err)
	}

	if err := s.store.Create(ctx, session); err != nil {
		return "", model.Session{}, fmt.Errorf("failed to store session: %w", err)
	}

	s.logger.Debug("Sessions service: session created", "email", identity.Email)
	return token, session, nil
}

// Validate reports false without an error for any token that does not name
// a live session of an existing user. A successful validation extends the
// session by the configured TTL.
func (s *Sessions) Validate(ctx context.Context, token string) (model.Identity, bool, error) {
	if token == "" {
		return model.Identity{}, false, nil
	}

	id, err := s.tokens.ParseSessionToken(token)
	if err != nil {
		s.logger.Debug("Sessions service: rejected token", "error", err.Error())
		return model.Identity{}, false, nil
	}

	session, err := s.store.GetByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return model.Identity{}, false, nil
	}
	if err != nil {
		return model.Identity{}, false, fmt.Errorf("failed to get session: %w", err)
	}

	now := s.now().UTC()
	if session.Expired(now) {
		if err := s.store.Delete(ctx, id); err != nil {
			s.logger.Warn("Sessions service: failed to delete expired session", "error", err.Error())
		}
		return model.Identity{}, false, nil
	}

	if _, err := s.users.GetByEmail(ctx, session.OwnerEmail); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			_ = s.store.Delete(ctx, id)
			return model.Identity{}, false, nil
		}
		return model.Identity{}, false, fmt.Errorf("failed to get session owner: %w", err)
	}

	if err := s.store.Touch(ctx, id, now.Add(s.ttl)); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Identity{}, false, nil
		}
		return model.Identity{}, false, fmt.Errorf("failed to extend session: %w", err)
	}

	return model.Identity{Email: session.OwnerEmail}, true, nil
}

// Destroy is idempotent. Tokens that do not parse are ignored.
func (s *Sessions) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	id, err := s.tokens.ParseSessionToken(token)
	if err != nil {
		return nil
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Sessions) Cleanup(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("Sessions service: expired sessions removed", "count", n)
	}
	return n, nil
}
