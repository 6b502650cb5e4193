package service

import (
	"context"
	"errors"
	"net/mail"

	"github.com/dtroode/gophchat-server/internal/apierrors"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/password"
)

const minPasswordLength = 6

// AuthResult is returned by a successful signup or login.
type AuthResult struct {
	Identity model.Identity
	Token    string
	Session  model.Session
}

type Auth struct {
	credentials *Credentials
	sessions    *Sessions
	logger      *logger.Logger
}

func NewAuth(credentials *Credentials, sessions *Sessions, logger *logger.Logger) *Auth {
	return &Auth{
		credentials: credentials,
		sessions:    sessions,
		logger:      logger,
	}
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return apierrors.NewErrInvalidEmail(email)
	}
	return nil
}

// validateCredentials applies the signup password policy. Login only checks
// presence so a failed login never reveals the policy.
func validateCredentials(email, plain string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if len(plain) < minPasswordLength || len(plain) > password.MaxLength {
		return apierrors.NewErrInvalidPassword(minPasswordLength, password.MaxLength)
	}
	return nil
}

func (a *Auth) Signup(ctx context.Context, email, plain string) (AuthResult, error) {
	a.logger.Debug("Auth service: signup", "email", email)

	if err := validateCredentials(email, plain); err != nil {
		return AuthResult{}, err
	}

	if err := a.credentials.CreateUser(ctx, email, plain); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			a.logger.Info("Auth service: user already exists", "email", email)
			return AuthResult{}, apierrors.NewErrEmailIsTaken(email)
		}
		return AuthResult{}, apierrors.NewErrPersistence(err)
	}

	return a.startSession(ctx, model.Identity{Email: email})
}

func (a *Auth) Login(ctx context.Context, email, plain string) (AuthResult, error) {
	a.logger.Debug("Auth service: login", "email", email)

	if err := validateEmail(email); err != nil {
		return AuthResult{}, err
	}
	if plain == "" {
		return AuthResult{}, apierrors.NewErrInvalidRequest("password is required")
	}

	identity, err := a.credentials.VerifyUser(ctx, email, plain)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrWrongPassword) {
			a.logger.Info("Auth service: login rejected",
				"email", email,
				"reason", err.Error())
			return AuthResult{}, apierrors.NewErrInvalidCredentials(err)
		}
		a.logger.Error("Auth service: failed to verify user",
			"email", email,
			"error", err.Error())
		return AuthResult{}, apierrors.NewErrPersistence(err)
	}

	return a.startSession(ctx, identity)
}

func (a *Auth) startSession(ctx context.Context, identity model.Identity) (AuthResult, error) {
	token, session, err := a.sessions.Create(ctx, identity)
	if err != nil {
		a.logger.Error("Auth service: failed to create session",
			"email", identity.Email,
			"error", err.Error())
		return AuthResult{}, apierrors.NewErrPersistence(err)
	}

	a.logger.Info("Auth service: session started", "email", identity.Email)
	return AuthResult{Identity: identity, Token: token, Session: session}, nil
}

// Logout succeeds whether or not the token names a live session.
func (a *Auth) Logout(ctx context.Context, token string) error {
	if err := a.sessions.Destroy(ctx, token); err != nil {
		a.logger.Error("Auth service: failed to destroy session", "error", err.Error())
		return apierrors.NewErrPersistence(err)
	}
	return nil
}

// Current resolves the identity behind token.
func (a *Auth) Current(ctx context.Context, token string) (model.Identity, error) {
	identity, ok, err := a.sessions.Validate(ctx, token)
	if err != nil {
		a.logger.Error("Auth service: failed to validate session", "error", err.Error())
		return model.Identity{}, apierrors.NewErrPersistence(err)
	}
	if !ok {
		return model.Identity{}, apierrors.NewErrUnauthorized()
	}
	return identity, nil
}

// Authenticate is Current for middleware: it reports a missing session as
// false instead of an error.
func (a *Auth) Authenticate(ctx context.Context, token string) (model.Identity, bool, error) {
	return a.sessions.Validate(ctx, token)
}
