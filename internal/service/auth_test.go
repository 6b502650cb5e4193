package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gophchat-server/internal/apierrors"
	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/password"
	"github.com/dtroode/gophchat-server/internal/repository/document"
	sessionmem "github.com/dtroode/gophchat-server/internal/repository/memory"
	storagemem "github.com/dtroode/gophchat-server/internal/storage/memory"
	"github.com/dtroode/gophchat-server/internal/testutil"
	"github.com/dtroode/gophchat-server/internal/token"
)

func newTestAuth(t *testing.T) *Auth {
	t.Helper()
	log := testutil.MakeNoopLogger()
	users := document.NewUserRepository(storagemem.NewStore())
	credentials := NewCredentials(users, password.NewBcrypt(testBcryptCost), log)
	sessions := NewSessions(sessionmem.NewSessionStore(), users, token.NewJWT("test-secret"), time.Hour, log)
	return NewAuth(credentials, sessions, log)
}

func requireKind(t *testing.T, err error, kind apierrors.Kind) *apierrors.APIError {
	t.Helper()
	var apiErr *apierrors.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, kind, apiErr.Kind)
	return apiErr
}

func TestAuth_Signup_Validation(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
	}{
		{name: "empty email", email: "", password: "secret1"},
		{name: "no at sign", email: "alice.example.com", password: "secret1"},
		{name: "display name", email: "Alice <alice@example.com>", password: "secret1"},
		{name: "surrounding spaces", email: " alice@example.com ", password: "secret1"},
		{name: "short password", email: "alice@example.com", password: "12345"},
		{name: "long password", email: "alice@example.com", password: strings.Repeat("x", 73)},
	}

	a := newTestAuth(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Signup(context.Background(), tt.email, tt.password)
			apiErr := requireKind(t, err, apierrors.KindValidation)
			assert.Equal(t, 400, apiErr.HTTPCode)
		})
	}
}

func TestAuth_SignupTwice(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t)

	res, err := a.Signup(ctx, "alice@example.com", "s3cret!")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", res.Identity.Email)
	assert.NotEmpty(t, res.Token)

	_, err = a.Signup(ctx, "alice@example.com", "another1")
	apiErr := requireKind(t, err, apierrors.KindConflict)
	assert.Equal(t, "user already exists", apiErr.Message)
}

func TestAuth_Login(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t)

	_, err := a.Signup(ctx, "alice@example.com", "s3cret!")
	require.NoError(t, err)

	res, err := a.Login(ctx, "alice@example.com", "s3cret!")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)

	wrong, err := a.Login(ctx, "alice@example.com", "s3cret?")
	assert.Empty(t, wrong.Token)
	wrongErr := requireKind(t, err, apierrors.KindInvalidCredentials)
	assert.ErrorIs(t, err, model.ErrWrongPassword)

	_, err = a.Login(ctx, "bob@example.com", "s3cret!")
	unknownErr := requireKind(t, err, apierrors.KindInvalidCredentials)
	assert.ErrorIs(t, err, model.ErrNotFound)

	assert.Equal(t, wrongErr.Message, unknownErr.Message)
	assert.Equal(t, wrongErr.HTTPCode, unknownErr.HTTPCode)
}

func TestAuth_Login_IgnoresPasswordPolicy(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t)

	_, err := a.Signup(ctx, "a@x.com", "secret")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		cause    error
	}{
		{name: "short wrong password", email: "a@x.com", password: "wrong", cause: model.ErrWrongPassword},
		{name: "over-long password", email: "a@x.com", password: strings.Repeat("x", 100), cause: model.ErrWrongPassword},
		{name: "short password unknown user", email: "b@x.com", password: "wrong", cause: model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Login(ctx, tt.email, tt.password)
			apiErr := requireKind(t, err, apierrors.KindInvalidCredentials)
			assert.Equal(t, "invalid email or password", apiErr.Message)
			assert.Equal(t, 400, apiErr.HTTPCode)
			assert.ErrorIs(t, err, tt.cause)
		})
	}
}

func TestAuth_Login_Validation(t *testing.T) {
	a := newTestAuth(t)

	_, err := a.Login(context.Background(), "not-an-email", "secret")
	requireKind(t, err, apierrors.KindValidation)

	_, err = a.Login(context.Background(), "a@x.com", "")
	requireKind(t, err, apierrors.KindValidation)
}

func TestAuth_LogoutAndCurrent(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t)

	res, err := a.Signup(ctx, "alice@example.com", "s3cret!")
	require.NoError(t, err)

	identity, err := a.Current(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", identity.Email)

	require.NoError(t, a.Logout(ctx, res.Token))
	require.NoError(t, a.Logout(ctx, res.Token))
	require.NoError(t, a.Logout(ctx, ""))

	_, err = a.Current(ctx, res.Token)
	requireKind(t, err, apierrors.KindUnauthorized)

	_, ok, err := a.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuth_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	a := newTestAuth(t)

	first, err := a.Signup(ctx, "alice@example.com", "s3cret!")
	require.NoError(t, err)
	second, err := a.Login(ctx, "alice@example.com", "s3cret!")
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx, first.Token))

	_, err = a.Current(ctx, second.Token)
	assert.NoError(t, err)
	_, err = a.Current(ctx, first.Token)
	assert.True(t, errors.As(err, new(*apierrors.APIError)))
}
