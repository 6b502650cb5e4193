package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gophchat-server/internal/model"
)

func TestSessionStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	now := time.Now()

	sess := model.Session{ID: "sid", OwnerEmail: "a@x.com", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, s.Create(ctx, sess))
	assert.ErrorIs(t, s.Create(ctx, sess), model.ErrAlreadyExists)

	got, err := s.GetByID(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", got.OwnerEmail)

	later := now.Add(2 * time.Hour)
	require.NoError(t, s.Touch(ctx, "sid", later))
	got, err = s.GetByID(ctx, "sid")
	require.NoError(t, err)
	assert.True(t, later.Equal(got.ExpiresAt))

	require.NoError(t, s.Delete(ctx, "sid"))
	require.NoError(t, s.Delete(ctx, "sid"))
	_, err = s.GetByID(ctx, "sid")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.ErrorIs(t, s.Touch(ctx, "sid", later), model.ErrNotFound)
}

func TestSessionStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	now := time.Now()

	require.NoError(t, s.Create(ctx, model.Session{ID: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, s.Create(ctx, model.Session{ID: "new", ExpiresAt: now.Add(time.Minute)}))

	n, err := s.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.GetByID(ctx, "old")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.GetByID(ctx, "new")
	assert.NoError(t, err)
}
