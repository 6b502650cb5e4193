package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gophchat-server/internal/model"
)

func TestSessionRepository_Create(t *testing.T) {
	now := time.Now()
	sess := model.Session{ID: "sid", OwnerEmail: "a@x.com", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}

	conn, mock := newMockConnection(t)
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("sid", "a@x.com", sess.CreatedAt, sess.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("sid", "a@x.com", sess.CreatedAt, sess.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewSessionRepository(conn)
	require.NoError(t, repo.Create(context.Background(), sess))
	assert.ErrorIs(t, repo.Create(context.Background(), sess), model.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByID(t *testing.T) {
	now := time.Now()
	conn, mock := newMockConnection(t)
	cols := []string{"id", "owner_email", "created_at", "expires_at"}
	mock.ExpectQuery("SELECT id, owner_email, created_at, expires_at FROM sessions").
		WithArgs("sid").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("sid", "a@x.com", now, now.Add(time.Hour)))
	mock.ExpectQuery("SELECT id, owner_email, created_at, expires_at FROM sessions").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	repo := NewSessionRepository(conn)
	sess, err := repo.GetByID(context.Background(), "sid")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", sess.OwnerEmail)

	_, err = repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_TouchAndDelete(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	conn, mock := newMockConnection(t)
	mock.ExpectExec("UPDATE sessions SET expires_at").WithArgs("sid", exp).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE sessions SET expires_at").WithArgs("gone", exp).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM sessions WHERE id").WithArgs("sid").WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSessionRepository(conn)
	require.NoError(t, repo.Touch(context.Background(), "sid", exp))
	assert.ErrorIs(t, repo.Touch(context.Background(), "gone", exp), model.ErrNotFound)
	require.NoError(t, repo.Delete(context.Background(), "sid"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	now := time.Now()
	conn, mock := newMockConnection(t)
	mock.ExpectExec("DELETE FROM sessions WHERE expires_at").WithArgs(now).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := NewSessionRepository(conn).DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
