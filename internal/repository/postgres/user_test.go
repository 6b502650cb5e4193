package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/gophchat-server/internal/model"
)

func newMockConnection(t *testing.T) (*Connection, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Connection{DB: db}, mock
}

func TestUserRepository_Create(t *testing.T) {
	now := time.Now()
	user := model.User{Email: "a@x.com", PasswordHash: "hash", CreatedAt: now}

	tests := []struct {
		name    string
		result  sql.Result
		execErr error
		wantErr error
	}{
		{
			name:   "inserted",
			result: sqlmock.NewResult(0, 1),
		},
		{
			name:    "email taken",
			result:  sqlmock.NewResult(0, 0),
			wantErr: model.ErrAlreadyExists,
		},
		{
			name:    "driver error",
			execErr: errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, mock := newMockConnection(t)
			exp := mock.ExpectExec("INSERT INTO users").WithArgs("a@x.com", "hash", now)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(tt.result)
			}

			err := NewUserRepository(conn).Create(context.Background(), user)
			switch {
			case tt.execErr != nil:
				assert.ErrorIs(t, err, tt.execErr)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery("SELECT email, password_hash, created_at FROM users").
			WithArgs("a@x.com").
			WillReturnRows(sqlmock.NewRows([]string{"email", "password_hash", "created_at"}).AddRow("a@x.com", "hash", now))

		user, err := NewUserRepository(conn).GetByEmail(context.Background(), "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "hash", user.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		conn, mock := newMockConnection(t)
		mock.ExpectQuery("SELECT email, password_hash, created_at FROM users").
			WithArgs("ghost@x.com").
			WillReturnError(sql.ErrNoRows)

		_, err := NewUserRepository(conn).GetByEmail(context.Background(), "ghost@x.com")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}
