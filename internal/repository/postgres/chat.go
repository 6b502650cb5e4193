package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/gophchat-server/internal/model"
)

var _ model.ChatStore = (*ChatRepository)(nil)

type ChatRepository struct {
	db *Connection
}

func NewChatRepository(db *Connection) *ChatRepository {
	return &ChatRepository{
		db: db,
	}
}

// Append upserts the chat row and inserts the entries in one transaction.
func (r *ChatRepository) Append(ctx context.Context, owner, chatID string, entries ...model.ChatEntry) (model.Chat, error) {
	chat := model.Chat{ID: chatID, Owner: owner}

	err := withTx(ctx, r.db.DB, func(ctx context.Context, tx querier) error {
		const upsert = `INSERT INTO chats (owner_email, id, created_at, updated_at)
			  VALUES ($1, $2, $3, $3)
			  ON CONFLICT (owner_email, id) DO UPDATE SET updated_at = EXCLUDED.updated_at
			  RETURNING created_at, updated_at`

		now := time.Now().UTC()
		if err := tx.QueryRowContext(ctx, upsert, owner, chatID, now).Scan(&chat.CreatedAt, &chat.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert chat: %w", err)
		}

		const insert = `INSERT INTO chat_messages (owner_email, chat_id, role, content, created_at)
			  VALUES ($1, $2, $3, $4, $5)`
		for _, e := range entries {
			if _, err := tx.ExecContext(ctx, insert, owner, chatID, string(e.Role), e.Content, e.Timestamp); err != nil {
				return fmt.Errorf("failed to insert chat message: %w", err)
			}
		}

		messages, err := selectMessages(ctx, tx, owner, chatID)
		if err != nil {
			return err
		}
		chat.Messages = messages
		return nil
	})
	if err != nil {
		return model.Chat{}, err
	}

	return chat, nil
}

func (r *ChatRepository) Get(ctx context.Context, owner, chatID string) (model.Chat, error) {
	chat := model.Chat{ID: chatID, Owner: owner}
	query := `SELECT created_at, updated_at FROM chats WHERE owner_email = $1 AND id = $2`

	err := r.db.QueryRowContext(ctx, query, owner, chatID).Scan(&chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Chat{}, model.ErrNotFound
		}
		return model.Chat{}, fmt.Errorf("failed to get chat: %w", err)
	}

	messages, err := selectMessages(ctx, r.db, owner, chatID)
	if err != nil {
		return model.Chat{}, err
	}
	chat.Messages = messages

	return chat, nil
}

// List returns chats most recently updated first.
func (r *ChatRepository) List(ctx context.Context, owner string) ([]model.ChatSummary, error) {
	query := `
		SELECT c.id, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM chat_messages m WHERE m.owner_email = c.owner_email AND m.chat_id = c.id),
		       COALESCE((SELECT m.content FROM chat_messages m
		                 WHERE m.owner_email = c.owner_email AND m.chat_id = c.id AND m.role = 'user'
		                 ORDER BY m.id LIMIT 1), '')
		FROM chats c
		WHERE c.owner_email = $1
		ORDER BY c.updated_at DESC, c.id`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	out := []model.ChatSummary{}
	for rows.Next() {
		var (
			s     model.ChatSummary
			first string
		)
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt, &s.MessageCount, &first); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		s.Title = model.ChatTitle([]model.ChatEntry{{Role: model.RoleUser, Content: first}})
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	return out, nil
}

func (r *ChatRepository) History(ctx context.Context, owner string) ([]model.ChatEntry, error) {
	query := `SELECT role, content, created_at FROM chat_messages
			  WHERE owner_email = $1
			  ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func selectMessages(ctx context.Context, q querier, owner, chatID string) ([]model.ChatEntry, error) {
	query := `SELECT role, content, created_at FROM chat_messages
			  WHERE owner_email = $1 AND chat_id = $2
			  ORDER BY id`

	rows, err := q.QueryContext(ctx, query, owner, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]model.ChatEntry, error) {
	out := []model.ChatEntry{}
	for rows.Next() {
		var (
			e    model.ChatEntry
			role string
		)
		if err := rows.Scan(&role, &e.Content, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		e.Role = model.Role(role)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chat messages: %w", err)
	}
	return out, nil
}
