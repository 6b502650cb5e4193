package model

import (
	"context"
	"strings"
	"time"
)

// Role identifies the author of a chat entry.
type Role string

const (
	// RoleUser marks a prompt sent by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a reply produced by the upstream model.
	RoleAssistant Role = "assistant"
)

// ChatEntry is a single message of a transcript.
type ChatEntry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Chat is an append-only transcript owned by one user.
type Chat struct {
	ID        string
	Owner     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Messages  []ChatEntry
}

// ChatSummary describes a chat without its messages.
type ChatSummary struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// ChatStore persists chat transcripts.
type ChatStore interface {
	// Append adds entries to the chat, creating it when missing, and returns
	// the updated transcript.
	Append(ctx context.Context, owner, chatID string, entries ...ChatEntry) (Chat, error)
	Get(ctx context.Context, owner, chatID string) (Chat, error)
	List(ctx context.Context, owner string) ([]ChatSummary, error)
	// History returns every entry of every chat of the owner, oldest first.
	History(ctx context.Context, owner string) ([]ChatEntry, error)
}

// Generator produces a reply to a prompt given the prior turns of a chat.
type Generator interface {
	Generate(ctx context.Context, history []ChatEntry, prompt string) (string, error)
}

const chatTitleLength = 60

// ChatTitle derives a title from the first user prompt of a transcript.
func ChatTitle(messages []ChatEntry) string {
	for _, m := range messages {
		if m.Role != RoleUser {
			continue
		}
		title := []rune(strings.TrimSpace(m.Content))
		if len(title) > chatTitleLength {
			return string(title[:chatTitleLength]) + "…"
		}
		return string(title)
	}
	return ""
}
