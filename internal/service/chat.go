package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/gophchat-server/internal/apierrors"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

const emptyReply = "No response"

// SendResult is the outcome of one exchange with the upstream.
type SendResult struct {
	Reply  string
	ChatID string
	Chat   model.Chat
}

// Chat relays prompts to the generator and keeps transcripts. A nil
// generator disables sending while history stays readable.
type Chat struct {
	chats     model.ChatStore
	generator model.Generator
	logger    *logger.Logger
	newID     func() string
	now       func() time.Time
}

func NewChat(chats model.ChatStore, generator model.Generator, logger *logger.Logger) *Chat {
	return &Chat{
		chats:     chats,
		generator: generator,
		logger:    logger,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

func (c *Chat) Enabled() bool {
	return c.generator != nil
}

func (c *Chat) Send(ctx context.Context, identity model.Identity, chatID, prompt string) (SendResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return SendResult{}, apierrors.NewErrEmptyPrompt()
	}
	if !c.Enabled() {
		return SendResult{}, apierrors.NewErrChatDisabled()
	}

	var history []model.ChatEntry
	if chatID == "" {
		chatID = c.newID()
	} else {
		chat, err := c.chats.Get(ctx, identity.Email, chatID)
		switch {
		case errors.Is(err, model.ErrNotFound):
		case err != nil:
			return SendResult{}, c.persistenceErr("failed to load chat", identity, chatID, err)
		default:
			history = chat.Messages
		}
	}

	return c.exchange(ctx, identity, chatID, prompt, history)
}

// Regenerate asks again with lastPrompt, or with the last user prompt of the
// chat when lastPrompt is blank.
func (c *Chat) Regenerate(ctx context.Context, identity model.Identity, chatID, lastPrompt string) (SendResult, error) {
	if !c.Enabled() {
		return SendResult{}, apierrors.NewErrChatDisabled()
	}
	if strings.TrimSpace(lastPrompt) == "" && chatID == "" {
		return SendResult{}, apierrors.NewErrEmptyPrompt()
	}

	var history []model.ChatEntry
	if chatID == "" {
		chatID = c.newID()
	} else {
		chat, err := c.chats.Get(ctx, identity.Email, chatID)
		switch {
		case errors.Is(err, model.ErrNotFound):
			if strings.TrimSpace(lastPrompt) == "" {
				return SendResult{}, apierrors.NewErrChatNotFound(chatID)
			}
		case err != nil:
			return SendResult{}, c.persistenceErr("failed to load chat", identity, chatID, err)
		default:
			history = chat.Messages
		}
	}

	if strings.TrimSpace(lastPrompt) == "" {
		lastPrompt = lastUserPrompt(history)
		if lastPrompt == "" {
			return SendResult{}, apierrors.NewErrEmptyPrompt()
		}
	}

	return c.exchange(ctx, identity, chatID, lastPrompt, history)
}

func lastUserPrompt(history []model.ChatEntry) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == model.RoleUser {
			return history[i].Content
		}
	}
	return ""
}

func (c *Chat) exchange(ctx context.Context, identity model.Identity, chatID, prompt string, history []model.ChatEntry) (SendResult, error) {
	asked := c.now().UTC()

	reply, err := c.generator.Generate(ctx, history, prompt)
	if err != nil {
		if errors.Is(err, model.ErrQuotaExceeded) {
			c.logger.Warn("Chat service: upstream quota exceeded",
				"email", identity.Email,
				"error", err.Error())
			return SendResult{}, apierrors.NewErrQuotaExceeded(err)
		}
		c.logger.Error("Chat service: upstream call failed",
			"email", identity.Email,
			"chat_id", chatID,
			"error", err.Error())
		return SendResult{}, apierrors.NewErrUpstreamUnavailable(err)
	}
	if strings.TrimSpace(reply) == "" {
		reply = emptyReply
	}

	chat, err := c.chats.Append(ctx, identity.Email, chatID,
		model.ChatEntry{Role: model.RoleUser, Content: prompt, Timestamp: asked},
		model.ChatEntry{Role: model.RoleAssistant, Content: reply, Timestamp: c.now().UTC()},
	)
	if err != nil {
		return SendResult{}, c.persistenceErr("failed to append to chat", identity, chatID, err)
	}

	c.logger.Debug("Chat service: exchange stored",
		"email", identity.Email,
		"chat_id", chatID,
		"messages", len(chat.Messages))

	return SendResult{Reply: reply, ChatID: chatID, Chat: chat}, nil
}

// History returns the entries of one chat, or of every chat of the user
// oldest first when chatID is empty.
func (c *Chat) History(ctx context.Context, identity model.Identity, chatID string) ([]model.ChatEntry, error) {
	if chatID == "" {
		entries, err := c.chats.History(ctx, identity.Email)
		if err != nil {
			return nil, c.persistenceErr("failed to load history", identity, "", err)
		}
		if entries == nil {
			entries = []model.ChatEntry{}
		}
		return entries, nil
	}

	chat, err := c.GetChat(ctx, identity, chatID)
	if err != nil {
		return nil, err
	}
	return chat.Messages, nil
}

func (c *Chat) ListChats(ctx context.Context, identity model.Identity) ([]model.ChatSummary, error) {
	chats, err := c.chats.List(ctx, identity.Email)
	if err != nil {
		return nil, c.persistenceErr("failed to list chats", identity, "", err)
	}
	if chats == nil {
		chats = []model.ChatSummary{}
	}
	return chats, nil
}

func (c *Chat) GetChat(ctx context.Context, identity model.Identity, chatID string) (model.Chat, error) {
	chat, err := c.chats.Get(ctx, identity.Email, chatID)
	if errors.Is(err, model.ErrNotFound) {
		return model.Chat{}, apierrors.NewErrChatNotFound(chatID)
	}
	if err != nil {
		return model.Chat{}, c.persistenceErr("failed to load chat", identity, chatID, err)
	}
	if chat.Messages == nil {
		chat.Messages = []model.ChatEntry{}
	}
	return chat, nil
}

func (c *Chat) persistenceErr(msg string, identity model.Identity, chatID string, err error) error {
	c.logger.Error("Chat service: "+msg,
		"email", identity.Email,
		"chat_id", chatID,
		"error", err.Error())
	return apierrors.NewErrPersistence(err)
}
