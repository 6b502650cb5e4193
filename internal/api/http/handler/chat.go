package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dtroode/gophchat-server/internal/apierrors"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/service"
)

// ChatService defines chat operations for an authenticated user.
type ChatService interface {
	Send(ctx context.Context, identity model.Identity, chatID, prompt string) (service.SendResult, error)
	Regenerate(ctx context.Context, identity model.Identity, chatID, lastPrompt string) (service.SendResult, error)
	History(ctx context.Context, identity model.Identity, chatID string) ([]model.ChatEntry, error)
	ListChats(ctx context.Context, identity model.Identity) ([]model.ChatSummary, error)
	GetChat(ctx context.Context, identity model.Identity, chatID string) (model.Chat, error)
}

type Chat struct {
	chatService    ChatService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewChat(chatService ChatService, contextManager model.ContextManager, logger *logger.Logger) *Chat {
	return &Chat{
		chatService:    chatService,
		contextManager: contextManager,
		logger:         logger,
	}
}

type chatRequest struct {
	Prompt  string `json:"prompt"`
	Message string `json:"message"`
	ChatID  string `json:"chatId"`
}

type regenerateRequest struct {
	LastPrompt string `json:"lastPrompt"`
	ChatID     string `json:"chatId"`
}

type chatResponse struct {
	Reply  string            `json:"reply"`
	ChatID string            `json:"chatId"`
	Chat   []model.ChatEntry `json:"chat"`
}

type chatSummaryResponse struct {
	ChatID       string    `json:"chatId"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	MessageCount int       `json:"messageCount"`
}

type chatDetailResponse struct {
	ChatID   string            `json:"chatId"`
	Messages []model.ChatEntry `json:"messages"`
}

// decodeJSON treats an empty body as an empty request.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return apierrors.NewErrInvalidRequest("invalid request body")
	}
	return nil
}

func (h *Chat) identity(r *http.Request) (model.Identity, error) {
	identity, ok := h.contextManager.GetIdentityFromContext(r.Context())
	if !ok {
		return model.Identity{}, apierrors.NewErrUnauthorized()
	}
	return identity, nil
}

func (h *Chat) Send(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	prompt := req.Prompt
	if prompt == "" {
		prompt = req.Message
	}

	res, err := h.chatService.Send(r.Context(), identity, req.ChatID, prompt)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toChatResponse(res))
}

func (h *Chat) Regenerate(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req regenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.chatService.Regenerate(r.Context(), identity, req.ChatID, req.LastPrompt)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, toChatResponse(res))
}

func (h *Chat) History(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entries, err := h.chatService.History(r.Context(), identity, r.URL.Query().Get("chatId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, entries)
}

func (h *Chat) List(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	chats, err := h.chatService.ListChats(r.Context(), identity)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	out := make([]chatSummaryResponse, 0, len(chats))
	for _, c := range chats {
		out = append(out, chatSummaryResponse{
			ChatID:       c.ID,
			Title:        c.Title,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			MessageCount: c.MessageCount,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Chat) Get(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identity(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	chat, err := h.chatService.GetChat(r.Context(), identity, r.PathValue("chatId"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, chatDetailResponse{ChatID: chat.ID, Messages: chat.Messages})
}

func toChatResponse(res service.SendResult) chatResponse {
	messages := res.Chat.Messages
	if messages == nil {
		messages = []model.ChatEntry{}
	}
	return chatResponse{Reply: res.Reply, ChatID: res.ChatID, Chat: messages}
}
