package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/service"
)

type authServiceMock struct {
	mock.Mock
}

func (m *authServiceMock) Signup(ctx context.Context, email, password string) (service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(service.AuthResult), args.Error(1)
}

func (m *authServiceMock) Login(ctx context.Context, email, password string) (service.AuthResult, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(service.AuthResult), args.Error(1)
}

func (m *authServiceMock) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *authServiceMock) Current(ctx context.Context, token string) (model.Identity, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(model.Identity), args.Error(1)
}

type chatServiceMock struct {
	mock.Mock
}

func (m *chatServiceMock) Send(ctx context.Context, identity model.Identity, chatID, prompt string) (service.SendResult, error) {
	args := m.Called(ctx, identity, chatID, prompt)
	return args.Get(0).(service.SendResult), args.Error(1)
}

func (m *chatServiceMock) Regenerate(ctx context.Context, identity model.Identity, chatID, lastPrompt string) (service.SendResult, error) {
	args := m.Called(ctx, identity, chatID, lastPrompt)
	return args.Get(0).(service.SendResult), args.Error(1)
}

func (m *chatServiceMock) History(ctx context.Context, identity model.Identity, chatID string) ([]model.ChatEntry, error) {
	args := m.Called(ctx, identity, chatID)
	var out []model.ChatEntry
	if v := args.Get(0); v != nil {
		out = v.([]model.ChatEntry)
	}
	return out, args.Error(1)
}

func (m *chatServiceMock) ListChats(ctx context.Context, identity model.Identity) ([]model.ChatSummary, error) {
	args := m.Called(ctx, identity)
	var out []model.ChatSummary
	if v := args.Get(0); v != nil {
		out = v.([]model.ChatSummary)
	}
	return out, args.Error(1)
}

func (m *chatServiceMock) GetChat(ctx context.Context, identity model.Identity, chatID string) (model.Chat, error) {
	args := m.Called(ctx, identity, chatID)
	return args.Get(0).(model.Chat), args.Error(1)
}
