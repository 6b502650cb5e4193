package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/gophchat-server/internal/model"
)

// ChatStore is a mock of model.ChatStore.
type ChatStore struct {
	mock.Mock
}

func NewChatStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *ChatStore {
	m := &ChatStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ChatStore) Append(ctx context.Context, owner, chatID string, entries ...model.ChatEntry) (model.Chat, error) {
	args := m.Called(ctx, owner, chatID, entries)
	return args.Get(0).(model.Chat), args.Error(1)
}

func (m *ChatStore) Get(ctx context.Context, owner, chatID string) (model.Chat, error) {
	args := m.Called(ctx, owner, chatID)
	return args.Get(0).(model.Chat), args.Error(1)
}

func (m *ChatStore) List(ctx context.Context, owner string) ([]model.ChatSummary, error) {
	args := m.Called(ctx, owner)
	var out []model.ChatSummary
	if v := args.Get(0); v != nil {
		out = v.([]model.ChatSummary)
	}
	return out, args.Error(1)
}

func (m *ChatStore) History(ctx context.Context, owner string) ([]model.ChatEntry, error) {
	args := m.Called(ctx, owner)
	var out []model.ChatEntry
	if v := args.Get(0); v != nil {
		out = v.([]model.ChatEntry)
	}
	return out, args.Error(1)
}
