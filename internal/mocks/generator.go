package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/gophchat-server/internal/model"
)

// Generator is a mock of model.Generator.
type Generator struct {
	mock.Mock
}

func NewGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *Generator {
	m := &Generator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *Generator) Generate(ctx context.Context, history []model.ChatEntry, prompt string) (string, error) {
	args := m.Called(ctx, history, prompt)
	return args.String(0), args.Error(1)
}
