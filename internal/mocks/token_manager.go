package mocks

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// TokenManager is a mock of model.TokenManager.
type TokenManager struct {
	mock.Mock
}

func NewTokenManager(t interface {
	mock.TestingT
	Cleanup(func())
}) *TokenManager {
	m := &TokenManager{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TokenManager) GenerateSessionToken(sessionID string, issuedAt time.Time) (string, error) {
	args := m.Called(sessionID, issuedAt)
	return args.String(0), args.Error(1)
}

func (m *TokenManager) ParseSessionToken(token string) (string, error) {
	args := m.Called(token)
	return args.String(0), args.Error(1)
}
