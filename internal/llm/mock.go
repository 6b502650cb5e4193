package llm

import (
	"context"
	"fmt"

	"github.com/dtroode/gophchat-server/internal/model"
)

var _ model.Generator = (*MockClient)(nil)

// MockClient echoes prompts back. Used for local development without an API key.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Generate(ctx context.Context, history []model.ChatEntry, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrUpstreamUnavailable, err)
	}
	return fmt.Sprintf("You said %q (%d earlier messages).", prompt, len(history)), nil
}
