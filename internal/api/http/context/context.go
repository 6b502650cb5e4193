package context

import (
	"context"

	"github.com/dtroode/gophchat-server/internal/model"
)

type identityKey struct{}

var _ model.ContextManager = (*Manager)(nil)

// Manager stores the authenticated identity in a request context.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) SetIdentityToContext(ctx context.Context, identity model.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// GetIdentityFromContext reports false when no identity, or an empty one, is set.
func (m *Manager) GetIdentityFromContext(ctx context.Context) (model.Identity, bool) {
	identity, ok := ctx.Value(identityKey{}).(model.Identity)
	if !ok || identity.IsZero() {
		return model.Identity{}, false
	}
	return identity, true
}
