package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dtroode/gophchat-server/internal/api/http/cookie"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
)

// SessionAuthenticator resolves a session cookie value to an identity.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (model.Identity, bool, error)
}

// Authenticate rejects requests without a live session and injects the
// identity into the request context otherwise.
type Authenticate struct {
	authenticator  SessionAuthenticator
	contextManager model.ContextManager
	cookie         cookie.Config
	logger         *logger.Logger
}

func NewAuthenticate(
	authenticator SessionAuthenticator,
	contextManager model.ContextManager,
	sessionCookie cookie.Config,
	logger *logger.Logger,
) *Authenticate {
	return &Authenticate{
		authenticator:  authenticator,
		contextManager: contextManager,
		cookie:         sessionCookie,
		logger:         logger,
	}
}

func (m *Authenticate) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.cookie.Token(r)

		identity, ok, err := m.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			m.logger.Error("Authenticate middleware: failed to validate session",
				"request_id", RequestID(r.Context()),
				"error", err.Error())
			reject(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !ok {
			reject(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		// The server-side session just slid forward; keep the browser copy in step.
		m.cookie.Set(w, r, token)
		next.ServeHTTP(w, r.WithContext(m.contextManager.SetIdentityToContext(r.Context(), identity)))
	})
}

func reject(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
