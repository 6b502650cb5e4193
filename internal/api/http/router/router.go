package router

import (
	"net/http"

	"github.com/dtroode/gophchat-server/internal/api/http/cookie"
	"github.com/dtroode/gophchat-server/internal/api/http/handler"
	"github.com/dtroode/gophchat-server/internal/api/http/middleware"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/metrics"
	"github.com/dtroode/gophchat-server/internal/model"
)

// AuthService is everything the router needs from the auth service.
type AuthService interface {
	handler.AuthService
	middleware.SessionAuthenticator
}

// Router wires handlers and middleware onto a ServeMux.
type Router struct {
	authService    AuthService
	chatService    handler.ChatService
	contextManager model.ContextManager
	cookie         cookie.Config
	metrics        *metrics.Metrics
	logger         *logger.Logger
}

// New creates a Router. metrics may be nil, in which case /metrics is not
// served and requests are not instrumented.
func New(
	authService AuthService,
	chatService handler.ChatService,
	contextManager model.ContextManager,
	sessionCookie cookie.Config,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		chatService:    chatService,
		contextManager: contextManager,
		cookie:         sessionCookie,
		metrics:        metrics,
		logger:         logger,
	}
}

// Register builds the HTTP handler with all routes and middleware.
func (r *Router) Register() http.Handler {
	mux := http.NewServeMux()

	r.registerAuthRoutes(mux)
	r.registerChatRoutes(mux)

	mux.HandleFunc("GET /healthz", handler.Health)
	if r.metrics != nil {
		mux.Handle("GET /metrics", r.metrics.Handler())
	}

	var h http.Handler = mux
	if r.metrics != nil {
		h = middleware.NewInstrument(r.metrics).Handle(h)
	}
	return middleware.NewLogging(r.logger).Handle(h)
}

func (r *Router) registerAuthRoutes(mux *http.ServeMux) {
	auth := handler.NewAuth(r.authService, r.cookie, r.logger)

	mux.HandleFunc("POST /signup", auth.Signup)
	mux.HandleFunc("POST /login", auth.Login)
	mux.HandleFunc("GET /logout", auth.Logout)
	mux.HandleFunc("POST /logout", auth.Logout)
	mux.HandleFunc("GET /session", auth.Session)
}

func (r *Router) registerChatRoutes(mux *http.ServeMux) {
	chat := handler.NewChat(r.chatService, r.contextManager, r.logger)
	guard := middleware.NewAuthenticate(r.authService, r.contextManager, r.cookie, r.logger)

	mux.Handle("POST /chat", guard.Handle(http.HandlerFunc(chat.Send)))
	mux.Handle("POST /regenerate", guard.Handle(http.HandlerFunc(chat.Regenerate)))
	mux.Handle("GET /history", guard.Handle(http.HandlerFunc(chat.History)))
	mux.Handle("GET /chats", guard.Handle(http.HandlerFunc(chat.List)))
	mux.Handle("GET /chats/{chatId}", guard.Handle(http.HandlerFunc(chat.Get)))
}
