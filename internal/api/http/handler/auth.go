package handler

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/dtroode/gophchat-server/internal/api/http/cookie"
	"github.com/dtroode/gophchat-server/internal/apierrors"
	"github.com/dtroode/gophchat-server/internal/logger"
	"github.com/dtroode/gophchat-server/internal/model"
	"github.com/dtroode/gophchat-server/internal/service"
)

const maxBodyBytes = 1 << 20

// AuthService defines signup, login and session operations.
type AuthService interface {
	Signup(ctx context.Context, email, password string) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
	Logout(ctx context.Context, token string) error
	Current(ctx context.Context, token string) (model.Identity, error)
}

// Auth handles signup, login, logout and session lookup.
type Auth struct {
	authService AuthService
	cookie      cookie.Config
	logger      *logger.Logger
}

func NewAuth(authService AuthService, sessionCookie cookie.Config, logger *logger.Logger) *Auth {
	return &Auth{
		authService: authService,
		cookie:      sessionCookie,
		logger:      logger,
	}
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string `json:"message"`
	User    string `json:"user"`
}

type sessionResponse struct {
	LoggedIn bool   `json:"loggedIn"`
	Email    string `json:"email,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// decodeCredentials accepts a JSON body or a URL-encoded form.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return credentialsRequest{}, apierrors.NewErrInvalidRequest("invalid request body")
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return credentialsRequest{}, apierrors.NewErrInvalidRequest("invalid request body")
	}
	return credentialsRequest{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}, nil
}

func (h *Auth) Signup(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.authService.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.cookie.Set(w, r, res.Token)
	writeJSON(w, http.StatusCreated, authResponse{Message: "Signup successful", User: res.Identity.Email})
}

func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	req, err := decodeCredentials(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.cookie.Set(w, r, res.Token)
	writeJSON(w, http.StatusOK, authResponse{Message: "Login successful", User: res.Identity.Email})
}

// Logout clears the session. GET redirects to the landing page like a
// browser link would expect, POST answers with JSON.
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), h.cookie.Token(r)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	h.cookie.Clear(w, r)
	if r.Method == http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logout successful"})
}

func (h *Auth) Session(w http.ResponseWriter, r *http.Request) {
	identity, err := h.authService.Current(r.Context(), h.cookie.Token(r))
	if err != nil {
		var apiErr *apierrors.APIError
		if errors.As(err, &apiErr) && apiErr.Kind == apierrors.KindUnauthorized {
			writeJSON(w, http.StatusOK, sessionResponse{LoggedIn: false})
			return
		}
		writeError(w, r, h.logger, err)
		return
	}

	h.cookie.Set(w, r, h.cookie.Token(r))
	writeJSON(w, http.StatusOK, sessionResponse{LoggedIn: true, Email: identity.Email})
}
