// Package apierrors defines the user-facing error taxonomy of the service.
package apierrors

import (
	"fmt"
	"net/http"
)

// Kind classifies an APIError.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindUnauthorized        Kind = "unauthorized"
	KindConflict            Kind = "conflict"
	KindInvalidCredentials  Kind = "invalid_credentials"
	KindNotFound            Kind = "not_found"
	KindEmptyPrompt         Kind = "empty_prompt"
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	KindQuotaExceeded       Kind = "quota_exceeded"
	KindChatDisabled        Kind = "chat_disabled"
	KindPersistence         Kind = "persistence"
	KindInternal            Kind = "internal"
)

// APIError carries an HTTP status and a message that is safe to show to
// clients. Err keeps the underlying cause for logs and errors.Is.
type APIError struct {
	Kind     Kind
	HTTPCode int
	Message  string
	Err      error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func newErr(kind Kind, code int, msg string, cause error) *APIError {
	return &APIError{Kind: kind, HTTPCode: code, Message: msg, Err: cause}
}

func NewErrInvalidEmail(email string) *APIError {
	return newErr(KindValidation, http.StatusBadRequest, "invalid email address", fmt.Errorf("malformed email %q", email))
}

func NewErrInvalidPassword(min, max int) *APIError {
	return newErr(KindValidation, http.StatusBadRequest,
		fmt.Sprintf("password must be between %d and %d characters", min, max), nil)
}

func NewErrInvalidRequest(msg string) *APIError {
	return newErr(KindValidation, http.StatusBadRequest, msg, nil)
}

func NewErrEmailIsTaken(email string) *APIError {
	return newErr(KindConflict, http.StatusBadRequest, "user already exists", fmt.Errorf("email %q is already taken", email))
}

// NewErrInvalidCredentials hides whether the user is unknown or the password
// is wrong; cause tells them apart.
func NewErrInvalidCredentials(cause error) *APIError {
	return newErr(KindInvalidCredentials, http.StatusBadRequest, "invalid email or password", cause)
}

func NewErrUnauthorized() *APIError {
	return newErr(KindUnauthorized, http.StatusUnauthorized, "unauthorized", nil)
}

func NewErrChatNotFound(chatID string) *APIError {
	return newErr(KindNotFound, http.StatusNotFound, "chat not found", fmt.Errorf("chat %q", chatID))
}

func NewErrEmptyPrompt() *APIError {
	return newErr(KindEmptyPrompt, http.StatusBadRequest, "prompt is required", nil)
}

func NewErrUpstreamUnavailable(cause error) *APIError {
	return newErr(KindUpstreamUnavailable, http.StatusInternalServerError, "generation service unavailable", cause)
}

func NewErrQuotaExceeded(cause error) *APIError {
	return newErr(KindQuotaExceeded, http.StatusTooManyRequests, "generation quota exceeded, try again later", cause)
}

func NewErrChatDisabled() *APIError {
	return newErr(KindChatDisabled, http.StatusServiceUnavailable, "chat is disabled", nil)
}

func NewErrPersistence(cause error) *APIError {
	return newErr(KindPersistence, http.StatusInternalServerError, "internal server error", cause)
}

func NewErrInternalServerError(cause error) *APIError {
	return newErr(KindInternal, http.StatusInternalServerError, "internal server error", cause)
}
