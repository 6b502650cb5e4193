package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dtroode/gophchat-server/internal/api/http/middleware"
	"github.com/dtroode/gophchat-server/internal/apierrors"
	"github.com/dtroode/gophchat-server/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err onto a status and a message safe for clients. Server
// side failures are logged with their cause.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		apiErr = apierrors.NewErrInternalServerError(err)
	}

	if apiErr.HTTPCode >= http.StatusInternalServerError {
		log.Error("HTTP handler: request failed",
			"request_id", middleware.RequestID(r.Context()),
			"status", apiErr.HTTPCode,
			"kind", apiErr.Kind,
			"error", err.Error())
	}

	writeJSON(w, apiErr.HTTPCode, errorResponse{Error: apiErr.Message})
}
