// Package handlers exposes the gateway's HTTP API: generate, chat, and
// embeddings endpoints plus provider introspection and health.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aimux/aimux/services/providers"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps successful payloads.
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, statusCode int, errCode, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: errCode, Message: message})
}

// respondAPIError maps the classified error taxonomy onto HTTP statuses.
// Upstream credential and server failures surface as 502: the gateway
// itself is healthy, the provider call failed.
func respondAPIError(w http.ResponseWriter, err error) {
	var apiErr *providers.APIError
	if !errors.As(err, &apiErr) {
		respondError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}

	status := http.StatusInternalServerError
	switch apiErr.Kind {
	case providers.KindProviderNotFound:
		status = http.StatusNotFound
	case providers.KindBadRequest:
		status = http.StatusBadRequest
	case providers.KindRateLimited:
		status = http.StatusTooManyRequests
	case providers.KindTimeout:
		status = http.StatusGatewayTimeout
	case providers.KindServerError, providers.KindUnauthenticated:
		status = http.StatusBadGateway
	case providers.KindUnsupportedCapability:
		status = http.StatusNotImplemented
	}

	respondJSON(w, status, ErrorResponse{
		Error:   string(apiErr.Kind),
		Message: apiErr.Message,
	})
}
