package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	app_errors "drafter/client/internal/errors"
	"drafter/client/internal/model"
	"drafter/client/internal/service"
)

// This file contains shared DTOs (Data Transfer Objects) for API requests and
// responses and helper functions for sending consistent HTTP responses.

// ErrorResponse defines the standard JSON structure for error messages.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse defines a generic success response for operations that don't
// need to return a full resource.
type StatusResponse struct {
	Status string `json:"status"`
}

// UpdateTitleRequest is the DTO for the session rename endpoint.
type UpdateTitleRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200" example:"Acme Terms of Service"`
}

// SendMessageRequest is the DTO for starting a turn.
type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=20000" example:"Draft terms of service for a cloud security SaaS based in New York"`
}

// GenerateRequest is the DTO for a one-shot draft.
type GenerateRequest struct {
	Prompt       string `json:"prompt" validate:"required,max=20000" example:"Draft terms of service for a cloud cyber SaaS company based in New York"`
	CompanyName  string `json:"company_name,omitempty" validate:"max=200" example:"Acme Cloud"`
	Jurisdiction string `json:"jurisdiction,omitempty" validate:"max=200" example:"New York, USA"`
	Tone         string `json:"tone,omitempty" validate:"max=200" example:"Formal, clear, conservative risk posture"`
}

// DownloadRequest selects the export format.
type DownloadRequest struct {
	Format string `json:"format" validate:"required,oneof=md html" example:"html"`
}

// SessionResponse is a session as the view layer lists it.
type SessionResponse struct {
	ID          string     `json:"session_id"`
	Title       string     `json:"title"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	HasDocument bool       `json:"has_document"`
	Active      bool       `json:"active"`
	TurnRunning bool       `json:"turn_running"`
}

// SessionListResponse wraps the session list.
type SessionListResponse struct {
	Sessions []SessionResponse `json:"sessions"`
	ActiveID string            `json:"active_session_id,omitempty"`
}

// ConversationResponse is the active conversation plus its current document.
type ConversationResponse struct {
	SessionID string          `json:"session_id,omitempty"`
	Messages  []model.Message `json:"messages"`
	Document  string          `json:"document"`
}

// DocumentResponse carries the current document and its display title.
type DocumentResponse struct {
	SessionID string `json:"session_id,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// TurnResponse describes a turn.
type TurnResponse struct {
	ID        string          `json:"turn_id"`
	SessionID string          `json:"session_id,omitempty"`
	State     model.TurnState `json:"state"`
	Error     string          `json:"error,omitempty"`
}

func newTurnResponse(turn *service.Turn) TurnResponse {
	resp := TurnResponse{ID: turn.ID, SessionID: turn.SessionID(), State: turn.State()}
	if err := turn.Err(); err != nil {
		resp.Error = err.Error()
	}
	return resp
}

// respondWithError is the centralized error handling function for the API layer.
// It maps business-layer errors to HTTP status codes and formats a standard
// JSON error response.
func respondWithError(w http.ResponseWriter, err error) {
	var statusCode int
	var message string

	switch {
	case errors.Is(err, app_errors.ErrNotFound):
		statusCode = http.StatusNotFound
		message = "The requested resource was not found."
	case errors.Is(err, app_errors.ErrValidation):
		statusCode = http.StatusBadRequest
		// Validation messages are already descriptive and user-friendly.
		message = err.Error()
	case errors.Is(err, app_errors.ErrTurnInProgress):
		statusCode = http.StatusConflict
		message = "A document is still being generated for this session."
	case errors.Is(err, app_errors.ErrConflict):
		statusCode = http.StatusConflict
		message = "A conflict occurred with the current state of the resource."
	case errors.Is(err, app_errors.ErrSessionUnavailable), errors.Is(err, app_errors.ErrTransport):
		statusCode = http.StatusBadGateway
		message = err.Error()
	default:
		// Anything else is internal; the details stay in the log.
		statusCode = http.StatusInternalServerError
		message = "An unexpected internal server error occurred."
	}

	slog.Warn("Responding with error", "status_code", statusCode, "client_message", message, "internal_error", err)

	respondWithJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondWithJSON marshals payload and writes it with the given status code.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to marshal JSON response", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}
