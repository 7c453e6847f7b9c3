package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	app_errors "drafter/client/internal/errors"
	"drafter/client/internal/export"
	"drafter/client/internal/interfaces"
)

// ChatHandler serves sessions, the active conversation and generation turns.
type ChatHandler struct {
	sessions     interfaces.SessionService
	conversation interfaces.ConversationReader
	chat         interfaces.ChatService
}

func NewChatHandler(sessions interfaces.SessionService, conversation interfaces.ConversationReader, chat interfaces.ChatService) *ChatHandler {
	return &ChatHandler{sessions: sessions, conversation: conversation, chat: chat}
}

// GetSessions godoc
// @Summary      List sessions
// @Description  Refreshes the registry from the backend and lists it newest first. A failed refresh serves the last known list.
// @Tags         Sessions
// @Produce      json
// @Success      200  {object}  SessionListResponse
// @Router       /v1/sessions [get]
func (h *ChatHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Refresh(r.Context()); err != nil {
		slog.Warn("Serving cached session list", "error", err)
	}
	activeID := h.sessions.ActiveID()
	list := h.sessions.Sessions()

	resp := SessionListResponse{Sessions: make([]SessionResponse, 0, len(list)), ActiveID: activeID}
	for _, s := range list {
		item := SessionResponse{
			ID:          s.ID,
			Title:       s.DisplayTitle(),
			HasDocument: s.LastDocument != "",
			Active:      s.ID == activeID,
		}
		if !s.CreatedAt.IsZero() {
			created := s.CreatedAt
			item.CreatedAt = &created
		}
		_, item.TurnRunning = h.chat.ActiveTurn(s.ID)
		resp.Sessions = append(resp.Sessions, item)
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// CreateSession godoc
// @Summary      Start a new session
// @Tags         Sessions
// @Produce      json
// @Success      201  {object}  SessionResponse
// @Failure      502  {object}  ErrorResponse
// @Router       /v1/sessions [post]
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := h.sessions.NewSession(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, SessionResponse{ID: id, Title: "Untitled", Active: true})
}

// SelectSession godoc
// @Summary      Make a session active
// @Description  Loads the session's history into the conversation.
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  ConversationResponse
// @Router       /v1/sessions/{sessionID}/select [post]
func (h *ChatHandler) SelectSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Select(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.conversationResponse())
}

// UpdateSessionTitle godoc
// @Summary      Rename a session
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        sessionID  path  string              true  "Session ID"
// @Param        request    body  UpdateTitleRequest  true  "New title"
// @Success      200  {object}  StatusResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/title [put]
func (h *ChatHandler) UpdateSessionTitle(w http.ResponseWriter, r *http.Request) {
	var req UpdateTitleRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithError(w, err)
		return
	}
	if err := h.sessions.Rename(r.Context(), chi.URLParam(r, "sessionID"), req.Title); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// ClearSession godoc
// @Summary      Clear a session's history
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  StatusResponse
// @Router       /v1/sessions/{sessionID}/clear [post]
func (h *ChatHandler) ClearSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Clear(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// GetConversation godoc
// @Summary      Active conversation
// @Tags         Conversation
// @Produce      json
// @Success      200  {object}  ConversationResponse
// @Router       /v1/conversation [get]
func (h *ChatHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.conversationResponse())
}

// GetDocument godoc
// @Summary      Current document
// @Tags         Conversation
// @Produce      json
// @Success      200  {object}  DocumentResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/document [get]
func (h *ChatHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.conversation.CurrentDocument()
	if !ok {
		respondWithError(w, fmt.Errorf("%w: no document yet", app_errors.ErrNotFound))
		return
	}
	respondWithJSON(w, http.StatusOK, DocumentResponse{
		SessionID: h.conversation.SessionID(),
		Title:     export.DocumentTitle(doc),
		Content:   doc,
	})
}

// HandleSendMessage godoc
// @Summary      Start a generation turn
// @Description  Appends the message and streams the reply into the conversation. Progress is pushed over /v1/events.
// @Tags         Turns
// @Accept       json
// @Produce      json
// @Param        request  body  SendMessageRequest  true  "Message"
// @Success      202  {object}  TurnResponse
// @Success      204
// @Failure      409  {object}  ErrorResponse
// @Router       /v1/turns [post]
func (h *ChatHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := decodeRequest(r, &req); err != nil {
		respondWithError(w, err)
		return
	}

	// The turn outlives this request; it is cancelled through the abort route.
	turn, err := h.chat.Send(context.WithoutCancel(r.Context()), req.Content)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if turn == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondWithJSON(w, http.StatusAccepted, newTurnResponse(turn))
}

// GetActiveTurn godoc
// @Summary      Running turn of a session
// @Tags         Turns
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  TurnResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/turn [get]
func (h *ChatHandler) GetActiveTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	turn, ok := h.chat.ActiveTurn(sessionID)
	if !ok {
		respondWithError(w, fmt.Errorf("%w: no turn running for session %q", app_errors.ErrNotFound, sessionID))
		return
	}
	respondWithJSON(w, http.StatusOK, newTurnResponse(turn))
}

// HandleAbortTurn godoc
// @Summary      Abort the running turn of a session
// @Description  Partial content stays in the conversation.
// @Tags         Turns
// @Produce      json
// @Param        sessionID  path  string  true  "Session ID"
// @Success      200  {object}  StatusResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /v1/sessions/{sessionID}/turn [delete]
func (h *ChatHandler) HandleAbortTurn(w http.ResponseWriter, r *http.Request) {
	if err := h.chat.Abort(chi.URLParam(r, "sessionID")); err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, StatusResponse{Status: "aborted"})
}

func (h *ChatHandler) conversationResponse() ConversationResponse {
	doc, _ := h.conversation.CurrentDocument()
	return ConversationResponse{
		SessionID: h.conversation.SessionID(),
		Messages:  h.conversation.Messages(),
		Document:  doc,
	}
}

// currentDocument returns the document of the active conversation or
// ErrNotFound.
func currentDocument(conversation interfaces.ConversationReader) (string, string, error) {
	doc, ok := conversation.CurrentDocument()
	if !ok || strings.TrimSpace(doc) == "" {
		return "", "", fmt.Errorf("%w: no document yet", app_errors.ErrNotFound)
	}
	return conversation.SessionID(), doc, nil
}
