package interfaces

import (
	"context"

	"drafter/client/internal/backend"
	"drafter/client/internal/model"
	"drafter/client/internal/service"
)

// This file defines the interfaces for our core services.
// The API layer depends on these instead of the concrete types so handlers can
// be tested against mocks.

// SessionService manages the session registry and the active session.
type SessionService interface {
	Refresh(ctx context.Context) error
	Sessions() []model.Session
	ActiveID() string
	NewSession(ctx context.Context) (string, error)
	Select(ctx context.Context, id string) error
	Rename(ctx context.Context, id, title string) error
	Clear(ctx context.Context, id string) error
}

// ConversationReader exposes the messages of the active session.
type ConversationReader interface {
	SessionID() string
	Messages() []model.Message
	CurrentDocument() (string, bool)
}

// ChatService starts and cancels generation turns.
type ChatService interface {
	Send(ctx context.Context, input string) (*service.Turn, error)
	Generate(ctx context.Context, req backend.GenerateRequest) (*service.Turn, error)
	Abort(sessionID string) error
	ActiveTurn(sessionID string) (*service.Turn, bool)
}

// ExportService copies and downloads documents.
type ExportService interface {
	Copy(ctx context.Context, text string)
	DownloadSource(ctx context.Context, sessionID, text string) (*model.Download, error)
	DownloadRendered(ctx context.Context, sessionID, text string) (*model.Download, error)
	Downloads(ctx context.Context, sessionID string, limit int) ([]model.Download, error)
}
