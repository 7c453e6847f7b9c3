package model

import (
	"strings"
	"time"
)

// Session is one entry of the known-session registry.
type Session struct {
	ID           string    `json:"session_id"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
	Title        string    `json:"document_title,omitempty"`
	LastDocument string    `json:"document_html,omitempty"`
}

// DisplayTitle is the label shown to the user. The placeholder is never stored.
func (s Session) DisplayTitle() string {
	if t := strings.TrimSpace(s.Title); t != "" {
		return t
	}
	return "Untitled"
}

// Role is the closed set of message authors the client knows about.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// NormalizeRole maps a role label from the backend onto Role. The backend uses
// its own vocabulary ("human", "ai", ...); anything that is not recognisably
// the user is treated as the assistant.
func NormalizeRole(external string) Role {
	switch strings.ToLower(strings.TrimSpace(external)) {
	case "human", "user":
		return RoleUser
	default:
		return RoleAssistant
	}
}

// Message is a single entry of the active conversation.
type Message struct {
	ID      string `json:"id"` // Client-side identity only, never sent to the backend.
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TurnState is the lifecycle position of one request/response cycle.
type TurnState string

const (
	TurnIdle            TurnState = "idle"
	TurnAwaitingSession TurnState = "awaiting_session"
	TurnStreaming       TurnState = "streaming"
	TurnSettled         TurnState = "settled"
	TurnAborted         TurnState = "aborted"
	TurnFailed          TurnState = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s TurnState) Terminal() bool {
	return s == TurnSettled || s == TurnAborted || s == TurnFailed
}

// Download is a record of one exported document file.
type Download struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Format    string    `json:"format"`
	Path      string    `json:"path"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	FormatMarkdown = "md"
	FormatHTML     = "html"
)
