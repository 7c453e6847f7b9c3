package model

// EventKind identifies what part of the client state changed.
type EventKind string

const (
	EventConversation EventKind = "conversation"
	EventSessions     EventKind = "sessions"
	EventTurn         EventKind = "turn"
)

// Event is pushed to observers after every state change. Payload fields are
// snapshots; observers must not assume they stay current.
type Event struct {
	Kind      EventKind `json:"kind"`
	SessionID string    `json:"session_id,omitempty"`
	TurnID    string    `json:"turn_id,omitempty"`
	State     TurnState `json:"state,omitempty"`
	Error     string    `json:"error,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
	Sessions  []Session `json:"sessions,omitempty"`
}

// Notifier receives events. Implementations must not block for long; they are
// called from the goroutine that made the change.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) { f(e) }

// Discard drops all events.
var Discard Notifier = NotifierFunc(func(Event) {})
