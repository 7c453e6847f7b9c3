package service

import (
	"sync"

	"github.com/google/uuid"

	"drafter/client/internal/model"
)

// Conversation holds the messages of the active session. All mutations go
// through one mutex, so a renderer never sees a half-applied update.
type Conversation struct {
	mu         sync.RWMutex
	sessionID  string
	messages   []model.Message
	generation uint64
	notifier   model.Notifier
}

// NewConversation returns an empty conversation bound to no session.
func NewConversation(notifier model.Notifier) *Conversation {
	if notifier == nil {
		notifier = model.Discard
	}
	return &Conversation{notifier: notifier}
}

// SessionID is the session whose messages are loaded, or "".
func (c *Conversation) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Messages returns a copy of the ordered messages.
func (c *Conversation) Messages() []model.Message {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// CurrentDocument is the content of the most recent assistant message with
// non-empty content.
func (c *Conversation) CurrentDocument() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return currentDocument(c.messages)
}

func currentDocument(messages []model.Message) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		m := messages[i]
		if m.Role == model.RoleAssistant && m.Content != "" {
			return m.Content, true
		}
	}
	return "", false
}

// Reset replaces the conversation wholesale, e.g. after a session switch.
// In-flight turns bound to the previous generation stop applying updates.
func (c *Conversation) Reset(sessionID string, messages []model.Message) {
	c.mu.Lock()
	c.sessionID = sessionID
	c.messages = append([]model.Message(nil), messages...)
	c.generation++
	ev := c.eventLocked()
	c.mu.Unlock()

	c.notifier.Notify(ev)
}

// turnSnapshot is what a turn captures when it starts.
type turnSnapshot struct {
	sessionID   string
	generation  uint64
	priorDoc    string
	hasPriorDoc bool
}

// beginTurn appends the user message and an empty assistant placeholder in one
// step and returns the state the turn must carry from here on.
func (c *Conversation) beginTurn(content string) turnSnapshot {
	c.mu.Lock()
	snap := turnSnapshot{sessionID: c.sessionID, generation: c.generation}
	snap.priorDoc, snap.hasPriorDoc = currentDocument(c.messages)
	c.messages = append(c.messages,
		model.Message{ID: uuid.NewString(), Role: model.RoleUser, Content: content},
		model.Message{ID: uuid.NewString(), Role: model.RoleAssistant},
	)
	ev := c.eventLocked()
	c.mu.Unlock()

	c.notifier.Notify(ev)
	return snap
}

// startDraft replaces the conversation with an unbound one holding prompt and
// an empty assistant placeholder, for a one-shot draft.
func (c *Conversation) startDraft(prompt string) turnSnapshot {
	c.mu.Lock()
	c.sessionID = ""
	c.generation++
	c.messages = []model.Message{
		{ID: uuid.NewString(), Role: model.RoleUser, Content: prompt},
		{ID: uuid.NewString(), Role: model.RoleAssistant},
	}
	snap := turnSnapshot{generation: c.generation}
	ev := c.eventLocked()
	c.mu.Unlock()

	c.notifier.Notify(ev)
	return snap
}

// bindSession records the session a fresh conversation was created for. It
// only applies while the conversation is still the one the turn started on
// and was not yet bound to a session.
func (c *Conversation) bindSession(generation uint64, sessionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false
	}
	if c.sessionID == "" {
		c.sessionID = sessionID
	}
	return c.sessionID == sessionID
}

// replaceDocument swaps the content of the last assistant message. It is a
// no-op when the conversation has moved on to another session or generation.
func (c *Conversation) replaceDocument(sessionID string, generation uint64, content string) bool {
	c.mu.Lock()
	if c.generation != generation || c.sessionID != sessionID {
		c.mu.Unlock()
		return false
	}
	idx := -1
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == model.RoleAssistant {
			idx = i
			break
		}
	}
	if idx < 0 {
		c.mu.Unlock()
		return false
	}
	c.messages[idx].Content = content
	ev := c.eventLocked()
	c.mu.Unlock()

	c.notifier.Notify(ev)
	return true
}

func (c *Conversation) snapshotLocked() []model.Message {
	out := make([]model.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) eventLocked() model.Event {
	return model.Event{
		Kind:      model.EventConversation,
		SessionID: c.sessionID,
		Messages:  c.snapshotLocked(),
	}
}
