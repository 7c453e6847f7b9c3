package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"drafter/client/internal/backend"
	app_errors "drafter/client/internal/errors"
	"drafter/client/internal/model"
)

// SessionStore is the in-memory registry of known sessions plus the identifier
// of the active one. The backend owns persistence; this is a cache that can be
// refreshed at any time.
type SessionStore struct {
	backend      backend.Client
	conversation *Conversation
	notifier     model.Notifier
	timeout      time.Duration

	mu       sync.RWMutex
	sessions map[string]model.Session
	activeID string

	// switchMu serializes every change of the active session: creation,
	// selection and detaching. Concurrent turns cannot create two sessions for
	// one conversation, and a turn resolving its session cannot interleave
	// with a user switching to another one.
	switchMu sync.Mutex

	refreshWG sync.WaitGroup
}

// NewSessionStore wires the registry to the backend and the conversation it
// hydrates on selection. timeout bounds background refreshes; zero disables it.
func NewSessionStore(client backend.Client, conversation *Conversation, notifier model.Notifier, timeout time.Duration) *SessionStore {
	if notifier == nil {
		notifier = model.Discard
	}
	return &SessionStore{
		backend:      client,
		conversation: conversation,
		notifier:     notifier,
		timeout:      timeout,
		sessions:     make(map[string]model.Session),
	}
}

// Refresh fetches the session list and replaces the registry. On failure the
// previous registry is kept.
func (s *SessionStore) Refresh(ctx context.Context) error {
	sessions, err := s.backend.ListSessions(ctx)
	if err != nil {
		slog.Warn("Failed to refresh session list, keeping the previous one", "error", err)
		return fmt.Errorf("could not list sessions: %w", err)
	}

	next := make(map[string]model.Session, len(sessions))
	for _, sess := range sessions {
		next[sess.ID] = sess
	}

	s.mu.Lock()
	s.sessions = next
	list := s.sortedLocked()
	s.mu.Unlock()

	slog.Debug("Session list refreshed", "count", len(list))
	s.notifier.Notify(model.Event{Kind: model.EventSessions, Sessions: list})
	return nil
}

// refreshInBackground runs Refresh detached from the caller's context.
func (s *SessionStore) refreshInBackground() {
	s.refreshWG.Add(1)
	go func() {
		defer s.refreshWG.Done()
		ctx, cancel := s.backgroundContext()
		defer cancel()
		_ = s.Refresh(ctx)
	}()
}

// WaitBackground blocks until background refreshes have finished.
func (s *SessionStore) WaitBackground() {
	s.refreshWG.Wait()
}

func (s *SessionStore) backgroundContext() (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(context.Background(), s.timeout)
	}
	return context.WithCancel(context.Background())
}

// Sessions returns the registry newest first.
func (s *SessionStore) Sessions() []model.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked()
}

func (s *SessionStore) sortedLocked() []model.Session {
	out := make([]model.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Get looks a session up in the registry.
func (s *SessionStore) Get(id string) (model.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// ActiveID is the active session, or "".
func (s *SessionStore) ActiveID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// Ensure returns the active session ID, creating a session when there is none
// or when forceNew is set. A created session becomes active and the registry
// is refreshed in the background.
func (s *SessionStore) Ensure(ctx context.Context, forceNew bool) (string, error) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	return s.ensureLocked(ctx, forceNew)
}

func (s *SessionStore) ensureLocked(ctx context.Context, forceNew bool) (string, error) {
	if id := s.ActiveID(); id != "" && !forceNew {
		return id, nil
	}
	id, err := s.createLocked(ctx)
	if err != nil {
		return "", err
	}
	s.setActive(id)
	s.refreshInBackground()
	return id, nil
}

// createForTurn creates a session for a turn that started without one. The
// session only becomes active when bind accepts it, i.e. the conversation the
// turn started on is still the one on screen.
func (s *SessionStore) createForTurn(ctx context.Context, bind func(id string) bool) (string, bool, error) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	id, err := s.createLocked(ctx)
	if err != nil {
		return "", false, err
	}
	bound := bind(id)
	if bound {
		s.setActive(id)
	}
	s.refreshInBackground()
	return id, bound, nil
}

// createLocked asks the backend for a session and registers it. The caller
// holds switchMu.
func (s *SessionStore) createLocked(ctx context.Context) (string, error) {
	id, err := s.backend.CreateSession(ctx)
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		if !errors.Is(err, app_errors.ErrSessionUnavailable) {
			err = fmt.Errorf("%w: %w", app_errors.ErrSessionUnavailable, err)
		}
		return "", err
	}
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("%w: backend returned no session id", app_errors.ErrSessionUnavailable)
	}

	s.mu.Lock()
	if _, ok := s.sessions[id]; !ok {
		s.sessions[id] = model.Session{ID: id, CreatedAt: time.Now().UTC()}
	}
	s.mu.Unlock()

	slog.Info("Created session", "session_id", id)
	return id, nil
}

func (s *SessionStore) setActive(id string) {
	s.mu.Lock()
	s.activeID = id
	s.mu.Unlock()
}

// detach clears the active session and runs fn while no switch can happen.
func (s *SessionStore) detach(fn func()) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	s.setActive("")
	fn()
}

// NewSession starts a fresh session and clears the conversation for it.
func (s *SessionStore) NewSession(ctx context.Context) (string, error) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	id, err := s.ensureLocked(ctx, true)
	if err != nil {
		return "", err
	}
	s.conversation.Reset(id, nil)
	return id, nil
}

// Select makes id the active session and rebuilds the conversation from its
// history. With no stored history the cached last document, if any, becomes a
// single assistant message.
func (s *SessionStore) Select(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("%w: session id is required", app_errors.ErrValidation)
	}

	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	s.mu.Lock()
	s.activeID = id
	cached, known := s.sessions[id]
	s.mu.Unlock()

	var messages []model.Message
	fallbackDoc := cached.LastDocument

	history, err := s.backend.GetHistory(ctx, id)
	if err != nil {
		slog.Warn("Failed to fetch session history", "session_id", id, "error", err)
	} else {
		messages = historyToMessages(history.Messages)
		if fallbackDoc == "" {
			fallbackDoc = history.Meta.Document
		}
	}

	if len(messages) == 0 && fallbackDoc != "" {
		messages = []model.Message{{ID: uuid.NewString(), Role: model.RoleAssistant, Content: fallbackDoc}}
	}

	s.conversation.Reset(id, messages)
	slog.Info("Selected session", "session_id", id, "known", known, "messages", len(messages))
	return nil
}

func historyToMessages(entries []backend.HistoryEntry) []model.Message {
	messages := make([]model.Message, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, model.Message{
			ID:      uuid.NewString(),
			Role:    model.NormalizeRole(e.Role),
			Content: e.Content,
		})
	}
	return messages
}

// Rename sets a session title. Backend failures leave the registry untouched
// and are returned for the caller to surface or ignore.
func (s *SessionStore) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", app_errors.ErrValidation)
	}
	if err := s.backend.RenameSession(ctx, id, title); err != nil {
		slog.Warn("Failed to rename session", "session_id", id, "error", err)
		return fmt.Errorf("could not rename session: %w", err)
	}
	slog.Info("Renamed session", "session_id", id, "title", title)
	_ = s.Refresh(ctx)
	return nil
}

// Clear drops the stored history of a session. When it is the active session
// the conversation is emptied as well.
func (s *SessionStore) Clear(ctx context.Context, id string) error {
	if err := s.backend.ClearHistory(ctx, id); err != nil {
		return fmt.Errorf("could not clear session history: %w", err)
	}
	if s.conversation.SessionID() == id {
		s.conversation.Reset(id, nil)
	}
	return nil
}

// rememberDocument updates the cached last-known document of a session.
func (s *SessionStore) rememberDocument(id, document string) {
	if id == "" || document == "" {
		return
	}
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		sess = model.Session{ID: id}
	}
	sess.LastDocument = document
	s.sessions[id] = sess
	s.mu.Unlock()
}
