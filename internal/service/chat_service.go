package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"drafter/client/internal/backend"
	app_errors "drafter/client/internal/errors"
	"drafter/client/internal/export"
	"drafter/client/internal/model"
	"drafter/client/internal/stream"
)

const readBufferSize = 32 << 10

// draftKey is the lock key of turns with no session: one-shot drafts and
// chat turns on a conversation that has none yet.
const draftKey = ""

// textDecoder turns raw body chunks into the document decoded so far.
type textDecoder interface {
	Feed(chunk []byte) (string, bool)
	Close() (string, bool)
	PayloadStarted() bool
}

// Turn is one user message and the streamed assistant reply it triggers.
type Turn struct {
	ID string

	mu        sync.Mutex
	sessionID string
	state     model.TurnState
	err       error
	document  string

	cancel context.CancelCauseFunc
	done   chan struct{}
}

func newTurn() *Turn {
	return &Turn{
		ID:    uuid.NewString(),
		state: model.TurnIdle,
		done:  make(chan struct{}),
	}
}

// SessionID is the session the turn is bound to, or "" while it is still
// waiting for one.
func (t *Turn) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

func (t *Turn) State() model.TurnState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err is nil unless the turn ended aborted or failed.
func (t *Turn) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Document is the latest decoded assistant text of this turn.
func (t *Turn) Document() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.document
}

// Done is closed once the turn reached a terminal state.
func (t *Turn) Done() <-chan struct{} {
	return t.done
}

// Abort cancels the transport. Content decoded so far stays in place.
func (t *Turn) Abort() {
	if t.cancel != nil {
		t.cancel(app_errors.ErrAborted)
	}
}

// Wait blocks until the turn finished or ctx is done.
func (t *Turn) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Turn) set(state model.TurnState, err error) {
	t.mu.Lock()
	t.state = state
	t.err = err
	t.mu.Unlock()
}

func (t *Turn) bind(sessionID string) {
	t.mu.Lock()
	t.sessionID = sessionID
	t.mu.Unlock()
}

func (t *Turn) setDocument(document string) {
	t.mu.Lock()
	t.document = document
	t.mu.Unlock()
}

// ChatService drives generation turns: it resolves the session, pushes the
// checkpoint, reads the stream and feeds decoded text into the conversation.
type ChatService struct {
	backend        backend.Client
	store          *SessionStore
	conversation   *Conversation
	notifier       model.Notifier
	turnTimeout    time.Duration
	requestTimeout time.Duration

	mu     sync.Mutex
	active map[string]*Turn
	wg     sync.WaitGroup
}

// NewChatService creates a ChatService. turnTimeout bounds a whole turn and
// requestTimeout the checkpoint push; zero disables either.
func NewChatService(
	client backend.Client,
	store *SessionStore,
	conversation *Conversation,
	notifier model.Notifier,
	turnTimeout, requestTimeout time.Duration,
) *ChatService {
	if notifier == nil {
		notifier = model.Discard
	}
	return &ChatService{
		backend:        client,
		store:          store,
		conversation:   conversation,
		notifier:       notifier,
		turnTimeout:    turnTimeout,
		requestTimeout: requestTimeout,
		active:         make(map[string]*Turn),
	}
}

// Send starts a turn for input and returns without waiting for the reply.
// Blank input is ignored and yields a nil turn. A second send while a turn for
// the same session is still running is rejected with ErrTurnInProgress.
func (s *ChatService) Send(ctx context.Context, input string) (*Turn, error) {
	content := strings.TrimSpace(input)
	if content == "" {
		return nil, nil
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	turn := newTurn()
	turn.cancel = cancel

	s.mu.Lock()
	if running, ok := s.active[s.conversation.SessionID()]; ok {
		s.mu.Unlock()
		cancel(nil)
		slog.Warn("Rejected message, turn still running", "session_id", running.SessionID(), "turn_id", running.ID)
		return nil, app_errors.ErrTurnInProgress
	}
	snap := s.conversation.beginTurn(content)
	turn.sessionID = snap.sessionID
	s.active[snap.sessionID] = turn
	s.mu.Unlock()

	slog.Info("Starting turn", "turn_id", turn.ID, "session_id", snap.sessionID)
	s.wg.Add(1)
	go s.run(runCtx, turn, snap, content)
	return turn, nil
}

// Generate drafts a document in one shot from a prompt and optional details.
// The conversation is detached from any session and shows the prompt and the
// streamed draft; a later Send on it starts a new session from that draft.
// A blank prompt is ignored and yields a nil turn.
func (s *ChatService) Generate(ctx context.Context, req backend.GenerateRequest) (*Turn, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		return nil, nil
	}
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.Jurisdiction = strings.TrimSpace(req.Jurisdiction)
	req.Tone = strings.TrimSpace(req.Tone)

	runCtx, cancel := context.WithCancelCause(ctx)
	turn := newTurn()
	turn.cancel = cancel

	s.mu.Lock()
	if running, ok := s.active[draftKey]; ok {
		s.mu.Unlock()
		cancel(nil)
		slog.Warn("Rejected draft, another one is still running", "turn_id", running.ID)
		return nil, app_errors.ErrTurnInProgress
	}
	var snap turnSnapshot
	s.store.detach(func() { snap = s.conversation.startDraft(req.Prompt) })
	s.active[draftKey] = turn
	s.mu.Unlock()

	slog.Info("Starting draft", "turn_id", turn.ID, "jurisdiction", req.Jurisdiction)
	s.wg.Add(1)
	go s.runDraft(runCtx, turn, snap, req)
	return turn, nil
}

// Abort cancels the running turn of a session.
func (s *ChatService) Abort(sessionID string) error {
	turn, ok := s.ActiveTurn(sessionID)
	if !ok {
		return fmt.Errorf("%w: no turn running for session %q", app_errors.ErrNotFound, sessionID)
	}
	slog.Info("Aborting turn", "turn_id", turn.ID, "session_id", sessionID)
	turn.Abort()
	return nil
}

// ActiveTurn returns the running turn of a session, if any.
func (s *ChatService) ActiveTurn(sessionID string) (*Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn, ok := s.active[sessionID]
	return turn, ok
}

// Close aborts every running turn and waits for them and for pending
// background refreshes.
func (s *ChatService) Close() {
	s.mu.Lock()
	for _, turn := range s.active {
		turn.Abort()
	}
	s.mu.Unlock()
	s.wg.Wait()
	s.store.WaitBackground()
}

func (s *ChatService) run(ctx context.Context, turn *Turn, snap turnSnapshot, content string) {
	defer s.wg.Done()
	defer close(turn.done)
	defer turn.cancel(nil)

	lockKey := snap.sessionID
	defer s.release(turn, &lockKey)

	if s.turnTimeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, s.turnTimeout)
		defer stop()
	}

	// Step 1: resolve the session the turn runs against. A turn without one
	// always gets a fresh session; the active one may have changed since.
	s.transition(turn, model.TurnAwaitingSession, nil)
	sessionID := snap.sessionID
	if sessionID == "" {
		id, bound, err := s.store.createForTurn(ctx, func(id string) bool {
			return s.conversation.bindSession(snap.generation, id)
		})
		if err != nil {
			s.finish(ctx, turn, "", err)
			return
		}
		if !s.rekey(turn, lockKey, id) {
			s.finish(ctx, turn, id, app_errors.ErrTurnInProgress)
			return
		}
		lockKey = id
		sessionID = id
		if !bound {
			slog.Debug("Conversation moved on before the session was bound", "turn_id", turn.ID, "session_id", id)
		}
	}
	turn.bind(sessionID)

	// Step 2: checkpoint the current document so the backend edits from it
	if snap.hasPriorDoc {
		s.pushCheckpoint(ctx, sessionID, snap.priorDoc)
	}

	// Step 3: open the stream
	body, err := s.backend.OpenChatStream(ctx, sessionID, content)
	if err != nil {
		s.finish(ctx, turn, sessionID, err)
		return
	}
	defer body.Close()
	// Closing the body unblocks a pending Read when the turn is cancelled.
	stopClose := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stopClose()

	s.transition(turn, model.TurnStreaming, nil)

	// Step 4: decode chunks until EOF, abort or error
	err = s.consume(ctx, turn, snap, sessionID, body, stream.NewDecoder())
	s.finish(ctx, turn, sessionID, err)
}

// runDraft streams a one-shot draft. It has no session, so there is no
// checkpoint and nothing to cache afterwards.
func (s *ChatService) runDraft(ctx context.Context, turn *Turn, snap turnSnapshot, req backend.GenerateRequest) {
	defer s.wg.Done()
	defer close(turn.done)
	defer turn.cancel(nil)

	lockKey := draftKey
	defer s.release(turn, &lockKey)

	if s.turnTimeout > 0 {
		var stop context.CancelFunc
		ctx, stop = context.WithTimeout(ctx, s.turnTimeout)
		defer stop()
	}

	body, err := s.backend.Generate(ctx, req)
	if err != nil {
		s.finish(ctx, turn, "", err)
		return
	}
	defer body.Close()
	stopClose := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stopClose()

	s.transition(turn, model.TurnStreaming, nil)

	err = s.consume(ctx, turn, snap, "", body, stream.NewTextDecoder())
	s.finish(ctx, turn, "", err)
}

func (s *ChatService) consume(ctx context.Context, turn *Turn, snap turnSnapshot, sessionID string, body io.Reader, dec textDecoder) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := body.Read(buf)
		if n > 0 && ctx.Err() == nil {
			if out, changed := dec.Feed(buf[:n]); changed {
				s.apply(turn, snap, sessionID, out)
			}
		}
		if errors.Is(err, io.EOF) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if out, changed := dec.Close(); changed {
				s.apply(turn, snap, sessionID, out)
			}
			if !dec.PayloadStarted() {
				slog.Warn("Stream ended without a payload", "turn_id", turn.ID, "session_id", sessionID)
			}
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w: %w", app_errors.ErrTransport, err)
		}
	}
}

func (s *ChatService) apply(turn *Turn, snap turnSnapshot, sessionID, document string) {
	turn.setDocument(document)
	s.conversation.replaceDocument(sessionID, snap.generation, document)
}

func (s *ChatService) pushCheckpoint(ctx context.Context, sessionID, document string) {
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}
	title, _ := export.Heading(document)
	if err := s.backend.PushDocument(ctx, sessionID, document, title); err != nil {
		slog.Warn("Checkpoint push failed, continuing", "session_id", sessionID, "error", err)
	}
}

// finish moves the turn to its terminal state and runs the follow-ups.
func (s *ChatService) finish(ctx context.Context, turn *Turn, sessionID string, err error) {
	state, err := classify(ctx, err)
	document := turn.Document()

	switch state {
	case model.TurnSettled:
		slog.Info("Turn settled", "turn_id", turn.ID, "session_id", sessionID, "chars", len(document))
	case model.TurnAborted:
		slog.Info("Turn aborted", "turn_id", turn.ID, "session_id", sessionID, "chars", len(document))
	default:
		slog.Error("Turn failed", "turn_id", turn.ID, "session_id", sessionID, "error", err)
	}

	if sessionID != "" {
		if state == model.TurnSettled {
			s.store.rememberDocument(sessionID, document)
		}
		s.store.refreshInBackground()
	}
	s.transition(turn, state, err)
}

// classify maps how a turn ended to its terminal state. A user abort or a
// cancelled parent context is an abort; a deadline is a failure.
func classify(ctx context.Context, err error) (model.TurnState, error) {
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		switch {
		case errors.Is(cause, app_errors.ErrAborted):
			return model.TurnAborted, app_errors.ErrAborted
		case errors.Is(cause, context.DeadlineExceeded):
			return model.TurnFailed, fmt.Errorf("generation timed out: %w", context.DeadlineExceeded)
		default:
			return model.TurnAborted, app_errors.ErrAborted
		}
	}
	if err != nil {
		return model.TurnFailed, err
	}
	return model.TurnSettled, nil
}

func (s *ChatService) transition(turn *Turn, state model.TurnState, err error) {
	turn.set(state, err)
	ev := model.Event{
		Kind:      model.EventTurn,
		SessionID: turn.SessionID(),
		TurnID:    turn.ID,
		State:     state,
	}
	if err != nil {
		ev.Error = err.Error()
	}
	s.notifier.Notify(ev)
}

// rekey moves the turn lock from the unbound key to the resolved session.
func (s *ChatService) rekey(turn *Turn, from, to string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if other, ok := s.active[to]; ok && other != turn {
		return false
	}
	if s.active[from] == turn {
		delete(s.active, from)
	}
	s.active[to] = turn
	return true
}

func (s *ChatService) release(turn *Turn, key *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[*key] == turn {
		delete(s.active, *key)
	}
	// The unbound key may still point at the turn if rekeying failed.
	if s.active[""] == turn {
		delete(s.active, "")
	}
}
