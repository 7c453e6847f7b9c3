package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"drafter/client/internal/config"
	"drafter/client/internal/model"
	mock_repo "drafter/client/internal/repository/mocks"
	"drafter/client/internal/service"
)

func newTestConfig(t *testing.T, backendURL string) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		BackendURL:       backendURL,
		ListenAddr:       "127.0.0.1:0",
		DatabasePath:     filepath.Join(dir, "drafter.db"),
		ExportDir:        dir,
		RequestTimeout:   2 * time.Second,
		LogLevel:         "DEBUG",
		SourceFilename:   "terms-of-service.md",
		RenderedFilename: "terms-of-service.html",
	}
}

func TestNewApp(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	app, err := NewApp(newTestConfig(t, backend.URL))
	require.NoError(t, err)
	require.NotNil(t, app)

	defer func() { require.NoError(t, app.Close()) }()

	assert.NotNil(t, app.DB)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Chat)
	assert.NotNil(t, app.Exporter)
	assert.Equal(t, "127.0.0.1:0", app.Server.Addr)
}

func TestApp_ResumeRemembersSelectedSession(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/session/list":
			_, _ = w.Write([]byte(`{"sessions":[{"session_id":"s1","document_html":"# Saved"}]}`))
		case "/session/s1/history":
			_, _ = w.Write([]byte(`{"session_id":"s1","messages":[]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer backend.Close()

	cfg := newTestConfig(t, backend.URL)
	ctx := context.Background()

	first, err := NewApp(cfg)
	require.NoError(t, err)
	require.NoError(t, first.Sessions.Refresh(ctx))
	require.NoError(t, first.Sessions.Select(ctx, "s1"))
	require.NoError(t, first.Close())

	second, err := NewApp(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, second.Close()) }()

	second.Resume(ctx)

	assert.Equal(t, "s1", second.Sessions.ActiveID())
	doc, ok := second.Conversation.CurrentDocument()
	require.True(t, ok)
	assert.Equal(t, "# Saved", doc)
}

func TestApp_ResumeWithUnreachableBackend(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	url := backend.URL
	backend.Close()

	app, err := NewApp(newTestConfig(t, url))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	assert.NotPanics(t, func() { app.Resume(context.Background()) })
	assert.Empty(t, app.Sessions.ActiveID())
}

func TestApp_Serve(t *testing.T) {
	app, err := NewApp(newTestConfig(t, "http://127.0.0.1:1"))
	require.NoError(t, err)
	defer func() { require.NoError(t, app.Close()) }()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestFanout(t *testing.T) {
	var got []model.Event
	recorder := model.NotifierFunc(func(e model.Event) { got = append(got, e) })
	n := fanout(recorder, recorder)

	n.Notify(model.Event{Kind: model.EventSessions})
	assert.Len(t, got, 2)
}

func TestSessionMemory(t *testing.T) {
	t.Run("Stores each switch once", func(t *testing.T) {
		repo := mock_repo.NewMockRepository(t)
		repo.On("SetSetting", mock.Anything, "active_session_id", "s1").Return(nil).Once()
		repo.On("SetSetting", mock.Anything, "active_session_id", "s2").Return(nil).Once()
		memory := &sessionMemory{settings: service.NewSettingsService(repo)}

		memory.Notify(model.Event{Kind: model.EventConversation, SessionID: "s1"})
		memory.Notify(model.Event{Kind: model.EventConversation, SessionID: "s1"})
		memory.Notify(model.Event{Kind: model.EventTurn, SessionID: "s2"})
		memory.Notify(model.Event{Kind: model.EventConversation})
		memory.Notify(model.Event{Kind: model.EventConversation, SessionID: "s2"})
	})

	t.Run("Retries after a failed write", func(t *testing.T) {
		repo := mock_repo.NewMockRepository(t)
		repo.On("SetSetting", mock.Anything, "active_session_id", "s1").Return(errors.New("database is locked")).Once()
		repo.On("SetSetting", mock.Anything, "active_session_id", "s1").Return(nil).Once()
		memory := &sessionMemory{settings: service.NewSettingsService(repo), timeout: time.Second}

		memory.Notify(model.Event{Kind: model.EventConversation, SessionID: "s1"})
		memory.Notify(model.Event{Kind: model.EventConversation, SessionID: "s1"})
		memory.Notify(model.Event{Kind: model.EventConversation, SessionID: "s1"})
	})
}
