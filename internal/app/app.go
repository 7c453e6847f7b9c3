package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/viper"

	"drafter/client/internal/api"
	"drafter/client/internal/backend"
	"drafter/client/internal/clipboard"
	"drafter/client/internal/config"
	"drafter/client/internal/database"
	"drafter/client/internal/export"
	"drafter/client/internal/model"
	"drafter/client/internal/repository"
	"drafter/client/internal/service"
)

const shutdownTimeout = 10 * time.Second

// App is the wired object graph shared by the local server and the CLI.
type App struct {
	Config       *config.Config
	DB           *sql.DB
	Hub          *api.Hub
	Conversation *service.Conversation
	Sessions     *service.SessionStore
	Chat         *service.ChatService
	Settings     *service.SettingsService
	Exporter     *export.Exporter
	Server       *http.Server
}

// NewApp opens the local database and builds every service on top of the
// backend client configured in cfg.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.InitDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Debug("Connected to SQLite database", "path", cfg.DatabasePath)

	repo := repository.NewSQLiteRepository(db)
	client := backend.NewClient(cfg.BackendURL)
	settings := service.NewSettingsService(repo)

	hub := api.NewHub()
	notifier := fanout(hub, &sessionMemory{settings: settings, timeout: cfg.RequestTimeout})

	conversation := service.NewConversation(notifier)
	sessions := service.NewSessionStore(client, conversation, notifier, cfg.RequestTimeout)
	chat := service.NewChatService(client, sessions, conversation, notifier, cfg.TurnTimeout, cfg.RequestTimeout)
	exporter := export.NewExporter(repo, export.Options{
		Dir:              cfg.ExportDir,
		SourceFilename:   cfg.SourceFilename,
		RenderedFilename: cfg.RenderedFilename,
		Clipboard:        clipboard.WriteText,
	})

	chatHandler := api.NewChatHandler(sessions, conversation, chat)
	exportHandler := api.NewExportHandler(conversation, exporter)
	router := api.NewRouter(chatHandler, exportHandler, hub)

	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 20 * time.Second,
		WriteTimeout:      0, // Disabled for the websocket endpoint
		IdleTimeout:       120 * time.Second,
	}

	return &App{
		Config:       cfg,
		DB:           db,
		Hub:          hub,
		Conversation: conversation,
		Sessions:     sessions,
		Chat:         chat,
		Settings:     settings,
		Exporter:     exporter,
		Server:       server,
	}, nil
}

// Resume refreshes the session list and reselects the session the previous
// process was working on. Neither step is fatal.
func (a *App) Resume(ctx context.Context) {
	if err := a.Sessions.Refresh(ctx); err != nil {
		slog.Warn("Backend unreachable, starting with an empty session list", "error", err)
	}
	if _, err := a.Settings.Resume(ctx, a.Sessions); err != nil {
		slog.Warn("Could not resume last session", "error", err)
	}
}

// Serve runs the local view API until ctx is cancelled, then shuts it down.
func (a *App) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "addr", a.Server.Addr, "backend", a.Config.BackendURL)
		errCh <- a.Server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.Hub.Close()
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

// Close aborts running turns and releases the database.
func (a *App) Close() error {
	a.Chat.Close()
	a.Hub.Close()
	if err := a.DB.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
		return err
	}
	return nil
}

// Bootstrap loads the configuration, installs the default logger and builds
// the App. The returned cleanup flushes the log file.
func Bootstrap() (*App, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		// slog is not yet configured, so use the default logger for this critical error.
		slog.Error("Failed to load configuration", "error", err)
		return nil, nil, err
	}

	logger, closeLog := config.SetupLogger(cfg.LogFile, config.ParseLevel(cfg.LogLevel))
	slog.SetDefault(logger)
	logConfigSource()

	a, err := NewApp(cfg)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		_ = closeLog()
		return nil, nil, err
	}

	cleanup := func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to shut down cleanly", "error", err)
		}
		_ = closeLog()
	}
	return a, cleanup, nil
}

func logConfigSource() {
	configFileUsed := viper.ConfigFileUsed()
	if configFileUsed != "" {
		slog.Info("Successfully loaded configuration from file.", "file", configFileUsed)
	} else {
		slog.Debug("Configuration file not found. Using environment variables and defaults.")
	}
}

func fanout(notifiers ...model.Notifier) model.Notifier {
	return model.NotifierFunc(func(e model.Event) {
		for _, n := range notifiers {
			n.Notify(e)
		}
	})
}

// sessionMemory stores the session the conversation switched to, so the next
// process can resume it.
type sessionMemory struct {
	settings *service.SettingsService
	timeout  time.Duration

	mu   sync.Mutex
	last string
}

func (m *sessionMemory) Notify(e model.Event) {
	if e.Kind != model.EventConversation || e.SessionID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.SessionID == m.last {
		return
	}

	ctx := context.Background()
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}
	if err := m.settings.RememberSession(ctx, e.SessionID); err == nil {
		m.last = e.SessionID
	}
}
