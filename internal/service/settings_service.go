package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"drafter/client/internal/repository"
)

const activeSessionKey = "active_session_id"

// SettingsService keeps client preferences in the local database. The only
// one so far is the last active session, so a new process resumes where the
// previous one stopped.
type SettingsService struct {
	repo repository.Repository
}

func NewSettingsService(repo repository.Repository) *SettingsService {
	return &SettingsService{repo: repo}
}

// LastSession returns the remembered session ID, or "" when none was stored.
func (s *SettingsService) LastSession(ctx context.Context) (string, error) {
	id, err := s.repo.GetSetting(ctx, activeSessionKey)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("could not read last session: %w", err)
	}
	return id, nil
}

// RememberSession stores id as the session to resume.
func (s *SettingsService) RememberSession(ctx context.Context, id string) error {
	if err := s.repo.SetSetting(ctx, activeSessionKey, id); err != nil {
		slog.Warn("Failed to remember active session", "session_id", id, "error", err)
		return fmt.Errorf("could not store last session: %w", err)
	}
	return nil
}

// Resume selects the remembered session, if any. It reports the selected ID.
func (s *SettingsService) Resume(ctx context.Context, store *SessionStore) (string, error) {
	id, err := s.LastSession(ctx)
	if err != nil || id == "" {
		return "", err
	}
	if err := store.Select(ctx, id); err != nil {
		return "", err
	}
	slog.Info("Resumed last session", "session_id", id)
	return id, nil
}
