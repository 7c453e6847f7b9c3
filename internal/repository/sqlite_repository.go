package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"drafter/client/internal/model"
)

type sqliteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepository{db: db}
}

func (r *sqliteRepository) AddDownload(ctx context.Context, d *model.Download) error {
	query := "INSERT INTO downloads (id, session_id, format, file_path, size_bytes, created_at) VALUES (?, ?, ?, ?, ?, ?)"
	_, err := r.db.ExecContext(ctx, query, d.ID, d.SessionID, d.Format, d.Path, d.SizeBytes, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("could not insert download: %w", err)
	}
	return nil
}

// ListDownloads returns the newest downloads first. An empty sessionID lists
// downloads of every session; a non-positive limit means no limit.
func (r *sqliteRepository) ListDownloads(ctx context.Context, sessionID string, limit int) ([]model.Download, error) {
	query := "SELECT id, session_id, format, file_path, size_bytes, created_at FROM downloads"
	var args []any
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query downloads: %w", err)
	}
	defer rows.Close()

	downloads := []model.Download{}
	for rows.Next() {
		var d model.Download
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Format, &d.Path, &d.SizeBytes, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("could not scan download: %w", err)
		}
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

func (r *sqliteRepository) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *sqliteRepository) SetSetting(ctx context.Context, key, value string) error {
	query := "INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value"
	_, err := r.db.ExecContext(ctx, query, key, value)
	return err
}
