package repository

import (
	"context"

	"drafter/client/internal/model"
)

// Repository defines the local storage operations of the client. Sessions and
// conversations live on the backend; only client-side records are kept here.
type Repository interface {
	AddDownload(ctx context.Context, download *model.Download) error
	ListDownloads(ctx context.Context, sessionID string, limit int) ([]model.Download, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}
