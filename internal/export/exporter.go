// Package export turns the current document into clipboard text and
// downloadable files.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	app_errors "drafter/client/internal/errors"
	"drafter/client/internal/model"
	"drafter/client/internal/repository"
)

// ClipboardWriter puts text on the system clipboard.
type ClipboardWriter func(text string) error

// Options configures an Exporter.
type Options struct {
	Dir              string
	SourceFilename   string
	RenderedFilename string
	Clipboard        ClipboardWriter
}

// Exporter writes documents to the export directory and records every
// download in the local ledger.
type Exporter struct {
	repo             repository.Repository
	dir              string
	sourceFilename   string
	renderedFilename string
	clipboard        ClipboardWriter
}

func NewExporter(repo repository.Repository, opts Options) *Exporter {
	e := &Exporter{
		repo:             repo,
		dir:              opts.Dir,
		sourceFilename:   opts.SourceFilename,
		renderedFilename: opts.RenderedFilename,
		clipboard:        opts.Clipboard,
	}
	if e.dir == "" {
		e.dir = "."
	}
	if e.sourceFilename == "" {
		e.sourceFilename = "terms-of-service.md"
	}
	if e.renderedFilename == "" {
		e.renderedFilename = "terms-of-service.html"
	}
	return e
}

// Copy places text on the clipboard. Failures are logged and otherwise
// ignored.
func (e *Exporter) Copy(ctx context.Context, text string) {
	if e.clipboard == nil {
		slog.DebugContext(ctx, "No clipboard configured, skipping copy")
		return
	}
	if err := e.clipboard(text); err != nil {
		slog.WarnContext(ctx, "Copy to clipboard failed", "error", err)
		return
	}
	slog.DebugContext(ctx, "Copied document to clipboard", "chars", len(text))
}

// DownloadSource writes text as-is under the source filename.
func (e *Exporter) DownloadSource(ctx context.Context, sessionID, text string) (*model.Download, error) {
	return e.write(ctx, sessionID, model.FormatMarkdown, e.sourceFilename, []byte(text))
}

// DownloadRendered writes text as a standalone HTML page under the rendered
// filename.
func (e *Exporter) DownloadRendered(ctx context.Context, sessionID, text string) (*model.Download, error) {
	return e.write(ctx, sessionID, model.FormatHTML, e.renderedFilename, RenderPage(text))
}

// Downloads lists the recorded downloads of a session, newest first.
func (e *Exporter) Downloads(ctx context.Context, sessionID string, limit int) ([]model.Download, error) {
	downloads, err := e.repo.ListDownloads(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("could not list downloads: %w", err)
	}
	return downloads, nil
}

func (e *Exporter) write(ctx context.Context, sessionID, format, name string, payload []byte) (*model.Download, error) {
	if err := os.MkdirAll(e.dir, 0750); err != nil {
		return nil, fmt.Errorf("%w: could not create export directory: %w", app_errors.ErrInternal, err)
	}
	path := filepath.Join(e.dir, name)
	if err := os.WriteFile(path, payload, 0600); err != nil {
		return nil, fmt.Errorf("%w: could not write %s: %w", app_errors.ErrInternal, name, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	d := &model.Download{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Format:    format,
		Path:      path,
		SizeBytes: int64(len(payload)),
		CreatedAt: time.Now().UTC(),
	}
	if err := e.repo.AddDownload(ctx, d); err != nil {
		slog.WarnContext(ctx, "Failed to record download", "path", path, "error", err)
	}
	slog.InfoContext(ctx, "Document downloaded", "session_id", sessionID, "format", format, "path", path, "bytes", d.SizeBytes)
	return d, nil
}
