// Package clipboard writes text to the system clipboard.
package clipboard

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.design/x/clipboard"
)

var (
	initOnce sync.Once
	initErr  error
)

// Init initializes the clipboard. Safe to call multiple times; the first
// result is remembered.
func Init() error {
	initOnce.Do(func() {
		if err := clipboard.Init(); err != nil {
			slog.Debug("Clipboard unavailable", "error", err)
			initErr = fmt.Errorf("failed to initialize clipboard: %w", err)
			return
		}
		slog.Debug("Clipboard initialized")
	})
	return initErr
}

// WriteText replaces the clipboard contents with text.
func WriteText(text string) error {
	if err := Init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
