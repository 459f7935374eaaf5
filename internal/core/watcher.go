package core

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// SchemaWatcher re-runs a callback whenever a schema file is written.
//
// The parent directory is watched rather than the file itself so editors
// that save by renaming a temporary file are still seen.
type SchemaWatcher struct {
	path    string
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// NewSchemaWatcher creates a watcher for the schema file at path.
// A nil logger falls back to slog.Default().
func NewSchemaWatcher(path string, logger *slog.Logger) (*SchemaWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving schema path %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating schema watcher: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaWatcher{path: abs, logger: logger, watcher: w}, nil
}

// Run blocks until ctx is cancelled, calling onChange after each write to
// the schema file. Errors from onChange are logged and do not stop the loop.
func (w *SchemaWatcher) Run(ctx context.Context, onChange func() error) error {
	defer func() { _ = w.watcher.Close() }()

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}
	w.logger.Info("watching schema", "path", w.path)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debug("schema changed", "path", event.Name, "op", event.Op.String())
			if err := onChange(); err != nil {
				w.logger.Warn("regenerating after schema change failed", "path", w.path, "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("schema watcher error", "error", err)

		case <-ctx.Done():
			w.logger.Debug("schema watcher stopping", "path", w.path)
			return nil
		}
	}
}

func (w *SchemaWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
