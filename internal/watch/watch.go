package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

// DefaultDebounce collapses the burst of events editors produce on save.
const DefaultDebounce = 300 * time.Millisecond

// Watcher reruns a function whenever one file is written or recreated.
type Watcher struct {
	path     string
	logger   hclog.Logger
	Debounce time.Duration
}

// New creates a Watcher for path.
func New(path string, logger hclog.Logger) *Watcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Watcher{path: filepath.Clean(path), logger: logger, Debounce: DefaultDebounce}
}

// Watch runs fn once and then after every change of path, until ctx is done.
func Watch(ctx context.Context, path string, logger hclog.Logger, fn func(ctx context.Context) error) error {
	return New(path, logger).Run(ctx, fn)
}

// Run runs fn once and then after every settled change of the file. The
// parent directory is watched so that editors replacing the file on save are
// followed. Errors from fn are logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}
	w.logger.Info("watching for changes", "file", w.path)

	w.invoke(ctx, fn)

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ticker := time.NewTicker(debounce / 2)
	defer ticker.Stop()

	var lastEvent time.Time
	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("watch stopped", "file", w.path)
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !w.isRelevant(event) {
				continue
			}
			w.logger.Debug("file changed", "file", w.path, "op", event.Op.String())
			lastEvent = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("file watcher error", "error", err)

		case <-ticker.C:
			if lastEvent.IsZero() || time.Since(lastEvent) < debounce {
				continue
			}
			lastEvent = time.Time{}
			w.invoke(ctx, fn)
		}
	}
}

func (w *Watcher) isRelevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (w *Watcher) invoke(ctx context.Context, fn func(ctx context.Context) error) {
	if ctx.Err() != nil {
		return
	}
	if err := fn(ctx); err != nil {
		w.logger.Error("run after change failed", "file", w.path, "error", err)
	}
}
