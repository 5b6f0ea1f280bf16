package config

import (
	"log/slog"
	"path/filepath"

	"retrieval-planner/internal/usecase"

	"github.com/fsnotify/fsnotify"
)

// OverridesWatcher reloads the pipeline overrides file when it changes and
// swaps the merged config into the shared ConfigSource. A file that fails to
// parse or validate is logged and skipped; the active config stays in place.
type OverridesWatcher struct {
	path     string
	source   *usecase.ConfigSource
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	stopChan chan struct{}
}

// NewOverridesWatcher creates a watcher for the given overrides file.
func NewOverridesWatcher(path string, source *usecase.ConfigSource, logger *slog.Logger) (*OverridesWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory, not the file: editors and configmap mounts
	// replace the file, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, err
	}
	return &OverridesWatcher{
		path:     path,
		source:   source,
		watcher:  watcher,
		logger:   logger,
		stopChan: make(chan struct{}),
	}, nil
}

func (w *OverridesWatcher) Start() {
	w.logger.Info("overrides_watcher_started", slog.String("path", w.path))
	go w.run()
}

func (w *OverridesWatcher) Stop() {
	w.logger.Info("overrides_watcher_stopped")
	close(w.stopChan)
	_ = w.watcher.Close()
}

func (w *OverridesWatcher) run() {
	for {
		select {
		case <-w.stopChan:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("overrides_watch_error", slog.String("error", err.Error()))
		}
	}
}

func (w *OverridesWatcher) reload() {
	merged, err := BuildPipelineConfig(w.path)
	if err != nil {
		w.logger.Error("overrides_reload_rejected",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}
	if err := w.source.Swap(merged); err != nil {
		w.logger.Error("overrides_reload_rejected",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}
	w.logger.Info("overrides_reloaded", slog.String("path", w.path))
}
