package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads the config file when it changes on disk.
// The parent directory is watched so editors that replace the file are picked up.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(*Config)
}

// NewWatcher starts watching path; onChange receives every successfully reloaded config
func NewWatcher(path string, onChange func(*Config)) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create config watcher: %w", err)
	}

	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(absPath), err)
	}

	return &Watcher{
		path:     absPath,
		watcher:  fsw,
		onChange: onChange,
	}, nil
}

// Run dispatches reloads until ctx is cancelled or the watcher is closed
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				w.reload()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("⚠️ Config watcher error")
		}
	}
}

func (w *Watcher) reload() {
	cfg, err := Load(w.path, true)
	if err != nil {
		log.WithError(err).WithField("path", w.path).Warn("⚠️ Ignoring invalid config reload")
		return
	}

	log.WithField("path", w.path).Info("🔄 Config file reloaded")
	if w.onChange != nil {
		w.onChange(cfg)
	}
}

// Close stops the underlying filesystem watcher
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
