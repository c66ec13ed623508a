package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"mindcue/internal/logging"
)

const defaultWatchDebounce = 200 * time.Millisecond

// Watcher reloads the config file when it changes and hands the result to
// OnChange. Editors often write a file in several steps, so events are
// debounced.
type Watcher struct {
	path     string
	onChange func(Config)
	logger   logging.Logger
	debounce time.Duration
}

type WatcherOption func(*Watcher)

func WithWatchLogger(logger logging.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

func NewWatcher(path string, onChange func(Config), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(strings.TrimSpace(path)),
		onChange: onChange,
		logger:   logging.Nop(),
		debounce: defaultWatchDebounce,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Run watches until ctx is canceled. The parent directory is watched so the
// file may be created, replaced or renamed into place.
func (w *Watcher) Run(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	if err := fw.Add(dir); err != nil {
		return err
	}
	w.logger.Debug("config watch started", logging.F("path", w.path))

	var (
		timer  *time.Timer
		reload <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			reload = timer.C
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watch error", logging.F("error", err))
		case <-reload:
			reload = nil
			w.reload()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) reload() {
	cfg, err := LoadFromPath(w.path)
	if err != nil {
		w.logger.Warn("config reload failed", logging.F("path", w.path), logging.F("error", err))
		return
	}
	w.logger.Info("config reloaded", logging.F("path", w.path))
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
