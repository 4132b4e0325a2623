package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/ytdlpd/internal/foundation/errors"
	"git.home.luguber.info/inful/ytdlpd/internal/logfields"
	"git.home.luguber.info/inful/ytdlpd/internal/store"
)

// ConfigNormalizer rewrites one stored config in canonical form.
type ConfigNormalizer interface {
	Normalize(name string) (store.NormalizeResult, error)
}

// ConfigWatcher monitors the configs directory and normalizes config files
// that are written by hand. Normalize leaves canonical files untouched, so
// the watcher's own rewrites settle after one extra event.
type ConfigWatcher struct {
	dir      string
	configs  ConfigNormalizer
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu       sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
	stopped  bool
	stopChan chan struct{}
}

// NewConfigWatcher creates a watcher for dir.
func NewConfigWatcher(dir string, configs ConfigNormalizer, debounce time.Duration) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to resolve configs directory: %w", err)
	}

	return &ConfigWatcher{
		dir:      absDir,
		configs:  configs,
		watcher:  watcher,
		debounce: debounce,
		pending:  make(map[string]struct{}),
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins monitoring the configs directory.
func (cw *ConfigWatcher) Start(ctx context.Context) error {
	if err := cw.watcher.Add(cw.dir); err != nil {
		return fmt.Errorf("failed to watch configs directory %s: %w", cw.dir, err)
	}

	slog.Info("Starting config watcher", logfields.Path(cw.dir), logfields.Duration(cw.debounce))
	go cw.watchLoop(ctx)
	return nil
}

// Stop stops the watcher and drops pending normalizations.
func (cw *ConfigWatcher) Stop() error {
	cw.mu.Lock()
	if cw.stopped {
		cw.mu.Unlock()
		return nil
	}
	cw.stopped = true
	close(cw.stopChan)
	if cw.timer != nil {
		cw.timer.Stop()
		cw.timer = nil
	}
	cw.mu.Unlock()

	slog.Info("Stopping config watcher")
	return cw.watcher.Close()
}

func (cw *ConfigWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-cw.stopChan:
			return
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			name, ok := configName(event.Name)
			if !ok {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				slog.Debug("Config change detected", logfields.Config(name), slog.String("op", event.Op.String()))
				cw.enqueue(name)
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				slog.Debug("Config removed", logfields.Config(name))
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Config watcher error", logfields.Error(err))
		}
	}
}

// configName maps a watched path to a config name; temp and hidden files are skipped.
func configName(path string) (string, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || !strings.HasSuffix(base, store.ConfigExt) {
		return "", false
	}
	name := strings.TrimSuffix(base, store.ConfigExt)
	return name, name != ""
}

// enqueue marks name as changed and restarts the debounce timer.
func (cw *ConfigWatcher) enqueue(name string) {
	cw.mu.Lock()
	defer cw.mu.Unlock()
	if cw.stopped {
		return
	}
	cw.pending[name] = struct{}{}
	if cw.timer == nil {
		cw.timer = time.AfterFunc(cw.debounce, cw.flush)
		return
	}
	cw.timer.Reset(cw.debounce)
}

func (cw *ConfigWatcher) flush() {
	cw.mu.Lock()
	if cw.stopped {
		cw.mu.Unlock()
		return
	}
	names := make([]string, 0, len(cw.pending))
	for name := range cw.pending {
		names = append(names, name)
	}
	clear(cw.pending)
	cw.timer = nil
	cw.mu.Unlock()

	slices.Sort(names)
	for _, name := range names {
		res, err := cw.configs.Normalize(name)
		switch {
		case errors.HasCategory(err, errors.CategoryNotFound):
			slog.Debug("Changed config disappeared before normalization", logfields.Config(name))
		case err != nil:
			slog.Warn("Failed to normalize changed config", logfields.Config(name), logfields.Error(err))
		case res.Changed:
			slog.Info("Normalized config after change", logfields.Config(name))
		}
	}
}
