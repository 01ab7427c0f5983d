package server

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher calls onChange once a local CSV file has stopped changing for the
// debounce window. It watches the parent directory so that editors which
// save by renaming a temp file over the original are still seen.
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(ctx context.Context)
	log      *zap.Logger
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	pending time.Time // zero when nothing is waiting
	stats   WatcherStats
}

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	Events    int
	Reloads   int
	Errors    int
	LastEvent time.Time
	LastOp    string
}

func NewWatcher(path string, debounce time.Duration, onChange func(ctx context.Context), log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		onChange: onChange,
		log:      log,
		watcher:  fw,
	}, nil
}

// Run processes events until ctx is done, then closes the underlying watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	w.log.Info("watching for changes", zap.String("path", w.path), zap.Duration("debounce", w.debounce))

	tick := time.NewTicker(max(w.debounce/4, 10*time.Millisecond))
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-tick.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return // chmod
	}

	w.log.Debug("file event", zap.String("path", event.Name), zap.String("op", event.Op.String()))

	now := time.Now()
	w.mu.Lock()
	w.pending = now
	w.stats.Events++
	w.stats.LastEvent = now
	w.stats.LastOp = event.Op.String()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.stats.Reloads++
	w.mu.Unlock()

	w.onChange(ctx)
}

func (w *Watcher) Stats() WatcherStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}
