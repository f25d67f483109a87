package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/spo/internal/core/ports/driven"
	"github.com/custodia-labs/spo/internal/logger"
)

// defaultDebounce collapses the burst of events an editor emits on save.
const defaultDebounce = 200 * time.Millisecond

// PromptWatcher reloads a PromptStore whenever a template in its directory
// is created, written, renamed or removed.
type PromptWatcher struct {
	store    driven.PromptStore
	dir      string
	debounce time.Duration
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	reloads int
	running bool
	done    chan struct{}
}

// NewPromptWatcher creates a watcher for the template files in dir.
// The directory must exist.
func NewPromptWatcher(store driven.PromptStore, dir string) (*PromptWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &PromptWatcher{
		store:    store,
		dir:      dir,
		debounce: defaultDebounce,
		watcher:  w,
		done:     make(chan struct{}),
	}, nil
}

// Start begins processing events in a goroutine. It is non-blocking and a
// second call is a no-op.
func (pw *PromptWatcher) Start(ctx context.Context) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	if pw.running {
		return
	}
	pw.running = true
	go pw.run(ctx)
}

func (pw *PromptWatcher) run(ctx context.Context) {
	defer close(pw.done)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if !relevant(event) {
				continue
			}
			logger.Debug("prompt template changed: %s (%s)", filepath.Base(event.Name), event.Op)
			pending = time.After(pw.debounce)

		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("prompt watcher: %v", err)

		case <-pending:
			pending = nil
			pw.store.Reload()
			pw.mu.Lock()
			pw.reloads++
			pw.mu.Unlock()
			logger.Info("prompt templates reloaded from %s", pw.dir)
		}
	}
}

// Reloads reports how many reloads have been triggered.
func (pw *PromptWatcher) Reloads() int {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	return pw.reloads
}

// Stop stops watching and waits for the event loop to exit.
func (pw *PromptWatcher) Stop() error {
	err := pw.watcher.Close()
	pw.mu.Lock()
	running := pw.running
	pw.mu.Unlock()
	if running {
		<-pw.done
	}
	return err
}

func relevant(event fsnotify.Event) bool {
	if !strings.HasSuffix(event.Name, promptExt) {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}
