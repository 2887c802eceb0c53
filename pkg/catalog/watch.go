package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher re-imports a fixture file into a store whenever it changes on
// disk and reports each reload through OnReload.
type Watcher struct {
	store    *Store
	path     string
	watcher  *fsnotify.Watcher
	onReload func(error)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu       sync.Mutex
	timer    *time.Timer
	debounce time.Duration
}

// NewWatcher prepares a watcher for fixturePath. onReload runs on the
// watcher goroutine after every reload attempt, with the import error if
// any. Call Start to begin watching.
func NewWatcher(store *Store, fixturePath string, onReload func(error)) (*Watcher, error) {
	abs, err := filepath.Abs(fixturePath)
	if err != nil {
		return nil, fmt.Errorf("resolve fixture path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if onReload == nil {
		onReload = func(error) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		store:    store,
		path:     abs,
		watcher:  fw,
		onReload: onReload,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		debounce: 200 * time.Millisecond,
	}, nil
}

// SetDebounce changes the quiet period before a reload. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) { w.debounce = d }

// Start watches the fixture's directory. Editors often replace a file by
// renaming over it, which a watch on the file itself would lose.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch fixture dir: %w", err)
	}
	go w.loop()
	return nil
}

// Stop ends watching and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.cancel()
	_ = w.watcher.Close()
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)
	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.store.logger.Warn("fixture watcher error", "error", err)
		}
	}
}

// schedule restarts the debounce timer so a burst of writes reloads once.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}
	fx, err := LoadFixture(w.path)
	if err == nil {
		err = w.store.Import(w.ctx, fx)
	}
	if err != nil {
		w.store.logger.Warn("fixture reload failed", "path", w.path, "error", err)
	} else {
		w.store.logger.Info("fixture reloaded", "path", w.path)
	}
	w.onReload(err)
}
