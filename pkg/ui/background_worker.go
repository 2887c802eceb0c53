package ui

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treepick/pkg/loader"
	"github.com/vanderheijden86/treepick/pkg/picker"
)

// WorkerState represents the current state of the background worker.
type WorkerState int

const (
	// WorkerIdle means no fetch is running.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means at least one fetch is running.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

// WorkerError wraps a failed operation with its phase and retry context.
type WorkerError struct {
	Phase   string    // "expand", "search", "refresh", "path", ...
	Cause   error     // The underlying error
	Time    time.Time // When the error occurred
	Retries int       // Consecutive failures including this one
}

func (e WorkerError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e WorkerError) Unwrap() error {
	return e.Cause
}

// StateChangedMsg tells the UI that the picker store changed. The UI reads
// the store itself; several changes may be folded into one message.
type StateChangedMsg struct{}

// LoadDoneMsg is sent when an operation started with Run finishes.
type LoadDoneMsg struct {
	Op  string
	Err *WorkerError
}

// NotificationMsg carries a loader notification to the UI.
type NotificationMsg struct {
	Text     string
	Severity loader.Severity
	Time     time.Time
}

// BackgroundWorker runs loader calls off the UI goroutine and forwards
// store changes and notifications to the program.
type BackgroundWorker struct {
	loader *loader.Loader
	send   func(tea.Msg)
	logger *slog.Logger

	mu         sync.RWMutex
	state      WorkerState
	inflight   int
	started    bool
	lastError  *WorkerError
	errorCount int

	signalled   atomic.Bool
	unsubscribe func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WorkerConfig configures the BackgroundWorker.
type WorkerConfig struct {
	Loader *loader.Loader
	// Send delivers messages to the UI, usually tea.Program.Send.
	Send   func(tea.Msg)
	Logger *slog.Logger
}

// NewBackgroundWorker creates a worker. Loader is required.
func NewBackgroundWorker(cfg WorkerConfig) (*BackgroundWorker, error) {
	if cfg.Loader == nil {
		return nil, fmt.Errorf("background worker: nil loader")
	}
	if cfg.Send == nil {
		cfg.Send = func(tea.Msg) {}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &BackgroundWorker{
		loader: cfg.Loader,
		send:   cfg.Send,
		logger: cfg.Logger,
		state:  WorkerIdle,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// SetSend replaces the message sink. Call before Start.
func (w *BackgroundWorker) SetSend(send func(tea.Msg)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.send = send
}

func (w *BackgroundWorker) sink() func(tea.Msg) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.send
}

// Start subscribes to the picker store. Start is idempotent.
func (w *BackgroundWorker) Start() {
	w.mu.Lock()
	if w.started || w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.started = true
	defer w.mu.Unlock()

	// Subscribers run under the store's notification lock, so the signal is
	// delivered from another goroutine.
	w.unsubscribe = w.loader.Store().Subscribe(func(picker.State) {
		if !w.signalled.CompareAndSwap(false, true) {
			return
		}
		send := w.sink()
		go func() {
			w.signalled.Store(false)
			send(StateChangedMsg{})
		}()
	})
}

// Stop cancels running operations and waits briefly for them to return.
// Stop is idempotent.
func (w *BackgroundWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	unsubscribe := w.unsubscribe
	w.mu.Unlock()

	w.cancel()
	if unsubscribe != nil {
		unsubscribe()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		w.logger.Warn("background worker: operations still running after stop")
	}
}

// State returns the current worker state.
func (w *BackgroundWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// Loader returns the loader the worker drives.
func (w *BackgroundWorker) Loader() *loader.Loader { return w.loader }

// Run executes fn on its own goroutine and sends a LoadDoneMsg when it
// returns. Panics in fn are recovered and reported as errors. Run does
// nothing once the worker is stopped.
func (w *BackgroundWorker) Run(op string, fn func(ctx context.Context, l *loader.Loader) error) {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.inflight++
	w.state = WorkerProcessing
	w.wg.Add(1)
	w.mu.Unlock()

	go func() {
		defer w.wg.Done()
		start := time.Now()
		werr := w.safeCompute(op, func() error { return fn(w.ctx, w.loader) })
		w.recordError(werr)

		w.mu.Lock()
		w.inflight--
		if w.state != WorkerStopped && w.inflight == 0 {
			w.state = WorkerIdle
		}
		stopped := w.state == WorkerStopped
		w.mu.Unlock()

		if werr != nil {
			w.logger.Warn("background operation failed", "op", op, "err", werr.Cause, "retries", werr.Retries)
		} else {
			w.logger.Debug("background operation done", "op", op, "took", time.Since(start))
		}
		if !stopped {
			w.sink()(LoadDoneMsg{Op: op, Err: werr})
		}
	}()
}

// RunCmd wraps Run as a tea.Cmd that yields no message of its own.
func (w *BackgroundWorker) RunCmd(op string, fn func(ctx context.Context, l *loader.Loader) error) tea.Cmd {
	return func() tea.Msg {
		w.Run(op, fn)
		return nil
	}
}

// Notify implements loader.Notifier by forwarding to the UI.
func (w *BackgroundWorker) Notify(message string, severity loader.Severity) {
	msg := NotificationMsg{Text: message, Severity: severity, Time: time.Now()}
	send := w.sink()
	go send(msg)
}

// CatalogReloaded is the reload hook for a catalog fixture watcher: a
// successful reimport refreshes every section of base.
func (w *BackgroundWorker) CatalogReloaded(base string) func(error) {
	return func(err error) {
		if err != nil {
			w.Notify(fmt.Sprintf("Catalog reload failed: %v", err), loader.SeverityError)
			return
		}
		w.Run("refresh", func(ctx context.Context, l *loader.Loader) error {
			return l.RefreshAll(ctx, base)
		})
	}
}

// safeCompute executes fn and recovers from any panics.
// Returns a WorkerError if fn fails or panics, nil otherwise.
func (w *BackgroundWorker) safeCompute(phase string, fn func() error) *WorkerError {
	var result *WorkerError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &WorkerError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &WorkerError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

// recordError tracks an error and updates error state.
func (w *BackgroundWorker) recordError(err *WorkerError) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
}

// LastError returns the most recent error (nil if the last operation
// succeeded).
func (w *BackgroundWorker) LastError() *WorkerError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}
