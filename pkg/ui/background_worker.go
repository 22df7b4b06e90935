// This file implements the ReloadWorker, which reloads data files off the UI
// goroutine when they change on disk.
package ui

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/treegrid/pkg/grid"
	"github.com/vanderheijden86/treegrid/pkg/loader"
	"github.com/vanderheijden86/treegrid/pkg/model"
	"github.com/vanderheijden86/treegrid/pkg/watcher"
)

// WorkerState represents the current state of the reload worker.
type WorkerState int

const (
	// WorkerIdle means the worker is waiting for file changes.
	WorkerIdle WorkerState = iota
	// WorkerProcessing means the worker is loading files.
	WorkerProcessing
	// WorkerStopped means the worker has been stopped.
	WorkerStopped
)

// ReloadError wraps errors with phase and retry context.
type ReloadError struct {
	Phase   string    // "hash", "load", "build"
	Cause   error     // The underlying error
	Time    time.Time // When the error occurred
	Retries int       // Consecutive failures so far
}

func (e ReloadError) Error() string {
	return fmt.Sprintf("%s failed: %v (retries: %d)", e.Phase, e.Cause, e.Retries)
}

func (e ReloadError) Unwrap() error {
	return e.Cause
}

// Sender delivers messages to the running program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// RowsReloadedMsg is sent to the UI when the data files changed and loaded
// cleanly.
type RowsReloadedMsg struct {
	Rows     []*model.Row
	Hash     string
	Duration time.Duration
}

// ReloadErrorMsg is sent to the UI when a reload fails. The UI keeps showing
// the previous rows.
type ReloadErrorMsg struct {
	Err *ReloadError
}

// ReloadWorker owns the file watcher, coalesces change bursts, and loads
// rows off the UI goroutine.
type ReloadWorker struct {
	paths         []string
	debounceDelay time.Duration

	mu       sync.RWMutex
	state    WorkerState
	dirty    bool // a change came in while processing
	forced   bool // the next reload skips the unchanged-content check
	started  bool
	lastHash string

	lastError  *ReloadError
	errorCount int

	watcher *watcher.Watcher
	program Sender

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// WorkerConfig configures the ReloadWorker.
type WorkerConfig struct {
	Paths         []string
	DebounceDelay time.Duration
	Program       Sender
	// InitialHash is the fingerprint of the rows already on screen, so the
	// first change event with identical content is skipped.
	InitialHash string
	// DisableWatch skips the file watcher. TriggerRefresh still reloads.
	DisableWatch bool
}

// NewReloadWorker creates a new reload worker.
func NewReloadWorker(cfg WorkerConfig) (*ReloadWorker, error) {
	ctx, cancel := context.WithCancel(context.Background())

	if cfg.DebounceDelay == 0 {
		cfg.DebounceDelay = watcher.DefaultDebounce
	}

	w := &ReloadWorker{
		paths:         append([]string(nil), cfg.Paths...),
		debounceDelay: cfg.DebounceDelay,
		program:       cfg.Program,
		lastHash:      cfg.InitialHash,
		state:         WorkerIdle,
		ctx:           ctx,
		cancel:        cancel,
		done:          make(chan struct{}),
	}

	if len(cfg.Paths) > 0 && !cfg.DisableWatch {
		fw, err := watcher.NewWatcher(cfg.Paths,
			watcher.WithDebounceDuration(cfg.DebounceDelay),
		)
		if err != nil {
			cancel()
			return nil, err
		}
		w.watcher = fw
	}

	return w, nil
}

// Start begins watching for file changes. It is idempotent.
func (w *ReloadWorker) Start() error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	w.started = true
	w.mu.Unlock()

	if w.watcher != nil {
		if err := w.watcher.Start(); err != nil {
			// processLoop never runs, so Stop must not wait for it.
			close(w.done)
			return err
		}
		go w.processLoop()
	} else {
		// No watcher - close done so Stop() doesn't block
		close(w.done)
	}

	return nil
}

// Stop halts the worker and its watcher. It is idempotent.
func (w *ReloadWorker) Stop() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.state = WorkerStopped
	wasStarted := w.started
	w.mu.Unlock()

	w.cancel()

	if w.watcher != nil {
		w.watcher.Stop()
	}

	if wasStarted {
		select {
		case <-w.done:
		case <-time.After(2 * time.Second):
		}
	}
}

// TriggerRefresh reloads the files now, even when their content is
// unchanged. A refresh requested while one is running is queued behind it.
func (w *ReloadWorker) TriggerRefresh() {
	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	w.forced = true
	if w.state == WorkerProcessing {
		w.dirty = true
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	go w.process()
}

// State returns the current worker state.
func (w *ReloadWorker) State() WorkerState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// LastError returns the most recent error (nil if the last reload succeeded).
func (w *ReloadWorker) LastError() *ReloadError {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastError
}

func (w *ReloadWorker) processLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.watcher.Changed():
			w.process()
		case err := <-w.watcher.Errors():
			log.Printf("warning: watcher: %v", err)
		}
	}
}

func (w *ReloadWorker) process() {
	w.mu.Lock()
	if w.state != WorkerIdle {
		if w.state == WorkerProcessing {
			w.dirty = true
		}
		w.mu.Unlock()
		return
	}
	w.state = WorkerProcessing
	w.dirty = false
	w.mu.Unlock()

	msg := w.reload()

	w.mu.Lock()
	if w.state == WorkerStopped {
		w.mu.Unlock()
		return
	}
	wasDirty := w.dirty
	w.state = WorkerIdle
	w.mu.Unlock()

	if w.program != nil && msg != nil {
		w.program.Send(msg)
	}

	if wasDirty {
		go w.process()
	}
}

// safeCompute executes fn and recovers from any panics.
func (w *ReloadWorker) safeCompute(phase string, fn func() error) *ReloadError {
	var result *ReloadError
	func() {
		defer func() {
			if r := recover(); r != nil {
				result = &ReloadError{
					Phase: phase,
					Cause: fmt.Errorf("panic: %v\n%s", r, debug.Stack()),
					Time:  time.Now(),
				}
			}
		}()
		if err := fn(); err != nil {
			result = &ReloadError{
				Phase: phase,
				Cause: err,
				Time:  time.Now(),
			}
		}
	}()
	return result
}

func (w *ReloadWorker) recordError(err *ReloadError) {
	w.mu.Lock()
	w.lastError = err
	if err != nil {
		w.errorCount++
		err.Retries = w.errorCount
	} else {
		w.errorCount = 0
	}
	w.mu.Unlock()
}

// reload fingerprints and loads the files. It returns the message for the
// UI, or nil when the content is unchanged.
func (w *ReloadWorker) reload() tea.Msg {
	if len(w.paths) == 0 {
		return nil
	}

	start := time.Now()

	var hash string
	if rerr := w.safeCompute("hash", func() error {
		var err error
		hash, err = loader.Fingerprint(w.paths)
		return err
	}); rerr != nil {
		return w.fail(rerr)
	}

	w.mu.Lock()
	lastHash, forced := w.lastHash, w.forced
	w.forced = false
	w.mu.Unlock()
	if hash == lastHash && lastHash != "" && !forced {
		log.Printf("reload: content unchanged (hash=%s), skipping", hashPrefix(hash))
		w.recordError(nil)
		return nil
	}

	var rows []*model.Row
	if rerr := w.safeCompute("load", func() error {
		var err error
		rows, err = loader.LoadAll(w.ctx, w.paths)
		return err
	}); rerr != nil {
		return w.fail(rerr)
	}

	// Ids must be unique across all files before the UI swaps stores.
	if rerr := w.safeCompute("build", func() error {
		_, err := grid.NewStore(rows)
		return err
	}); rerr != nil {
		return w.fail(rerr)
	}

	w.recordError(nil)
	w.mu.Lock()
	w.lastHash = hash
	w.mu.Unlock()

	d := time.Since(start)
	log.Printf("reload: loaded %d top-level rows from %d files in %v (hash=%s)",
		len(rows), len(w.paths), d, hashPrefix(hash))
	return RowsReloadedMsg{Rows: rows, Hash: hash, Duration: d}
}

func (w *ReloadWorker) fail(err *ReloadError) tea.Msg {
	w.recordError(err)
	log.Printf("warning: reload: %v", err)
	return ReloadErrorMsg{Err: err}
}

// hashPrefix returns up to 16 characters of hash for logging.
func hashPrefix(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
