// Package watcher reports changes to data files.
//
// The watcher follows the directories that contain the files rather than
// the files themselves, so editors that save by writing a temp file and
// renaming it over the original are still noticed.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the files must stay quiet before a change is
// reported.
const DefaultDebounce = 200 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounceDuration sets the quiet period before a change is reported.
func WithDebounceDuration(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher sends one notification on Changed per burst of writes to any of
// its files.
type Watcher struct {
	files map[string]struct{}
	dirs  []string
	fsw   *fsnotify.Watcher

	changed chan struct{}
	errors  chan error

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	debounce  time.Duration
	stopOnce  sync.Once
	startOnce sync.Once
}

// NewWatcher creates a watcher for paths. Nothing is watched until Start.
func NewWatcher(paths []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		files:    make(map[string]struct{}, len(paths)),
		fsw:      fsw,
		changed:  make(chan struct{}, 1),
		errors:   make(chan error, 1),
		ctx:      ctx,
		cancel:   cancel,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}

	seen := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			cancel()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		w.files[abs] = struct{}{}
		if dir := filepath.Dir(abs); !seen[dir] {
			seen[dir] = true
			w.dirs = append(w.dirs, dir)
		}
	}
	return w, nil
}

// Start begins watching. It returns an error if a directory cannot be
// watched.
func (w *Watcher) Start() error {
	var err error
	w.startOnce.Do(func() {
		for _, dir := range w.dirs {
			if addErr := w.fsw.Add(dir); addErr != nil {
				err = fmt.Errorf("watch %s: %w", dir, addErr)
				return
			}
		}
		w.wg.Add(1)
		go w.watchLoop()
	})
	return err
}

// Stop shuts the watcher down and waits for its goroutine to exit. It is
// safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.cancel()
		w.fsw.Close()
		w.wg.Wait()
	})
}

// Changed receives a value after a burst of changes settles. Bursts that
// arrive before the previous value was read are coalesced.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Errors receives watch errors. They do not stop the watcher; errors that
// arrive while one is pending are dropped.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Debounce returns the configured quiet period.
func (w *Watcher) Debounce() time.Duration {
	return w.debounce
}

func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			select {
			case w.changed <- struct{}{}:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// relevant reports whether event touches one of the watched files in a way
// that can change its content.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[abs]
	return ok
}
