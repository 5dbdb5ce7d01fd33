package oauth

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchInterval is the fallback polling interval used when fsnotify
// is unavailable.
const DefaultWatchInterval = 10 * time.Second

// DefaultDebounceInterval is the quiet period after the last file change
// before a reload is triggered. The atomic rename performed by the store can
// surface as several events in quick succession.
const DefaultDebounceInterval = 500 * time.Millisecond

// CredentialWatcher monitors the durable credential record for external
// writes, so a long-running server picks up tokens written by a separate
// `auth login` process. It uses fsnotify with a polling fallback.
type CredentialWatcher struct {
	mu sync.Mutex

	store    *Store
	interval time.Duration
	onChange func()

	fsWatcher   *fsnotify.Watcher
	stopCh      chan struct{}
	running     bool
	lastModTime time.Time

	debounceMu    sync.Mutex
	debounceTimer *time.Timer
}

// WatcherOption configures the CredentialWatcher.
type WatcherOption func(*CredentialWatcher)

// WithWatchInterval sets the fallback polling interval.
func WithWatchInterval(interval time.Duration) WatcherOption {
	return func(w *CredentialWatcher) {
		w.interval = interval
	}
}

// WithOnChange registers a callback invoked after the store has been
// reloaded because of an external change.
func WithOnChange(fn func()) WatcherOption {
	return func(w *CredentialWatcher) {
		w.onChange = fn
	}
}

// NewCredentialWatcher creates a watcher over the store's credential file.
func NewCredentialWatcher(store *Store, opts ...WatcherOption) *CredentialWatcher {
	w := &CredentialWatcher{
		store:    store,
		interval: DefaultWatchInterval,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Start begins watching. It returns immediately; events are processed in the
// background until Stop is called.
func (w *CredentialWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("fsnotify not available, falling back to polling", "error", err.Error())
		go w.pollForChanges()
		return nil
	}

	// Watch the directory, not the file: the store replaces the file via
	// rename, which would detach a file-level watch.
	dir := filepath.Dir(w.store.Path())
	if err := watcher.Add(dir); err != nil {
		slog.Warn("failed to watch credential directory, falling back to polling",
			"dir", dir,
			"error", err.Error(),
		)
		watcher.Close()
		go w.pollForChanges()
		return nil
	}

	w.fsWatcher = watcher
	go w.processEvents(watcher.Events, watcher.Errors)

	slog.Debug("watching credential file for external changes", "path", w.store.Path())
	return nil
}

// Stop terminates the watcher.
func (w *CredentialWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.running = false
	close(w.stopCh)

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}
}

// processEvents handles fsnotify events. The channels are passed in so Stop
// closing the watcher cannot race event processing.
func (w *CredentialWatcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			slog.Warn("credential watcher error", "error", err.Error())
		}
	}
}

// handleEvent reacts to changes of the credential file itself; everything
// else in the directory is ignored.
func (w *CredentialWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.store.Path()) {
		return
	}

	// Remove covers an external logout deleting the credential file; the
	// reload then clears the in-memory state.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return
	}

	w.triggerReloadDebounced()
}

// triggerReloadDebounced schedules a reload after the debounce interval,
// resetting the timer on every new event.
func (w *CredentialWatcher) triggerReloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(DefaultDebounceInterval, w.reload)
}

// reload re-reads the credential file into the store.
func (w *CredentialWatcher) reload() {
	w.mu.Lock()
	running := w.running
	onChange := w.onChange
	w.mu.Unlock()

	if !running {
		return
	}

	if _, err := w.store.Load(); err != nil {
		slog.Warn("failed to reload externally changed credentials", "error", err.Error())
		return
	}

	slog.Info("reloaded credentials after external change", "path", w.store.Path())

	if onChange != nil {
		onChange()
	}
}

// pollForChanges is the fallback when fsnotify cannot be used.
func (w *CredentialWatcher) pollForChanges() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.lastModTime = w.currentModTime()

	for {
		select {
		case <-w.stopCh:
			return

		case <-ticker.C:
			modTime := w.currentModTime()
			if !modTime.Equal(w.lastModTime) {
				w.lastModTime = modTime
				w.triggerReloadDebounced()
			}
		}
	}
}

// currentModTime returns the credential file's modification time, or the
// zero time when the file does not exist.
func (w *CredentialWatcher) currentModTime() time.Time {
	info, err := os.Stat(w.store.Path())
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
