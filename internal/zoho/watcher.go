package zoho

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"zanalytics/pkg/logging"
)

// DefaultWatchInterval is the fallback polling interval for detecting
// refresh token rotation when fsnotify is unavailable.
const DefaultWatchInterval = 30 * time.Second

// DefaultDebounceInterval is the time to wait after the last file change
// before re-reading the token, so a rotation that rewrites the file in
// several steps triggers a single reload.
const DefaultDebounceInterval = 500 * time.Millisecond

// CredentialWatcherConfig holds configuration for the credential watcher.
type CredentialWatcherConfig struct {
	// Path is the refresh token file to watch.
	Path string

	// WatchInterval is the fallback polling interval when fsnotify is not
	// available.
	WatchInterval time.Duration

	// OnRotate is called with the new refresh token after the file changes.
	OnRotate func(token string)
}

// CredentialWatcher monitors the refresh token file for rotation and feeds
// the new token to the client. It uses fsnotify for efficient file system
// monitoring with a fallback to polling for environments where fsnotify is
// not available or reliable.
type CredentialWatcher struct {
	mu sync.Mutex

	config CredentialWatcherConfig

	// fsWatcher is the fsnotify watcher (may be nil if fsnotify is unavailable)
	fsWatcher *fsnotify.Watcher

	// stopCh signals the watcher to stop
	stopCh chan struct{}

	// running indicates if the watcher is active
	running bool

	// lastModTime tracks the last modification time for fallback polling
	lastModTime time.Time

	// debounceTimer helps prevent rapid successive reloads
	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewCredentialWatcher creates a watcher for the given refresh token file.
func NewCredentialWatcher(config CredentialWatcherConfig) (*CredentialWatcher, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("credential watcher requires a file path")
	}
	if config.WatchInterval == 0 {
		config.WatchInterval = DefaultWatchInterval
	}
	return &CredentialWatcher{config: config}, nil
}

// Start begins watching for refresh token changes.
func (w *CredentialWatcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	// Watch the parent directory rather than the file itself so rotation
	// via rename-into-place is observed.
	dir := filepath.Dir(w.config.Path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("CredentialWatcher", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges()
		return nil
	}

	w.fsWatcher = watcher

	if err := w.fsWatcher.Add(dir); err != nil {
		logging.Warn("CredentialWatcher", "Failed to watch directory %s, falling back to polling: %v", dir, err)
		w.fsWatcher.Close()
		w.fsWatcher = nil
		go w.pollForChanges()
		return nil
	}

	// Capture channels before releasing lock to avoid race conditions
	eventsCh := w.fsWatcher.Events
	errorsCh := w.fsWatcher.Errors

	go w.processEvents(eventsCh, errorsCh)

	logging.Info("CredentialWatcher", "Started watching %s for refresh token rotation", w.config.Path)
	return nil
}

// processEvents handles fsnotify events.
// The channels are passed as parameters to avoid race conditions with Stop().
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
			logging.Error("CredentialWatcher", err, "fsnotify error")
		}
	}
}

// handleEvent processes a single fsnotify event.
func (w *CredentialWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.config.Path) {
		return
	}

	// Only handle write, create, and rename events; rotation tooling
	// typically writes a temp file and renames it into place.
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	logging.Debug("CredentialWatcher", "Refresh token file changed: %s", event.Name)

	w.triggerReloadDebounced()
}

// triggerReloadDebounced reloads the token after a debounce period. This
// prevents multiple rapid reloads when the file is rewritten in steps.
func (w *CredentialWatcher) triggerReloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}

	w.debounceTimer = time.AfterFunc(DefaultDebounceInterval, func() {
		w.mu.Lock()
		running := w.running
		callback := w.config.OnRotate
		w.mu.Unlock()

		if !running || callback == nil {
			return
		}

		token, err := readTokenFile(w.config.Path)
		if err != nil {
			logging.Warn("CredentialWatcher", "Skipping rotation, could not read %s: %v", w.config.Path, err)
			return
		}
		callback(token)
	})
}

// pollForChanges implements fallback polling when fsnotify is not available.
func (w *CredentialWatcher) pollForChanges() {
	ticker := time.NewTicker(w.config.WatchInterval)
	defer ticker.Stop()

	if info, err := os.Stat(w.config.Path); err == nil {
		w.lastModTime = info.ModTime()
	}

	for {
		select {
		case <-w.stopCh:
			return

		case <-ticker.C:
			if w.checkForChanges() {
				logging.Debug("CredentialWatcher", "Refresh token change detected via polling")
				w.triggerReloadDebounced()
			}
		}
	}
}

// checkForChanges checks if the token file has been modified.
func (w *CredentialWatcher) checkForChanges() bool {
	info, err := os.Stat(w.config.Path)
	if err != nil {
		return false
	}

	modTime := info.ModTime()
	changed := !w.lastModTime.IsZero() && modTime.After(w.lastModTime)
	w.lastModTime = modTime
	return changed
}

// Stop gracefully stops the credential watcher.
func (w *CredentialWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("CredentialWatcher", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}

	logging.Info("CredentialWatcher", "Stopped credential watcher")
	return nil
}

// IsRunning returns whether the watcher is currently active.
func (w *CredentialWatcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// readTokenFile reads and trims the refresh token file. An empty file is an
// error so a half-written rotation never wipes working credentials.
func readTokenFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("refresh token file %s is empty", path)
	}
	return token, nil
}
