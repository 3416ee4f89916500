package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"resumetailor/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports session files that change on disk. Bursts of events for
// the same file are coalesced over the debounce delay.
type Watcher struct {
	mu sync.Mutex

	dir           string
	debounceDelay time.Duration
	lastModTime   map[string]time.Time
	dirty         map[string]struct{}

	fsWatcher     *fsnotify.Watcher
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onChange func(id string)
	logger   *errors.Logger

	running bool
}

// NewWatcher creates a watcher for the session files in dir
func NewWatcher(dir string, debounceDelay time.Duration, onChange func(id string), logger *errors.Logger) *Watcher {
	if debounceDelay <= 0 {
		debounceDelay = 300 * time.Millisecond
	}
	return &Watcher{
		dir:           dir,
		debounceDelay: debounceDelay,
		lastModTime:   make(map[string]time.Time),
		dirty:         make(map[string]struct{}),
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onChange:      onChange,
		logger:        logger,
	}
}

// Start begins watching the session directory
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("session watcher is already running")
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(w.dir); err != nil {
		_ = fsWatcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", w.dir, err)
	}
	w.fsWatcher = fsWatcher
	w.snapshotModTimes()

	w.running = true
	go w.watchLoop()

	if w.logger != nil {
		w.logger.Info("Session watcher started", "directory", w.dir, "debounce_delay", w.debounceDelay)
	}
	return nil
}

// Run starts the watcher and stops it when ctx is done
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false

	if err := w.fsWatcher.Close(); err != nil {
		return fmt.Errorf("failed to close file watcher: %w", err)
	}
	if w.logger != nil {
		w.logger.Info("Session watcher stopped")
	}
	return nil
}

// IsRunning returns whether the watcher is currently running
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) snapshotModTimes() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if _, ok := IDFromPath(e.Name()); !ok {
			continue
		}
		if info, err := e.Info(); err == nil {
			w.lastModTime[filepath.Join(w.dir, e.Name())] = info.ModTime()
		}
	}
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if id, ok := w.relevant(event); ok {
				w.schedule(id)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogError(err, "Session watcher error")
			}

		case <-w.reloadChan:
			for _, id := range w.drainChanged() {
				w.onChange(id)
			}

		case <-w.stopChan:
			return
		}
	}
}

// relevant filters events down to session files. Temp files and the
// pending directory are ignored; atomic saves surface as a create or
// rename of the final name.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return "", false
	}
	if filepath.Dir(event.Name) != filepath.Clean(w.dir) {
		return "", false
	}
	return IDFromPath(event.Name)
}

func (w *Watcher) schedule(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.dirty[id] = struct{}{}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}

// drainChanged returns the dirty ids whose files changed or disappeared
func (w *Watcher) drainChanged() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	var changed []string
	for id := range w.dirty {
		path := filepath.Join(w.dir, id+recordExt)
		info, err := os.Stat(path)
		if err != nil {
			if _, known := w.lastModTime[path]; known {
				delete(w.lastModTime, path)
				changed = append(changed, id)
			}
			continue
		}
		if last, ok := w.lastModTime[path]; !ok || info.ModTime().After(last) {
			w.lastModTime[path] = info.ModTime()
			changed = append(changed, id)
		}
	}
	clear(w.dirty)
	return changed
}
