package fsevents

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// renamePairWindow is how long a rename waits for its create counterpart
// before being delivered as a plain change on the old path. fsnotify reports
// a rename as a Rename event on the old name followed by a Create on the new
// name; the pair is only implicit in their ordering.
const renamePairWindow = 50 * time.Millisecond

// Watcher implements the FileSystemWatcher port on top of fsnotify. It
// watches a directory tree recursively, adding watches for directories
// created while enabled, and pairs rename/create sequences into rename
// notifications.
type Watcher struct {
	dir    string
	inner  *fsnotify.Watcher
	logger *slog.Logger
	done   chan struct{}

	mu            sync.Mutex
	onChange      func(string)
	onRename      func(string, string)
	onError       func(error)
	enabled       bool
	closed        bool
	watchedDirs   map[string]struct{}
	pendingRename string
	renameTimer   *time.Timer
}

// NewWatcher creates a recursive fsnotify watcher for the directory. Events
// are not delivered until EnableRaisingEvents(true).
func NewWatcher(dir string, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	inner, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		dir:         abs,
		inner:       inner,
		logger:      logger.With("component", "fsevents"),
		done:        make(chan struct{}),
		watchedDirs: make(map[string]struct{}),
	}
	go w.run()
	return w, nil
}

// OnFileChange registers the change handler.
func (w *Watcher) OnFileChange(handler func(fullPath string)) {
	w.mu.Lock()
	w.onChange = handler
	w.mu.Unlock()
}

// OnFileRename registers the rename handler.
func (w *Watcher) OnFileRename(handler func(oldFullPath, newFullPath string)) {
	w.mu.Lock()
	w.onRename = handler
	w.mu.Unlock()
}

// OnError registers the error handler.
func (w *Watcher) OnError(handler func(err error)) {
	w.mu.Lock()
	w.onError = handler
	w.mu.Unlock()
}

// WatchedDirectory returns the absolute root this watcher observes.
func (w *Watcher) WatchedDirectory() string {
	return w.dir
}

// EnableRaisingEvents starts or stops event delivery. Enabling adds watches
// for the root and every existing subdirectory; disabling removes them.
func (w *Watcher) EnableRaisingEvents(enabled bool) {
	w.mu.Lock()
	if w.closed || w.enabled == enabled {
		w.mu.Unlock()
		return
	}
	w.enabled = enabled
	w.mu.Unlock()

	if enabled {
		w.watchTree(w.dir)
		return
	}

	w.mu.Lock()
	dirs := make([]string, 0, len(w.watchedDirs))
	for dir := range w.watchedDirs {
		dirs = append(dirs, dir)
	}
	w.watchedDirs = make(map[string]struct{})
	w.mu.Unlock()

	for _, dir := range dirs {
		// Removal failures mean the directory is already gone.
		_ = w.inner.Remove(dir)
	}
}

// Close stops event delivery and releases the fsnotify watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.enabled = false
	if w.renameTimer != nil {
		w.renameTimer.Stop()
		w.renameTimer = nil
	}
	w.mu.Unlock()

	close(w.done)
	return w.inner.Close()
}

// run pumps fsnotify events and errors until the watcher closes.
func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.inner.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.inner.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	w.mu.Lock()
	if !w.enabled || w.closed {
		w.mu.Unlock()
		return
	}

	switch {
	case event.Op.Has(fsnotify.Rename):
		// Hold the old path until its create counterpart arrives. If none
		// does, flush it as a plain change (moved out of the tree).
		w.flushPendingLocked()
		w.pendingRename = event.Name
		w.renameTimer = time.AfterFunc(renamePairWindow, w.flushPending)
		w.mu.Unlock()
		return

	case event.Op.Has(fsnotify.Create):
		if w.pendingRename != "" {
			oldPath := w.pendingRename
			w.pendingRename = ""
			if w.renameTimer != nil {
				w.renameTimer.Stop()
				w.renameTimer = nil
			}
			renameHandler := w.onRename
			w.mu.Unlock()

			w.watchNewDirs(event.Name)
			if renameHandler != nil {
				renameHandler(oldPath, event.Name)
			}
			return
		}
		changeHandler := w.onChange
		w.mu.Unlock()

		w.watchNewDirs(event.Name)
		if changeHandler != nil {
			changeHandler(event.Name)
		}
		return

	default:
		changeHandler := w.onChange
		w.mu.Unlock()
		if changeHandler != nil {
			changeHandler(event.Name)
		}
	}
}

// flushPending delivers a rename whose create counterpart never arrived.
func (w *Watcher) flushPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushPendingLocked()
}

// flushPendingLocked delivers the held rename path as a change. Caller holds
// w.mu; the handler runs on its own goroutine to stay out of the lock.
func (w *Watcher) flushPendingLocked() {
	if w.pendingRename == "" {
		return
	}
	oldPath := w.pendingRename
	w.pendingRename = ""
	if w.renameTimer != nil {
		w.renameTimer.Stop()
		w.renameTimer = nil
	}
	if handler := w.onChange; handler != nil && w.enabled {
		go handler(oldPath)
	}
}

func (w *Watcher) handleError(err error) {
	w.mu.Lock()
	handler := w.onError
	enabled := w.enabled
	w.mu.Unlock()

	w.logger.Warn("fsnotify error", "error", err)
	if handler != nil && enabled {
		handler(err)
	}
}

// watchTree adds watches for root and every directory below it.
func (w *Watcher) watchTree(root string) {
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		if name := filepath.Base(path); path != root && len(name) > 0 && name[0] == '.' {
			return filepath.SkipDir
		}
		w.addWatch(path)
		return nil
	})
}

// watchNewDirs extends the watch set when a directory appears while enabled.
func (w *Watcher) watchNewDirs(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.watchTree(path)
}

func (w *Watcher) addWatch(dir string) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	if _, ok := w.watchedDirs[dir]; ok {
		w.mu.Unlock()
		return
	}
	w.watchedDirs[dir] = struct{}{}
	w.mu.Unlock()

	if err := w.inner.Add(dir); err != nil {
		w.logger.Warn("watch add failed", "path", dir, "error", err)
		w.mu.Lock()
		delete(w.watchedDirs, dir)
		w.mu.Unlock()
	}
}
