package physical

import (
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mcortelli/pathwatch/internal/adapters/secondary/matcher"
	"github.com/mcortelli/pathwatch/internal/adapters/secondary/token"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// FilesWatcher maps exact paths and glob patterns to change tokens and fires
// them from OS file events. Tokens are one-shot: a fired token is removed
// from its registry, and the underlying OS watcher is enabled only while at
// least one registration is live.
type FilesWatcher struct {
	root      string
	fsWatcher ports.FileSystemWatcher
	matchers  ports.MatcherFactory
	logger    *slog.Logger

	// mu guards both registries and the enable/disable transitions of the
	// OS watcher.
	mu             sync.Mutex
	exactTokens    map[string]*tokenEntry
	wildcardTokens map[string]*tokenEntry
	enabled        bool
}

// tokenEntry binds a registration to its backing cancellation source.
// matcher is nil for exact-path entries.
type tokenEntry struct {
	source  *token.CancellationSource
	token   *token.CancellationChangeToken
	matcher ports.PathMatcher
}

// NewFilesWatcher creates a watcher rooted at the OS watcher's directory.
func NewFilesWatcher(fsWatcher ports.FileSystemWatcher, matchers ports.MatcherFactory, logger *slog.Logger) *FilesWatcher {
	if logger == nil {
		logger = slog.Default()
	}

	w := &FilesWatcher{
		root:           filepath.Clean(fsWatcher.WatchedDirectory()),
		fsWatcher:      fsWatcher,
		matchers:       matchers,
		logger:         logger.With("component", "physical_watcher"),
		exactTokens:    make(map[string]*tokenEntry),
		wildcardTokens: make(map[string]*tokenEntry),
	}

	fsWatcher.OnFileChange(w.onFileChange)
	fsWatcher.OnFileRename(w.onFileRename)
	fsWatcher.OnError(w.onError)

	return w
}

// Root returns the absolute directory this watcher observes.
func (w *FilesWatcher) Root() string {
	return w.root
}

// CreateFileChangeToken returns a token that fires when the filter's target
// changes. Filters containing "*" or ending in a separator register as
// wildcard entries; anything else registers as an exact relative path.
// Absolute filters and filters escaping the root yield the no-op token.
// Identical filters share one live token.
func (w *FilesWatcher) CreateFileChangeToken(filter string) ports.ChangeToken {
	normalized := matcher.NormalizePath(filter)
	if isInvalidFilter(normalized) {
		return ports.NoopToken
	}

	if strings.Contains(normalized, "*") || strings.HasSuffix(normalized, "/") {
		return w.wildcardToken(normalized)
	}
	return w.exactToken(normalized)
}

func (w *FilesWatcher) exactToken(normalized string) ports.ChangeToken {
	key := strings.ToLower(normalized)

	w.mu.Lock()
	defer w.mu.Unlock()

	if entry, ok := w.exactTokens[key]; ok {
		return entry.token
	}

	entry := newTokenEntry(nil)
	w.exactTokens[key] = entry
	w.enableLocked()
	return entry.token
}

func (w *FilesWatcher) wildcardToken(normalized string) ports.ChangeToken {
	key := matcher.NormalizePattern(normalized)

	w.mu.Lock()
	defer w.mu.Unlock()

	if entry, ok := w.wildcardTokens[key]; ok {
		return entry.token
	}

	m, err := w.matchers.Compile(normalized)
	if err != nil {
		w.logger.Warn("rejecting unparseable filter", "filter", normalized, "error", err)
		return ports.NoopToken
	}

	entry := newTokenEntry(m)
	w.wildcardTokens[key] = entry
	w.enableLocked()
	return entry.token
}

func newTokenEntry(m ports.PathMatcher) *tokenEntry {
	source := token.NewCancellationSource()
	return &tokenEntry{
		source:  source,
		token:   token.NewCancellationChangeToken(source),
		matcher: m,
	}
}

// enableLocked turns the OS watcher on. Caller holds w.mu.
func (w *FilesWatcher) enableLocked() {
	if !w.enabled {
		w.fsWatcher.EnableRaisingEvents(true)
		w.enabled = true
	}
}

// tryDisableLocked turns the OS watcher off when no registrations remain.
// Caller holds w.mu.
func (w *FilesWatcher) tryDisableLocked() {
	if w.enabled && len(w.exactTokens) == 0 && len(w.wildcardTokens) == 0 {
		w.fsWatcher.EnableRaisingEvents(false)
		w.enabled = false
	}
}

// onFileChange handles one OS change event.
func (w *FilesWatcher) onFileChange(fullPath string) {
	w.reportChange(w.relativize(fullPath))
}

// onFileRename handles a rename. Both sides of the rename are reported, and
// when the new path is a directory every descendant is reported under both
// its old and new location so subscriptions on either side fire.
func (w *FilesWatcher) onFileRename(oldFullPath, newFullPath string) {
	w.reportChange(w.relativize(oldFullPath))
	w.reportChange(w.relativize(newFullPath))

	info, err := os.Stat(newFullPath)
	if err != nil || !info.IsDir() {
		// The path may already be gone; the event for the path itself has
		// been reported, which is all that can be done.
		return
	}

	_ = filepath.WalkDir(newFullPath, func(descendant string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if descendant == newFullPath {
			return nil
		}
		suffix := strings.TrimPrefix(descendant, newFullPath)
		w.reportChange(w.relativize(oldFullPath + suffix))
		w.reportChange(w.relativize(descendant))
		return nil
	})
}

// onError fires every exact-path token. Pattern registrations stay live.
// The OS watcher is not recreated or restarted here; it keeps its current
// state, and is disabled only when no registrations remain.
func (w *FilesWatcher) onError(err error) {
	w.logger.Warn("os watcher error", "error", err)

	w.mu.Lock()
	fired := make([]*tokenEntry, 0, len(w.exactTokens))
	for key, entry := range w.exactTokens {
		delete(w.exactTokens, key)
		fired = append(fired, entry)
	}
	w.tryDisableLocked()
	w.mu.Unlock()

	for _, entry := range fired {
		entry.source.Cancel()
	}
}

// reportChange fires every registered token matching the relative path and
// removes it from its registry. An empty relative path (a root-level event
// without a filename) is ignored, as are hidden entries.
func (w *FilesWatcher) reportChange(relativePath string) {
	relativePath = matcher.NormalizePath(relativePath)
	if relativePath == "" || hasHiddenSegment(relativePath) {
		return
	}

	var fired []*tokenEntry

	w.mu.Lock()
	key := strings.ToLower(relativePath)
	if entry, ok := w.exactTokens[key]; ok {
		delete(w.exactTokens, key)
		fired = append(fired, entry)
	}
	for pattern, entry := range w.wildcardTokens {
		if entry.matcher.Match(relativePath) {
			delete(w.wildcardTokens, pattern)
			fired = append(fired, entry)
		}
	}
	if len(fired) > 0 {
		w.tryDisableLocked()
	}
	w.mu.Unlock()

	// Sources are cancelled outside the lock; each cancel dispatches user
	// callbacks onto their own goroutines.
	for _, entry := range fired {
		entry.source.Cancel()
	}
}

// relativize maps an absolute event path to a slash-separated path relative
// to the root. Paths outside the root map to "" and are ignored upstream.
func (w *FilesWatcher) relativize(fullPath string) string {
	rel, err := filepath.Rel(w.root, filepath.Clean(fullPath))
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return ""
	}
	return rel
}

// Close disables event delivery and releases the OS watcher.
func (w *FilesWatcher) Close() error {
	w.mu.Lock()
	w.enabled = false
	w.mu.Unlock()
	return w.fsWatcher.Close()
}

// isInvalidFilter rejects filters that cannot name anything under the root:
// empty strings, absolute paths, and paths escaping via "..".
func isInvalidFilter(normalized string) bool {
	if normalized == "" {
		return true
	}
	if strings.HasPrefix(normalized, "/") {
		return true
	}
	// Windows-style drive or UNC prefixes are absolute too.
	if len(normalized) >= 2 && normalized[1] == ':' {
		return true
	}
	cleaned := path.Clean(normalized)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return true
	}
	return false
}

// hasHiddenSegment reports whether any segment of the relative path names a
// dotfile or dot-directory. Events under hidden entries never fire tokens.
func hasHiddenSegment(relativePath string) bool {
	for _, segment := range strings.Split(relativePath, "/") {
		if strings.HasPrefix(segment, ".") {
			return true
		}
	}
	return false
}
