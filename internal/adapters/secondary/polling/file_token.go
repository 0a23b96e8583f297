package polling

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/mcortelli/pathwatch/internal/adapters/secondary/token"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// FileChangeToken is a one-shot polling token for a single file. It snapshots
// the file's last-write time at construction and reports a change once the
// observed time differs. Scanning is driven by the polling watcher's timer,
// never by reads of HasChanged.
type FileChangeToken struct {
	path           string
	initialModTime time.Time
	backingSource  *token.CancellationSource
	changed        atomic.Bool
}

// NewFileChangeToken creates a token for the file at path, backed by the
// source the owning watcher will cancel. A zero snapshot time means the file
// was absent when the token was created.
func NewFileChangeToken(path string, source *token.CancellationSource) *FileChangeToken {
	return &FileChangeToken{
		path:           path,
		initialModTime: lastWriteTime(path),
		backingSource:  source,
	}
}

// UpdateHasChanged refreshes the file's last-write time and OR-accumulates
// the change flag. Returns the flag.
func (t *FileChangeToken) UpdateHasChanged() bool {
	if !t.changed.Load() && !lastWriteTime(t.path).Equal(t.initialModTime) {
		t.changed.Store(true)
	}
	return t.changed.Load()
}

// HasChanged reports the accumulated change flag.
func (t *FileChangeToken) HasChanged() bool {
	return t.changed.Load()
}

// ActiveChangeCallbacks always reports true: the owning watcher cancels the
// backing source when the token reports a change.
func (t *FileChangeToken) ActiveChangeCallbacks() bool {
	return true
}

// RegisterChangeCallback delegates to the backing source.
func (t *FileChangeToken) RegisterChangeCallback(callback func(state interface{}), state interface{}) ports.Subscription {
	return t.backingSource.Register(callback, state)
}

// Source returns the backing cancellation source for the owning watcher.
func (t *FileChangeToken) Source() *token.CancellationSource {
	return t.backingSource
}

// lastWriteTime returns the file's modification time, or the zero time for a
// file that does not exist or cannot be examined.
func lastWriteTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
