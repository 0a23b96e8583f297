package fsevents

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnabledWatcher(t *testing.T) (*Watcher, string, chan string) {
	t.Helper()
	dir := t.TempDir()

	w, err := NewWatcher(dir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	changes := make(chan string, 64)
	w.OnFileChange(func(path string) { changes <- path })
	w.EnableRaisingEvents(true)

	// Give the kernel watch a moment to become effective.
	time.Sleep(50 * time.Millisecond)
	return w, dir, changes
}

func waitForPath(t *testing.T, events chan string, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case got := <-events:
			if got == want {
				return
			}
		case <-deadline:
			t.Fatalf("no event for %s", want)
		}
	}
}

func TestWatcherDeliversWrites(t *testing.T) {
	_, dir, changes := newEnabledWatcher(t)

	target := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("content"), 0o644))

	waitForPath(t, changes, target)
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	_, dir, changes := newEnabledWatcher(t)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	waitForPath(t, changes, sub)

	// The new directory is watched too.
	time.Sleep(100 * time.Millisecond)
	nested := filepath.Join(sub, "b.txt")
	require.NoError(t, os.WriteFile(nested, []byte("x"), 0o644))
	waitForPath(t, changes, nested)
}

func TestWatcherPairsRenames(t *testing.T) {
	w, dir, _ := newEnabledWatcher(t)

	oldPath := filepath.Join(dir, "old.txt")
	newPath := filepath.Join(dir, "new.txt")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)

	renames := make(chan [2]string, 8)
	w.OnFileRename(func(oldFull, newFull string) {
		renames <- [2]string{oldFull, newFull}
	})

	require.NoError(t, os.Rename(oldPath, newPath))

	select {
	case pair := <-renames:
		assert.Equal(t, oldPath, pair[0])
		assert.Equal(t, newPath, pair[1])
	case <-time.After(5 * time.Second):
		t.Fatal("rename not delivered")
	}
}

func TestWatcherDisabledDeliversNothing(t *testing.T) {
	w, dir, changes := newEnabledWatcher(t)

	w.EnableRaisingEvents(false)
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "quiet.txt"), []byte("x"), 0o644))

	select {
	case path := <-changes:
		t.Fatalf("unexpected event while disabled: %s", path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil)
	require.NoError(t, err)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}
