// Package builders provides test data builders shared across packages.
package builders

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TreeBuilder assembles a directory tree on disk for watcher and provider
// tests. Keys are slash-separated relative paths; a nil value creates a
// directory.
type TreeBuilder struct {
	entries map[string][]byte
	stamp   time.Time
}

// NewTree creates an empty tree builder.
func NewTree() *TreeBuilder {
	return &TreeBuilder{entries: make(map[string][]byte)}
}

// WithFile adds a file with content.
func (b *TreeBuilder) WithFile(relPath, content string) *TreeBuilder {
	b.entries[relPath] = []byte(content)
	return b
}

// WithDir adds an empty directory.
func (b *TreeBuilder) WithDir(relPath string) *TreeBuilder {
	b.entries[relPath] = nil
	return b
}

// WithStamp forces every file's modification time.
func (b *TreeBuilder) WithStamp(stamp time.Time) *TreeBuilder {
	b.stamp = stamp
	return b
}

// Build writes the tree under a fresh temp directory and returns its root.
func (b *TreeBuilder) Build(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	for relPath, content := range b.entries {
		full := filepath.Join(root, filepath.FromSlash(relPath))
		if content == nil {
			require.NoError(t, os.MkdirAll(full, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, content, 0o644))
		if !b.stamp.IsZero() {
			require.NoError(t, os.Chtimes(full, b.stamp, b.stamp))
		}
	}

	return root
}
