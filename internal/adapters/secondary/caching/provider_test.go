package caching

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcortelli/pathwatch/internal/adapters/secondary/token"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// countingProvider records how often the base provider is consulted.
type countingProvider struct {
	mu        sync.Mutex
	infoCalls map[string]int
	dirCalls  map[string]int
	sources   map[string]*token.CancellationSource
}

func newCountingProvider() *countingProvider {
	return &countingProvider{
		infoCalls: make(map[string]int),
		dirCalls:  make(map[string]int),
		sources:   make(map[string]*token.CancellationSource),
	}
}

func (c *countingProvider) GetFileInfo(subpath string) ports.FileInfo {
	c.mu.Lock()
	c.infoCalls[subpath]++
	c.mu.Unlock()
	return ports.NewNotFoundFileInfo(subpath)
}

func (c *countingProvider) GetDirectoryContents(subpath string) ports.DirectoryContents {
	c.mu.Lock()
	c.dirCalls[subpath]++
	c.mu.Unlock()
	return ports.NotFoundDirectoryContents{}
}

func (c *countingProvider) Watch(filter string) ports.ChangeToken {
	c.mu.Lock()
	defer c.mu.Unlock()
	source := token.NewCancellationSource()
	c.sources[filter] = source
	return token.NewCancellationChangeToken(source)
}

func (c *countingProvider) infoCallCount(subpath string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.infoCalls[subpath]
}

func (c *countingProvider) currentSource(filter string) *token.CancellationSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sources[filter]
}

func TestCachingProvider(t *testing.T) {
	t.Run("second lookup hits the cache", func(t *testing.T) {
		base := newCountingProvider()
		provider, err := NewProvider(base, 16, "", nil)
		require.NoError(t, err)

		provider.GetFileInfo("a.txt")
		provider.GetFileInfo("a.txt")
		assert.Equal(t, 1, base.infoCallCount("a.txt"))

		stats := provider.Stats()
		assert.Equal(t, int64(1), stats.Hits)
		assert.Equal(t, int64(1), stats.Misses)
	})

	t.Run("keys are case-sensitive", func(t *testing.T) {
		base := newCountingProvider()
		provider, err := NewProvider(base, 16, "", nil)
		require.NoError(t, err)

		provider.GetFileInfo("a.txt")
		provider.GetFileInfo("A.txt")
		assert.Equal(t, 1, base.infoCallCount("a.txt"))
		assert.Equal(t, 1, base.infoCallCount("A.txt"))
	})

	t.Run("bounded cache evicts", func(t *testing.T) {
		base := newCountingProvider()
		provider, err := NewProvider(base, 1, "", nil)
		require.NoError(t, err)

		provider.GetFileInfo("a.txt")
		provider.GetFileInfo("b.txt")
		provider.GetFileInfo("a.txt")
		assert.Equal(t, 2, base.infoCallCount("a.txt"))
		assert.GreaterOrEqual(t, provider.Stats().Evictions, int64(1))
	})

	t.Run("watch firing purges both caches", func(t *testing.T) {
		base := newCountingProvider()
		provider, err := NewProvider(base, 16, "**/*", nil)
		require.NoError(t, err)

		provider.GetFileInfo("a.txt")
		provider.GetDirectoryContents("sub")

		source := base.currentSource("**/*")
		require.NotNil(t, source)
		source.Cancel()

		require.Eventually(t, func() bool {
			provider.GetFileInfo("a.txt")
			return base.infoCallCount("a.txt") >= 2
		}, 2*time.Second, 10*time.Millisecond)

		// The provider re-subscribed for the next change.
		require.Eventually(t, func() bool {
			next := base.currentSource("**/*")
			return next != nil && next != source
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("watch delegates to base", func(t *testing.T) {
		base := newCountingProvider()
		provider, err := NewProvider(base, 16, "", nil)
		require.NoError(t, err)

		tok := provider.Watch("x/*")
		require.NotNil(t, tok)
		assert.True(t, tok.ActiveChangeCallbacks())
	})
}
