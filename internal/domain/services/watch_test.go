package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcortelli/pathwatch/internal/adapters/secondary/token"
	"github.com/mcortelli/pathwatch/internal/domain/entities"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// feedProvider hands out a fresh cancellation token per Watch call.
type feedProvider struct {
	mu      sync.Mutex
	sources map[string][]*token.CancellationSource
}

func newFeedProvider() *feedProvider {
	return &feedProvider{sources: make(map[string][]*token.CancellationSource)}
}

func (p *feedProvider) GetFileInfo(subpath string) ports.FileInfo {
	return ports.NewNotFoundFileInfo(subpath)
}

func (p *feedProvider) GetDirectoryContents(subpath string) ports.DirectoryContents {
	return ports.NotFoundDirectoryContents{}
}

func (p *feedProvider) Watch(filter string) ports.ChangeToken {
	p.mu.Lock()
	defer p.mu.Unlock()
	source := token.NewCancellationSource()
	p.sources[filter] = append(p.sources[filter], source)
	return token.NewCancellationChangeToken(source)
}

func (p *feedProvider) latest(filter string) *token.CancellationSource {
	p.mu.Lock()
	defer p.mu.Unlock()
	all := p.sources[filter]
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func (p *feedProvider) watchCount(filter string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sources[filter])
}

// recordingNotifier captures delivered events.
type recordingNotifier struct {
	events chan entities.ChangeEvent
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan entities.ChangeEvent, 16)}
}

func (n *recordingNotifier) NotifyChange(event entities.ChangeEvent) {
	n.events <- event
}

func TestChangeFeedService(t *testing.T) {
	t.Run("requires filters", func(t *testing.T) {
		service := NewChangeFeedService(newFeedProvider(), newRecordingNotifier(), entities.WatchKindEvent, nil)
		assert.Error(t, service.Start(context.Background(), nil))
	})

	t.Run("cannot start twice", func(t *testing.T) {
		service := NewChangeFeedService(newFeedProvider(), newRecordingNotifier(), entities.WatchKindEvent, nil)
		require.NoError(t, service.Start(context.Background(), []string{"**/*"}))
		defer func() { _ = service.Stop() }()

		assert.Error(t, service.Start(context.Background(), []string{"**/*"}))
		assert.True(t, service.IsWatching())
	})

	t.Run("successive changes both reach the notifier", func(t *testing.T) {
		provider := newFeedProvider()
		notifier := newRecordingNotifier()
		service := NewChangeFeedService(provider, notifier, entities.WatchKindEvent, nil)

		require.NoError(t, service.Start(context.Background(), []string{"**/*.go"}))
		defer func() { _ = service.Stop() }()

		// First change.
		require.Eventually(t, func() bool { return provider.watchCount("**/*.go") >= 1 }, 2*time.Second, 5*time.Millisecond)
		provider.latest("**/*.go").Cancel()

		select {
		case event := <-notifier.events:
			assert.Equal(t, "**/*.go", event.Filter)
			assert.Equal(t, entities.WatchKindEvent, event.Kind)
		case <-time.After(2 * time.Second):
			t.Fatal("first change not delivered")
		}

		// The service re-subscribed; a second change is delivered too.
		require.Eventually(t, func() bool { return provider.watchCount("**/*.go") >= 2 }, 2*time.Second, 5*time.Millisecond)
		provider.latest("**/*.go").Cancel()

		select {
		case event := <-notifier.events:
			assert.Equal(t, "**/*.go", event.Filter)
		case <-time.After(2 * time.Second):
			t.Fatal("second change not delivered")
		}
	})

	t.Run("stop releases subscriptions and waits", func(t *testing.T) {
		provider := newFeedProvider()
		notifier := newRecordingNotifier()
		service := NewChangeFeedService(provider, notifier, entities.WatchKindPolling, nil)

		require.NoError(t, service.Start(context.Background(), []string{"a.txt", "b.txt"}))
		require.NoError(t, service.Stop())
		assert.False(t, service.IsWatching())

		// Firing after stop delivers nothing.
		if source := provider.latest("a.txt"); source != nil {
			source.Cancel()
		}
		select {
		case <-notifier.events:
			t.Fatal("event delivered after stop")
		case <-time.After(200 * time.Millisecond):
		}

		require.NoError(t, service.Stop(), "stop is idempotent")
	})
}
