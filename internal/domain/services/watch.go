package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcortelli/pathwatch/internal/domain/entities"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// ChangeFeedService turns the provider's one-shot change tokens into a
// continuous stream of change events: after every firing it re-subscribes to
// the same filter and forwards the event to the notifier.
type ChangeFeedService struct {
	provider ports.FileProvider
	notifier ports.ChangeNotifier
	kind     entities.WatchKind
	logger   *slog.Logger

	mu          sync.Mutex
	watching    bool
	watchCancel context.CancelFunc
	done        sync.WaitGroup
}

// NewChangeFeedService creates a new change feed service
func NewChangeFeedService(
	provider ports.FileProvider,
	notifier ports.ChangeNotifier,
	kind entities.WatchKind,
	logger *slog.Logger,
) *ChangeFeedService {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChangeFeedService{
		provider: provider,
		notifier: notifier,
		kind:     kind,
		logger:   logger.With("service", "change_feed"),
	}
}

// Start begins watching the filters until the context is cancelled.
func (s *ChangeFeedService) Start(ctx context.Context, filters []string) error {
	if len(filters) == 0 {
		return errors.New("no filters to watch")
	}

	s.mu.Lock()
	if s.watching {
		s.mu.Unlock()
		return errors.New("already watching")
	}
	s.watching = true
	watchCtx, cancel := context.WithCancel(ctx)
	s.watchCancel = cancel
	s.mu.Unlock()

	for _, filter := range filters {
		s.done.Add(1)
		go s.watchLoop(watchCtx, filter)
	}

	return nil
}

// Stop stops watching. Safe to call more than once.
func (s *ChangeFeedService) Stop() error {
	s.mu.Lock()
	if !s.watching {
		s.mu.Unlock()
		return nil
	}
	s.watching = false
	cancel := s.watchCancel
	s.watchCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.done.Wait()
	return nil
}

// IsWatching returns whether the service is currently watching.
func (s *ChangeFeedService) IsWatching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watching
}

// watchLoop subscribes to one filter, forwarding each firing and renewing
// the subscription, until the context is cancelled.
func (s *ChangeFeedService) watchLoop(ctx context.Context, filter string) {
	defer s.done.Done()

	for {
		tok := s.provider.Watch(filter)
		if tok == nil || !tok.ActiveChangeCallbacks() {
			s.logger.Warn("filter cannot be watched", slog.String("filter", filter))
			return
		}

		fired := make(chan struct{}, 1)
		sub := tok.RegisterChangeCallback(func(interface{}) {
			select {
			case fired <- struct{}{}:
			default:
			}
		}, nil)

		select {
		case <-ctx.Done():
			sub.Release()
			return

		case <-fired:
			s.logger.Info("change detected", slog.String("filter", filter))
			s.notifier.NotifyChange(entities.ChangeEvent{
				Filter:    filter,
				Kind:      s.kind,
				Timestamp: time.Now(),
			})
		}
	}
}
