package ports

import (
	"context"

	"github.com/mcortelli/pathwatch/internal/domain/entities"
)

//go:generate mockery --name ChangeNotifier --output ../../../test/mocks --outpkg mocks

// ChangeNotifier consumes change events produced by the watch service.
type ChangeNotifier interface {
	// NotifyChange delivers one change event. Implementations must not
	// block; slow consumers should buffer or drop.
	NotifyChange(event entities.ChangeEvent)
}

// WatchService drives continuous observation of a set of filters over a
// provider, bridging one-shot tokens into a stream of change events.
type WatchService interface {
	// Start begins watching the configured filters until ctx is cancelled.
	Start(ctx context.Context, filters []string) error

	// Stop halts watching. Safe to call more than once.
	Stop() error
}
