package token

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// CancellationSource is a one-shot trigger owning a set of registered
// callbacks. Cancel atomically sets the fired flag and drains the callback
// set, invoking each callback exactly once on a background goroutine.
// Registrations that arrive after cancellation are invoked synchronously.
type CancellationSource struct {
	mu        sync.Mutex
	cancelled atomic.Bool
	callbacks map[string]callbackRegistration
}

type callbackRegistration struct {
	callback func(state interface{})
	state    interface{}
}

// NewCancellationSource creates a new, untriggered source.
func NewCancellationSource() *CancellationSource {
	return &CancellationSource{
		callbacks: make(map[string]callbackRegistration),
	}
}

// IsCancelled reports whether the source has been triggered.
func (s *CancellationSource) IsCancelled() bool {
	return s.cancelled.Load()
}

// Register adds a one-shot callback. If the source is already cancelled the
// callback runs synchronously and the returned subscription is a no-op.
func (s *CancellationSource) Register(callback func(state interface{}), state interface{}) ports.Subscription {
	if callback == nil {
		return ports.NoopSubscription
	}

	s.mu.Lock()
	if s.cancelled.Load() {
		s.mu.Unlock()
		invoke(callback, state)
		return ports.NoopSubscription
	}

	id := uuid.NewString()
	s.callbacks[id] = callbackRegistration{callback: callback, state: state}
	s.mu.Unlock()

	return &sourceSubscription{source: s, id: id}
}

// Cancel triggers the source. The first call drains and dispatches all
// registered callbacks; subsequent calls are no-ops.
func (s *CancellationSource) Cancel() {
	s.mu.Lock()
	if s.cancelled.Load() {
		s.mu.Unlock()
		return
	}
	s.cancelled.Store(true)
	drained := s.callbacks
	s.callbacks = nil
	s.mu.Unlock()

	// Callbacks run off the caller's goroutine so user code never executes
	// while a watcher holds its own locks.
	for _, registration := range drained {
		go invoke(registration.callback, registration.state)
	}
}

// invoke runs a callback, swallowing panics so one failing callback cannot
// stop delivery to the others.
func invoke(callback func(state interface{}), state interface{}) {
	defer func() {
		_ = recover()
	}()
	callback(state)
}

// sourceSubscription unregisters a callback from its source.
type sourceSubscription struct {
	source *CancellationSource
	id     string
	once   sync.Once
}

// Release removes the callback registration. Idempotent; releasing after the
// source fired is a no-op.
func (sub *sourceSubscription) Release() {
	sub.once.Do(func() {
		sub.source.mu.Lock()
		if sub.source.callbacks != nil {
			delete(sub.source.callbacks, sub.id)
		}
		sub.source.mu.Unlock()
	})
}
