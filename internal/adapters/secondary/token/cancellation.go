package token

import "github.com/mcortelli/pathwatch/internal/domain/ports"

// CancellationChangeToken adapts a CancellationSource to the ChangeToken
// protocol: the token fires when its source is cancelled.
type CancellationChangeToken struct {
	source *CancellationSource
}

// NewCancellationChangeToken creates a token backed by the given source.
func NewCancellationChangeToken(source *CancellationSource) *CancellationChangeToken {
	return &CancellationChangeToken{source: source}
}

// HasChanged reports whether the backing source has been cancelled.
func (t *CancellationChangeToken) HasChanged() bool {
	return t.source.IsCancelled()
}

// ActiveChangeCallbacks always reports true: the backing source delivers
// callbacks when it fires.
func (t *CancellationChangeToken) ActiveChangeCallbacks() bool {
	return true
}

// RegisterChangeCallback delegates to the backing source. Registration after
// cancellation invokes the callback immediately.
func (t *CancellationChangeToken) RegisterChangeCallback(callback func(state interface{}), state interface{}) ports.Subscription {
	return t.source.Register(callback, state)
}
