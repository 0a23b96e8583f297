package token

import (
	"sync"

	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

// CompositeChangeToken aggregates an ordered set of inner tokens under the
// single-token contract: it has changed when any inner token has, and it
// supports callbacks when any inner token does.
type CompositeChangeToken struct {
	tokens []ports.ChangeToken
}

// NewCompositeChangeToken creates a composite over the given tokens.
func NewCompositeChangeToken(tokens []ports.ChangeToken) *CompositeChangeToken {
	return &CompositeChangeToken{tokens: tokens}
}

// Tokens returns the inner tokens in registration order.
func (t *CompositeChangeToken) Tokens() []ports.ChangeToken {
	return t.tokens
}

// HasChanged reports whether any inner token has changed.
func (t *CompositeChangeToken) HasChanged() bool {
	for _, inner := range t.tokens {
		if inner.HasChanged() {
			return true
		}
	}
	return false
}

// ActiveChangeCallbacks reports whether any inner token delivers callbacks.
func (t *CompositeChangeToken) ActiveChangeCallbacks() bool {
	for _, inner := range t.tokens {
		if inner.ActiveChangeCallbacks() {
			return true
		}
	}
	return false
}

// RegisterChangeCallback registers on every inner token with active
// callbacks. Tokens without active callbacks are skipped so callbacks are
// never leaked into tokens that cannot fire.
func (t *CompositeChangeToken) RegisterChangeCallback(callback func(state interface{}), state interface{}) ports.Subscription {
	subscriptions := make([]ports.Subscription, 0, len(t.tokens))
	for _, inner := range t.tokens {
		if inner.ActiveChangeCallbacks() {
			subscriptions = append(subscriptions, inner.RegisterChangeCallback(callback, state))
		}
	}
	if len(subscriptions) == 0 {
		return ports.NoopSubscription
	}
	return &compositeSubscription{subscriptions: subscriptions}
}

// compositeSubscription releases every inner subscription in order.
type compositeSubscription struct {
	subscriptions []ports.Subscription
	once          sync.Once
}

func (sub *compositeSubscription) Release() {
	sub.once.Do(func() {
		for _, inner := range sub.subscriptions {
			inner.Release()
		}
	})
}
