package ports

// ChangeToken is a one-shot observable handle for a watched resource.
// Once HasChanged reports true it never reverts; callers should obtain a
// fresh token after observing the transition.
type ChangeToken interface {
	// HasChanged reports whether a change has occurred. Cheap and idempotent.
	HasChanged() bool

	// ActiveChangeCallbacks reports whether RegisterChangeCallback will ever
	// invoke callbacks. Tokens returning false here may be skipped by callers
	// that only care about push notification.
	ActiveChangeCallbacks() bool

	// RegisterChangeCallback registers a one-shot callback invoked when the
	// token fires. If the token has already fired, the callback is invoked
	// synchronously before RegisterChangeCallback returns. Invocation order
	// across registrations is unspecified.
	RegisterChangeCallback(callback func(state interface{}), state interface{}) Subscription
}

// Subscription releases a callback registration. Releasing is idempotent and
// never prevents the token itself from firing.
type Subscription interface {
	Release()
}

// noopToken is the shared token returned when no watcher can satisfy a
// subscription. It never fires.
type noopToken struct{}

// NoopToken is the singleton no-op change token.
var NoopToken ChangeToken = &noopToken{}

func (*noopToken) HasChanged() bool            { return false }
func (*noopToken) ActiveChangeCallbacks() bool { return false }

func (*noopToken) RegisterChangeCallback(callback func(interface{}), state interface{}) Subscription {
	return NoopSubscription
}

// noopSubscription is returned for registrations that have nothing to release.
type noopSubscription struct{}

// NoopSubscription is the singleton no-op subscription.
var NoopSubscription Subscription = &noopSubscription{}

func (*noopSubscription) Release() {}
