package entities

import "time"

// ChangeEvent represents one observed change on a watched filter.
type ChangeEvent struct {
	// Filter is the path or glob pattern whose token fired.
	Filter string `json:"filter"`

	// Kind describes how the filter was being observed.
	Kind WatchKind `json:"kind"`

	// Timestamp is when the change was observed.
	Timestamp time.Time `json:"timestamp"`
}

// WatchKind describes the observation strategy behind a change event.
type WatchKind int

const (
	// WatchKindEvent indicates the change came from OS file events.
	WatchKindEvent WatchKind = iota
	// WatchKindPolling indicates the change came from a polling scan.
	WatchKindPolling
)

// String returns the string representation of WatchKind.
func (k WatchKind) String() string {
	switch k {
	case WatchKindEvent:
		return "event"
	case WatchKindPolling:
		return "polling"
	default:
		return "unknown"
	}
}
