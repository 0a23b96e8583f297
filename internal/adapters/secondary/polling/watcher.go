package polling

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mcortelli/pathwatch/internal/adapters/secondary/matcher"
	"github.com/mcortelli/pathwatch/internal/adapters/secondary/token"
	"github.com/mcortelli/pathwatch/internal/domain/ports"
)

const (
	// DefaultInterval is the polling period when none is configured.
	DefaultInterval = 4 * time.Second

	// MinInterval is the enforced polling floor.
	MinInterval = 500 * time.Millisecond
)

// polledToken is a change token the watcher evaluates on each tick.
type polledToken interface {
	ports.ChangeToken
	UpdateHasChanged() bool
	Source() *token.CancellationSource
}

// Watcher periodically evaluates polling tokens and cancels the backing
// source of any token that reports a change, achieving the same one-shot
// contract as the event-driven watcher without OS file events.
type Watcher struct {
	root     string
	interval time.Duration
	clock    ports.Clock
	matchers ports.MatcherFactory
	logger   *slog.Logger

	mu     sync.Mutex
	tokens map[string]polledToken

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a polling watcher over root and starts its timer.
// Intervals below the floor are clamped; a non-positive interval selects the
// default.
func NewWatcher(root string, interval time.Duration, clock ports.Clock, matchers ports.MatcherFactory, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if interval < MinInterval {
		interval = MinInterval
	}
	if clock == nil {
		clock = ports.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}

	w := &Watcher{
		root:     filepath.Clean(root),
		interval: interval,
		clock:    clock,
		matchers: matchers,
		logger:   logger.With("component", "polling_watcher"),
		tokens:   make(map[string]polledToken),
		stopCh:   make(chan struct{}),
	}

	w.wg.Add(1)
	go w.pollLoop()
	return w
}

// Interval returns the effective polling period.
func (w *Watcher) Interval() time.Duration {
	return w.interval
}

// CreateFileChangeToken returns the polling token for the filter, creating
// one when none is registered. Filter keys are case-sensitive. Invalid
// filters yield the no-op token.
func (w *Watcher) CreateFileChangeToken(filter string) ports.ChangeToken {
	normalized := matcher.NormalizePath(filter)
	if isInvalidFilter(normalized) {
		return ports.NoopToken
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if existing, ok := w.tokens[normalized]; ok {
		return existing
	}

	var created polledToken
	if strings.Contains(normalized, "*") || strings.HasSuffix(normalized, "/") {
		m, err := w.matchers.Compile(normalized)
		if err != nil {
			w.logger.Warn("rejecting unparseable filter", "filter", normalized, "error", err)
			return ports.NoopToken
		}
		created = NewWildcardChangeToken(w.root, m, w.clock, token.NewCancellationSource())
	} else {
		fullPath := filepath.Join(w.root, filepath.FromSlash(normalized))
		created = NewFileChangeToken(fullPath, token.NewCancellationSource())
	}

	w.tokens[normalized] = created
	return created
}

// Stop halts the timer. Registered tokens stop being evaluated; tokens that
// already fired stay fired.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
	w.wg.Wait()
}

// pollLoop runs ticks until Stop.
func (w *Watcher) pollLoop() {
	defer w.wg.Done()

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C():
			w.tick()
		}
	}
}

// tick evaluates a snapshot of the registered tokens, removing and firing
// those that report a change.
func (w *Watcher) tick() {
	w.mu.Lock()
	snapshot := make(map[string]polledToken, len(w.tokens))
	for filter, tok := range w.tokens {
		snapshot[filter] = tok
	}
	w.mu.Unlock()

	for filter, tok := range snapshot {
		if !tok.UpdateHasChanged() {
			continue
		}

		w.mu.Lock()
		current, ok := w.tokens[filter]
		if ok && current == tok {
			delete(w.tokens, filter)
		} else {
			ok = false
		}
		w.mu.Unlock()

		// Another tick may have removed the token first; only the winner
		// cancels the source.
		if ok {
			tok.Source().Cancel()
		}
	}
}

// isInvalidFilter mirrors the event-driven watcher's filter policy: empty,
// absolute and root-escaping filters cannot be polled.
func isInvalidFilter(normalized string) bool {
	if normalized == "" {
		return true
	}
	if strings.HasPrefix(normalized, "/") {
		return true
	}
	if len(normalized) >= 2 && normalized[1] == ':' {
		return true
	}
	cleaned := filepath.ToSlash(filepath.Clean(filepath.FromSlash(normalized)))
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return true
	}
	return false
}
