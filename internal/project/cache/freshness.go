package cache

import (
	"sync"
	"time"
)

// DefaultMaxAge is the freshness window applied when none is configured.
const DefaultMaxAge = 60 * time.Second

// FreshnessTracker decides whether a cached scope may be reused or must be
// refetched. Pure bookkeeping over two maps; no I/O.
type FreshnessTracker struct {
	maxAge  time.Duration
	now     func() time.Time
	fetched map[Scope]time.Time
	errored map[Scope]bool
	mu      sync.Mutex
}

// NewFreshnessTracker creates a tracker with the given freshness window.
// A non-positive maxAge falls back to DefaultMaxAge.
func NewFreshnessTracker(maxAge time.Duration) *FreshnessTracker {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	return &FreshnessTracker{
		maxAge:  maxAge,
		now:     time.Now,
		fetched: make(map[Scope]time.Time),
		errored: make(map[Scope]bool),
	}
}

// SetClock replaces the time source, for tests.
func (t *FreshnessTracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// IsStale reports whether the scope must be refetched: never fetched, older
// than the freshness window, or error-flagged. The error flag dominates age.
func (t *FreshnessTracker) IsStale(scope Scope) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.errored[scope] {
		return true
	}
	fetchedAt, ok := t.fetched[scope]
	if !ok {
		return true
	}
	return t.now().Sub(fetchedAt) > t.maxAge
}

// MarkFetched records a successful fetch and clears the error flag.
func (t *FreshnessTracker) MarkFetched(scope Scope) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetched[scope] = t.now()
	delete(t.errored, scope)
}

// MarkErrored flags the scope as failed without touching its fetch time.
func (t *FreshnessTracker) MarkErrored(scope Scope) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.errored[scope] = true
}

// Invalidate drops the fetch timestamp for a scope so the next consultation
// reports stale.
func (t *FreshnessTracker) Invalidate(scope Scope) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.fetched, scope)
}

// InvalidateProject drops every scope tied to the given project: its sprint
// list and backlog. Sprint-task scopes are keyed by sprint ID and are
// invalidated by the caller, which knows the sprint IDs.
func (t *FreshnessTracker) InvalidateProject(projectID string) {
	t.Invalidate(SprintsOf(projectID))
	t.Invalidate(BacklogOf(projectID))
}

// Reset clears all bookkeeping, used on session teardown.
func (t *FreshnessTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fetched = make(map[Scope]time.Time)
	t.errored = make(map[Scope]bool)
}
