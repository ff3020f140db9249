package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFreshnessTracker_NeverFetchedIsStale(t *testing.T) {
	tracker := NewFreshnessTracker(time.Minute)

	assert.True(t, tracker.IsStale(Projects()))
	assert.True(t, tracker.IsStale(SprintsOf("p1")))
}

func TestFreshnessTracker_FreshWithinWindow(t *testing.T) {
	tracker := NewFreshnessTracker(time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.SetClock(func() time.Time { return now })

	tracker.MarkFetched(Projects())
	assert.False(t, tracker.IsStale(Projects()))

	// Just inside the window
	now = now.Add(59 * time.Second)
	assert.False(t, tracker.IsStale(Projects()))

	// Past the window
	now = now.Add(2 * time.Second)
	assert.True(t, tracker.IsStale(Projects()))
}

func TestFreshnessTracker_ErrorFlagDominatesAge(t *testing.T) {
	tracker := NewFreshnessTracker(time.Minute)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.SetClock(func() time.Time { return now })

	scope := SprintsOf("p1")
	tracker.MarkFetched(scope)
	assert.False(t, tracker.IsStale(scope))

	// A failed refetch flags the scope stale even though the last
	// successful fetch is still within the window.
	tracker.MarkErrored(scope)
	assert.True(t, tracker.IsStale(scope))

	// A successful fetch clears the flag.
	tracker.MarkFetched(scope)
	assert.False(t, tracker.IsStale(scope))
}

func TestFreshnessTracker_Invalidate(t *testing.T) {
	tracker := NewFreshnessTracker(time.Minute)

	tracker.MarkFetched(BacklogOf("p1"))
	assert.False(t, tracker.IsStale(BacklogOf("p1")))

	tracker.Invalidate(BacklogOf("p1"))
	assert.True(t, tracker.IsStale(BacklogOf("p1")))
}

func TestFreshnessTracker_InvalidateProject(t *testing.T) {
	tracker := NewFreshnessTracker(time.Minute)

	tracker.MarkFetched(SprintsOf("p1"))
	tracker.MarkFetched(BacklogOf("p1"))
	tracker.MarkFetched(SprintsOf("p2"))

	tracker.InvalidateProject("p1")

	assert.True(t, tracker.IsStale(SprintsOf("p1")))
	assert.True(t, tracker.IsStale(BacklogOf("p1")))
	assert.False(t, tracker.IsStale(SprintsOf("p2")))
}

func TestFreshnessTracker_ScopesAreIndependent(t *testing.T) {
	tracker := NewFreshnessTracker(time.Minute)

	tracker.MarkFetched(TasksOfSprint("s1"))
	assert.False(t, tracker.IsStale(TasksOfSprint("s1")))
	assert.True(t, tracker.IsStale(TasksOfSprint("s2")))
	assert.True(t, tracker.IsStale(Collaborations()))
}

func TestFreshnessTracker_Reset(t *testing.T) {
	tracker := NewFreshnessTracker(time.Minute)

	tracker.MarkFetched(Projects())
	tracker.MarkErrored(SprintsOf("p1"))
	tracker.Reset()

	assert.True(t, tracker.IsStale(Projects()))
	assert.True(t, tracker.IsStale(SprintsOf("p1")))

	// Errored flags do not survive the reset either: a fetch after reset
	// marks the scope fresh.
	tracker.MarkFetched(SprintsOf("p1"))
	assert.False(t, tracker.IsStale(SprintsOf("p1")))
}

func TestFreshnessTracker_DefaultMaxAge(t *testing.T) {
	tracker := NewFreshnessTracker(0)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker.SetClock(func() time.Time { return now })

	tracker.MarkFetched(Projects())
	now = now.Add(DefaultMaxAge - time.Second)
	assert.False(t, tracker.IsStale(Projects()))

	now = now.Add(2 * time.Second)
	assert.True(t, tracker.IsStale(Projects()))
}
