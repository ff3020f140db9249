package store

import (
	"context"
	"sync"

	"github.com/sprintdeck/sprintdeck/internal/burndown"
)

type seriesKey struct {
	projectID string
	actorID   string
}

// MemoryStore provides in-memory burndown series storage.
type MemoryStore struct {
	series map[seriesKey][]burndown.Point
	mu     sync.RWMutex
}

// Ensure MemoryStore implements Store interface
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new in-memory burndown store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		series: make(map[seriesKey][]burndown.Point),
	}
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// Get returns the stored series for the pair.
func (s *MemoryStore) Get(ctx context.Context, projectID, actorID string) ([]burndown.Point, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	points, ok := s.series[seriesKey{projectID: projectID, actorID: actorID}]
	if !ok {
		return nil, false, nil
	}
	out := make([]burndown.Point, len(points))
	copy(out, points)
	return out, true, nil
}

// Upsert replaces the stored series for the pair.
func (s *MemoryStore) Upsert(ctx context.Context, projectID, actorID string, series []burndown.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]burndown.Point, len(series))
	copy(stored, series)
	s.series[seriesKey{projectID: projectID, actorID: actorID}] = stored
	return nil
}

// Delete removes every series stored for the project.
func (s *MemoryStore) Delete(ctx context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.series {
		if key.projectID == projectID {
			delete(s.series, key)
		}
	}
	return nil
}
