// Package store persists burndown series keyed by project and actor.
package store

import (
	"context"

	"github.com/sprintdeck/sprintdeck/internal/burndown"
)

// Store persists one burndown series per (project, actor) pair.
type Store interface {
	// Get returns the stored series. found is false when no series exists.
	Get(ctx context.Context, projectID, actorID string) (series []burndown.Point, found bool, err error)

	// Upsert replaces the stored series for the pair.
	Upsert(ctx context.Context, projectID, actorID string, series []burndown.Point) error

	// Delete removes every series stored for the project, across actors.
	Delete(ctx context.Context, projectID string) error

	// Close releases underlying resources.
	Close() error
}
