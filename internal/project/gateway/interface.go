// Package gateway provides the request/response boundary to the hosted
// relational store that owns project, sprint and task rows.
package gateway

import "context"

// Gateway defines filtered reads, inserts, partial updates and deletes
// against the remote store. Inserts return the stored row so callers pick up
// server-assigned identity and timestamps.
type Gateway interface {
	// Project operations
	ListProjects(ctx context.Context, ownerID string) ([]*ProjectRecord, error)
	ListCollaborativeProjects(ctx context.Context, actorID string) ([]*ProjectRecord, error)
	InsertProject(ctx context.Context, rec *ProjectRecord) (*ProjectRecord, error)
	UpdateProject(ctx context.Context, id string, patch ProjectPatch) error
	DeleteProject(ctx context.Context, id string) error

	// Sprint operations
	ListSprints(ctx context.Context, projectID string) ([]*SprintRecord, error)
	InsertSprint(ctx context.Context, rec *SprintRecord) (*SprintRecord, error)
	UpdateSprint(ctx context.Context, id string, patch SprintPatch) error
	DeleteSprint(ctx context.Context, id string) error

	// Task operations
	ListTasksBySprint(ctx context.Context, sprintID string) ([]*TaskRecord, error)
	ListBacklogTasks(ctx context.Context, projectID string) ([]*TaskRecord, error)
	InsertTask(ctx context.Context, rec *TaskRecord) (*TaskRecord, error)
	UpdateTask(ctx context.Context, id string, patch TaskPatch) error
	DeleteTask(ctx context.Context, id string) error

	// Board column operations
	ListBoardColumns(ctx context.Context, sprintID string) ([]*BoardColumnRecord, error)
	InsertBoardColumn(ctx context.Context, rec *BoardColumnRecord) (*BoardColumnRecord, error)
	DeleteBoardColumn(ctx context.Context, id string) error

	// Close releases the underlying connection
	Close() error
}
