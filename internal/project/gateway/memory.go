package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryGateway provides an in-memory implementation of the remote store,
// used in development mode and as a test fixture.
type MemoryGateway struct {
	projects map[string]*ProjectRecord
	sprints  map[string]*SprintRecord
	tasks    map[string]*TaskRecord
	columns  map[string]*BoardColumnRecord
	mu       sync.RWMutex

	// failures maps operation names to errors for fault injection in tests
	failures map[string]error
}

// Ensure MemoryGateway implements Gateway interface
var _ Gateway = (*MemoryGateway)(nil)

// NewMemoryGateway creates a new in-memory gateway
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		projects: make(map[string]*ProjectRecord),
		sprints:  make(map[string]*SprintRecord),
		tasks:    make(map[string]*TaskRecord),
		columns:  make(map[string]*BoardColumnRecord),
		failures: make(map[string]error),
	}
}

// Close is a no-op for the in-memory gateway
func (g *MemoryGateway) Close() error {
	return nil
}

// FailWith makes the named operation return err until cleared with a nil err.
// Operation names match the Gateway method names.
func (g *MemoryGateway) FailWith(operation string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.failures, operation)
		return
	}
	g.failures[operation] = err
}

func (g *MemoryGateway) failure(operation string) error {
	return g.failures[operation]
}

// Project operations

// ListProjects returns all projects owned by ownerID
func (g *MemoryGateway) ListProjects(ctx context.Context, ownerID string) ([]*ProjectRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.failure("ListProjects"); err != nil {
		return nil, err
	}

	var result []*ProjectRecord
	for _, rec := range g.projects {
		if rec.OwnerID == ownerID {
			c := *rec
			result = append(result, &c)
		}
	}
	sortByCreated(result, func(r *ProjectRecord) time.Time { return r.CreatedAt })
	return result, nil
}

// ListCollaborativeProjects returns collaborative projects not owned by actorID
func (g *MemoryGateway) ListCollaborativeProjects(ctx context.Context, actorID string) ([]*ProjectRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.failure("ListCollaborativeProjects"); err != nil {
		return nil, err
	}

	var result []*ProjectRecord
	for _, rec := range g.projects {
		if rec.Collaborative && rec.OwnerID != actorID {
			c := *rec
			result = append(result, &c)
		}
	}
	sortByCreated(result, func(r *ProjectRecord) time.Time { return r.CreatedAt })
	return result, nil
}

// InsertProject stores a new project row and returns it
func (g *MemoryGateway) InsertProject(ctx context.Context, rec *ProjectRecord) (*ProjectRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("InsertProject"); err != nil {
		return nil, err
	}

	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	g.projects[stored.ID] = &stored
	out := stored
	return &out, nil
}

// UpdateProject applies a partial update to a project row
func (g *MemoryGateway) UpdateProject(ctx context.Context, id string, patch ProjectPatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("UpdateProject"); err != nil {
		return err
	}

	rec, ok := g.projects[id]
	if !ok {
		return fmt.Errorf("project not found: %s", id)
	}
	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.EndGoal != nil {
		rec.EndGoal = *patch.EndGoal
	}
	if patch.Collaborative != nil {
		rec.Collaborative = *patch.Collaborative
	}
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteProject deletes a project row by ID
func (g *MemoryGateway) DeleteProject(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("DeleteProject"); err != nil {
		return err
	}

	if _, ok := g.projects[id]; !ok {
		return fmt.Errorf("project not found: %s", id)
	}
	delete(g.projects, id)
	return nil
}

// Sprint operations

// ListSprints returns all sprints for a project
func (g *MemoryGateway) ListSprints(ctx context.Context, projectID string) ([]*SprintRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.failure("ListSprints"); err != nil {
		return nil, err
	}

	var result []*SprintRecord
	for _, rec := range g.sprints {
		if rec.ProjectID == projectID {
			c := *rec
			result = append(result, &c)
		}
	}
	sortByCreated(result, func(r *SprintRecord) time.Time { return r.CreatedAt })
	return result, nil
}

// InsertSprint stores a new sprint row and returns it
func (g *MemoryGateway) InsertSprint(ctx context.Context, rec *SprintRecord) (*SprintRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("InsertSprint"); err != nil {
		return nil, err
	}

	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	g.sprints[stored.ID] = &stored
	out := stored
	return &out, nil
}

// UpdateSprint applies a partial update to a sprint row
func (g *MemoryGateway) UpdateSprint(ctx context.Context, id string, patch SprintPatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("UpdateSprint"); err != nil {
		return err
	}

	rec, ok := g.sprints[id]
	if !ok {
		return fmt.Errorf("sprint not found: %s", id)
	}
	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.StartDate != nil {
		rec.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		rec.EndDate = *patch.EndDate
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteSprint deletes a sprint row by ID
func (g *MemoryGateway) DeleteSprint(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("DeleteSprint"); err != nil {
		return err
	}

	if _, ok := g.sprints[id]; !ok {
		return fmt.Errorf("sprint not found: %s", id)
	}
	delete(g.sprints, id)
	return nil
}

// Task operations

// ListTasksBySprint returns all tasks in a sprint
func (g *MemoryGateway) ListTasksBySprint(ctx context.Context, sprintID string) ([]*TaskRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.failure("ListTasksBySprint"); err != nil {
		return nil, err
	}

	var result []*TaskRecord
	for _, rec := range g.tasks {
		if rec.SprintID == sprintID {
			c := *rec
			result = append(result, &c)
		}
	}
	sortByCreated(result, func(r *TaskRecord) time.Time { return r.CreatedAt })
	return result, nil
}

// ListBacklogTasks returns backlog tasks for a project (no sprint assignment)
func (g *MemoryGateway) ListBacklogTasks(ctx context.Context, projectID string) ([]*TaskRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.failure("ListBacklogTasks"); err != nil {
		return nil, err
	}

	var result []*TaskRecord
	for _, rec := range g.tasks {
		if rec.ProjectID == projectID && rec.SprintID == "" {
			c := *rec
			result = append(result, &c)
		}
	}
	sortByCreated(result, func(r *TaskRecord) time.Time { return r.CreatedAt })
	return result, nil
}

// InsertTask stores a new task row and returns it
func (g *MemoryGateway) InsertTask(ctx context.Context, rec *TaskRecord) (*TaskRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("InsertTask"); err != nil {
		return nil, err
	}

	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	g.tasks[stored.ID] = &stored
	out := stored
	return &out, nil
}

// UpdateTask applies a partial update to a task row
func (g *MemoryGateway) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("UpdateTask"); err != nil {
		return err
	}

	rec, ok := g.tasks[id]
	if !ok {
		return fmt.Errorf("task not found: %s", id)
	}
	if patch.Title != nil {
		rec.Title = *patch.Title
	}
	if patch.Description != nil {
		rec.Description = *patch.Description
	}
	if patch.SprintID != nil {
		rec.SprintID = *patch.SprintID
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.Assignee != nil {
		rec.Assignee = *patch.Assignee
	}
	if patch.StoryPoints != nil {
		rec.StoryPoints = *patch.StoryPoints
	}
	if patch.Priority != nil {
		rec.Priority = *patch.Priority
	}
	if patch.CompletionDate != nil {
		d := *patch.CompletionDate
		rec.CompletionDate = &d
	}
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

// DeleteTask deletes a task row by ID
func (g *MemoryGateway) DeleteTask(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("DeleteTask"); err != nil {
		return err
	}

	if _, ok := g.tasks[id]; !ok {
		return fmt.Errorf("task not found: %s", id)
	}
	delete(g.tasks, id)
	return nil
}

// Board column operations

// ListBoardColumns returns all board columns for a sprint
func (g *MemoryGateway) ListBoardColumns(ctx context.Context, sprintID string) ([]*BoardColumnRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := g.failure("ListBoardColumns"); err != nil {
		return nil, err
	}

	var result []*BoardColumnRecord
	for _, rec := range g.columns {
		if rec.SprintID == sprintID {
			c := *rec
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Position < result[j].Position })
	return result, nil
}

// InsertBoardColumn stores a new board column row and returns it
func (g *MemoryGateway) InsertBoardColumn(ctx context.Context, rec *BoardColumnRecord) (*BoardColumnRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("InsertBoardColumn"); err != nil {
		return nil, err
	}

	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	g.columns[stored.ID] = &stored
	out := stored
	return &out, nil
}

// DeleteBoardColumn deletes a board column row by ID
func (g *MemoryGateway) DeleteBoardColumn(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.failure("DeleteBoardColumn"); err != nil {
		return err
	}

	if _, ok := g.columns[id]; !ok {
		return fmt.Errorf("board column not found: %s", id)
	}
	delete(g.columns, id)
	return nil
}

// sortByCreated orders records by creation time so listings are stable
// across calls. Map iteration order would otherwise leak into responses.
func sortByCreated[T any](records []T, created func(T) time.Time) {
	sort.SliceStable(records, func(i, j int) bool {
		return created(records[i]).Before(created(records[j]))
	})
}
