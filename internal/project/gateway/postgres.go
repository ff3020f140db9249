package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// PostgresGateway implements Gateway against a PostgreSQL database using pgx.
type PostgresGateway struct {
	db *sqlx.DB
}

// Ensure PostgresGateway implements Gateway interface
var _ Gateway = (*PostgresGateway)(nil)

// NewPostgresGateway opens a connection pool and ensures the schema exists.
// If maxConns or minConns are 0, they default to 25 and 5 respectively.
func NewPostgresGateway(dsn string, maxConns, minConns int) (*PostgresGateway, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres database: %w", err)
	}

	if maxConns <= 0 {
		maxConns = 25
	}
	if minConns <= 0 {
		minConns = 5
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(minConns)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping postgres database: %w", err)
	}

	g := &PostgresGateway{db: db}
	if err := g.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return g, nil
}

// Close closes the connection pool.
func (g *PostgresGateway) Close() error {
	return g.db.Close()
}

func (g *PostgresGateway) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		end_goal TEXT NOT NULL DEFAULT '',
		owner_id TEXT NOT NULL,
		owner_name TEXT NOT NULL DEFAULT '',
		owner_email TEXT NOT NULL DEFAULT '',
		collaborative BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sprints (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		status TEXT NOT NULL DEFAULT 'planned',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		sprint_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'backlog',
		assignee TEXT NOT NULL DEFAULT '',
		story_points INTEGER NOT NULL DEFAULT 0,
		priority TEXT NOT NULL DEFAULT '',
		completion_date TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE TABLE IF NOT EXISTS board_columns (
		id TEXT PRIMARY KEY,
		sprint_id TEXT NOT NULL,
		title TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id);
	CREATE INDEX IF NOT EXISTS idx_sprints_project ON sprints(project_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_sprint ON tasks(sprint_id);
	CREATE INDEX IF NOT EXISTS idx_tasks_project_sprint ON tasks(project_id, sprint_id);
	CREATE INDEX IF NOT EXISTS idx_columns_sprint ON board_columns(sprint_id);
	`
	_, err := g.db.Exec(schema)
	return err
}

// Project operations

// ListProjects returns all projects owned by ownerID
func (g *PostgresGateway) ListProjects(ctx context.Context, ownerID string) ([]*ProjectRecord, error) {
	var result []*ProjectRecord
	err := g.db.SelectContext(ctx, &result,
		`SELECT * FROM projects WHERE owner_id = $1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return result, nil
}

// ListCollaborativeProjects returns collaborative projects not owned by actorID
func (g *PostgresGateway) ListCollaborativeProjects(ctx context.Context, actorID string) ([]*ProjectRecord, error) {
	var result []*ProjectRecord
	err := g.db.SelectContext(ctx, &result,
		`SELECT * FROM projects WHERE collaborative = TRUE AND owner_id <> $1 ORDER BY created_at`, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list collaborative projects: %w", err)
	}
	return result, nil
}

// InsertProject stores a new project row and returns the stored row
func (g *PostgresGateway) InsertProject(ctx context.Context, rec *ProjectRecord) (*ProjectRecord, error) {
	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	_, err := g.db.NamedExecContext(ctx, `
		INSERT INTO projects (id, title, description, end_goal, owner_id, owner_name, owner_email, collaborative, created_at, updated_at)
		VALUES (:id, :title, :description, :end_goal, :owner_id, :owner_name, :owner_email, :collaborative, :created_at, :updated_at)`,
		&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to insert project: %w", err)
	}
	return &stored, nil
}

// UpdateProject applies a partial update to a project row
func (g *PostgresGateway) UpdateProject(ctx context.Context, id string, patch ProjectPatch) error {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.EndGoal != nil {
		add("end_goal", *patch.EndGoal)
	}
	if patch.Collaborative != nil {
		add("collaborative", *patch.Collaborative)
	}
	return g.applyUpdate(ctx, "projects", "project", id, sets, args)
}

// DeleteProject deletes a project row by ID
func (g *PostgresGateway) DeleteProject(ctx context.Context, id string) error {
	return g.deleteRow(ctx, "projects", "project", id)
}

// Sprint operations

// ListSprints returns all sprints for a project
func (g *PostgresGateway) ListSprints(ctx context.Context, projectID string) ([]*SprintRecord, error) {
	var result []*SprintRecord
	err := g.db.SelectContext(ctx, &result,
		`SELECT * FROM sprints WHERE project_id = $1 ORDER BY start_date, created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	return result, nil
}

// InsertSprint stores a new sprint row and returns the stored row
func (g *PostgresGateway) InsertSprint(ctx context.Context, rec *SprintRecord) (*SprintRecord, error) {
	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	_, err := g.db.NamedExecContext(ctx, `
		INSERT INTO sprints (id, project_id, title, description, start_date, end_date, status, created_at, updated_at)
		VALUES (:id, :project_id, :title, :description, :start_date, :end_date, :status, :created_at, :updated_at)`,
		&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to insert sprint: %w", err)
	}
	return &stored, nil
}

// UpdateSprint applies a partial update to a sprint row
func (g *PostgresGateway) UpdateSprint(ctx context.Context, id string, patch SprintPatch) error {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.StartDate != nil {
		add("start_date", *patch.StartDate)
	}
	if patch.EndDate != nil {
		add("end_date", *patch.EndDate)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	return g.applyUpdate(ctx, "sprints", "sprint", id, sets, args)
}

// DeleteSprint deletes a sprint row by ID
func (g *PostgresGateway) DeleteSprint(ctx context.Context, id string) error {
	return g.deleteRow(ctx, "sprints", "sprint", id)
}

// Task operations

// ListTasksBySprint returns all tasks in a sprint
func (g *PostgresGateway) ListTasksBySprint(ctx context.Context, sprintID string) ([]*TaskRecord, error) {
	var result []*TaskRecord
	err := g.db.SelectContext(ctx, &result,
		`SELECT * FROM tasks WHERE sprint_id = $1 ORDER BY created_at`, sprintID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by sprint: %w", err)
	}
	return result, nil
}

// ListBacklogTasks returns backlog tasks for a project (no sprint assignment)
func (g *PostgresGateway) ListBacklogTasks(ctx context.Context, projectID string) ([]*TaskRecord, error) {
	var result []*TaskRecord
	err := g.db.SelectContext(ctx, &result,
		`SELECT * FROM tasks WHERE project_id = $1 AND sprint_id = '' ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list backlog tasks: %w", err)
	}
	return result, nil
}

// InsertTask stores a new task row and returns the stored row
func (g *PostgresGateway) InsertTask(ctx context.Context, rec *TaskRecord) (*TaskRecord, error) {
	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	_, err := g.db.NamedExecContext(ctx, `
		INSERT INTO tasks (id, project_id, sprint_id, title, description, status, assignee, story_points, priority, completion_date, created_at, updated_at)
		VALUES (:id, :project_id, :sprint_id, :title, :description, :status, :assignee, :story_points, :priority, :completion_date, :created_at, :updated_at)`,
		&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to insert task: %w", err)
	}
	return &stored, nil
}

// UpdateTask applies a partial update to a task row
func (g *PostgresGateway) UpdateTask(ctx context.Context, id string, patch TaskPatch) error {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.SprintID != nil {
		add("sprint_id", *patch.SprintID)
	}
	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.Assignee != nil {
		add("assignee", *patch.Assignee)
	}
	if patch.StoryPoints != nil {
		add("story_points", *patch.StoryPoints)
	}
	if patch.Priority != nil {
		add("priority", *patch.Priority)
	}
	if patch.CompletionDate != nil {
		add("completion_date", *patch.CompletionDate)
	}
	return g.applyUpdate(ctx, "tasks", "task", id, sets, args)
}

// DeleteTask deletes a task row by ID
func (g *PostgresGateway) DeleteTask(ctx context.Context, id string) error {
	return g.deleteRow(ctx, "tasks", "task", id)
}

// Board column operations

// ListBoardColumns returns all board columns for a sprint
func (g *PostgresGateway) ListBoardColumns(ctx context.Context, sprintID string) ([]*BoardColumnRecord, error) {
	var result []*BoardColumnRecord
	err := g.db.SelectContext(ctx, &result,
		`SELECT * FROM board_columns WHERE sprint_id = $1 ORDER BY position`, sprintID)
	if err != nil {
		return nil, fmt.Errorf("failed to list board columns: %w", err)
	}
	return result, nil
}

// InsertBoardColumn stores a new board column row and returns the stored row
func (g *PostgresGateway) InsertBoardColumn(ctx context.Context, rec *BoardColumnRecord) (*BoardColumnRecord, error) {
	stored := *rec
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	_, err := g.db.NamedExecContext(ctx, `
		INSERT INTO board_columns (id, sprint_id, title, position, created_at, updated_at)
		VALUES (:id, :sprint_id, :title, :position, :created_at, :updated_at)`,
		&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to insert board column: %w", err)
	}
	return &stored, nil
}

// DeleteBoardColumn deletes a board column row by ID
func (g *PostgresGateway) DeleteBoardColumn(ctx context.Context, id string) error {
	return g.deleteRow(ctx, "board_columns", "board column", id)
}

// applyUpdate runs a dynamic partial UPDATE. An empty patch is a no-op.
func (g *PostgresGateway) applyUpdate(ctx context.Context, table, resource, id string, sets []string, args []any) error {
	if len(sets) == 0 {
		return nil
	}
	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(args))
	res, err := g.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", resource, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s not found: %s", resource, id)
	}
	return nil
}

func (g *PostgresGateway) deleteRow(ctx context.Context, table, resource, id string) error {
	res, err := g.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", resource, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%s not found: %s", resource, id)
	}
	return nil
}
