package gateway

import (
	"time"

	"github.com/sprintdeck/sprintdeck/internal/project/models"
)

// Records are the row shapes at the remote store boundary. Field names follow
// the remote snake_case convention; mapping to the camel-cased domain model
// happens here and nowhere else.

// ProjectRecord is the remote row shape for projects.
type ProjectRecord struct {
	ID            string    `db:"id" json:"id"`
	Title         string    `db:"title" json:"title"`
	Description   string    `db:"description" json:"description"`
	EndGoal       string    `db:"end_goal" json:"end_goal"`
	OwnerID       string    `db:"owner_id" json:"owner_id"`
	OwnerName     string    `db:"owner_name" json:"owner_name"`
	OwnerEmail    string    `db:"owner_email" json:"owner_email"`
	Collaborative bool      `db:"collaborative" json:"collaborative"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// SprintRecord is the remote row shape for sprints.
type SprintRecord struct {
	ID          string    `db:"id" json:"id"`
	ProjectID   string    `db:"project_id" json:"project_id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// TaskRecord is the remote row shape for tasks.
type TaskRecord struct {
	ID             string     `db:"id" json:"id"`
	ProjectID      string     `db:"project_id" json:"project_id"`
	SprintID       string     `db:"sprint_id" json:"sprint_id"`
	Title          string     `db:"title" json:"title"`
	Description    string     `db:"description" json:"description"`
	Status         string     `db:"status" json:"status"`
	Assignee       string     `db:"assignee" json:"assignee"`
	StoryPoints    int        `db:"story_points" json:"story_points"`
	Priority       string     `db:"priority" json:"priority"`
	CompletionDate *time.Time `db:"completion_date" json:"completion_date"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// BoardColumnRecord is the remote row shape for board columns.
type BoardColumnRecord struct {
	ID        string    `db:"id" json:"id"`
	SprintID  string    `db:"sprint_id" json:"sprint_id"`
	Title     string    `db:"title" json:"title"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Patch types carry partial updates. Nil fields are left untouched by the
// remote store (merge semantics).

// ProjectPatch is a partial update for a project row.
type ProjectPatch struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	EndGoal       *string `json:"end_goal,omitempty"`
	Collaborative *bool   `json:"collaborative,omitempty"`
}

// SprintPatch is a partial update for a sprint row.
type SprintPatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

// TaskPatch is a partial update for a task row.
type TaskPatch struct {
	Title          *string    `json:"title,omitempty"`
	Description    *string    `json:"description,omitempty"`
	SprintID       *string    `json:"sprint_id,omitempty"`
	Status         *string    `json:"status,omitempty"`
	Assignee       *string    `json:"assignee,omitempty"`
	StoryPoints    *int       `json:"story_points,omitempty"`
	Priority       *string    `json:"priority,omitempty"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
}

// ToModel converts a project record into the domain model.
func (r *ProjectRecord) ToModel() *models.Project {
	return &models.Project{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		EndGoal:       r.EndGoal,
		OwnerID:       r.OwnerID,
		OwnerName:     r.OwnerName,
		OwnerEmail:    r.OwnerEmail,
		Collaborative: r.Collaborative,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// ProjectRecordFromModel converts a domain project into its remote row shape.
func ProjectRecordFromModel(p *models.Project) *ProjectRecord {
	return &ProjectRecord{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		EndGoal:       p.EndGoal,
		OwnerID:       p.OwnerID,
		OwnerName:     p.OwnerName,
		OwnerEmail:    p.OwnerEmail,
		Collaborative: p.Collaborative,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ToModel converts a sprint record into the domain model. Unknown status
// strings default to planned.
func (r *SprintRecord) ToModel() *models.Sprint {
	status := models.SprintStatus(r.Status)
	if !status.Valid() {
		status = models.SprintStatusPlanned
	}
	return &models.Sprint{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Title:       r.Title,
		Description: r.Description,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Status:      status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// SprintRecordFromModel converts a domain sprint into its remote row shape.
func SprintRecordFromModel(s *models.Sprint) *SprintRecord {
	return &SprintRecord{
		ID:          s.ID,
		ProjectID:   s.ProjectID,
		Title:       s.Title,
		Description: s.Description,
		StartDate:   s.StartDate,
		EndDate:     s.EndDate,
		Status:      string(s.Status),
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// ToModel converts a task record into the domain model. Unknown status
// strings for sprint-bound tasks default to todo; unassigned tasks default
// to backlog. Negative story points are clamped to zero.
func (r *TaskRecord) ToModel() *models.Task {
	status := models.TaskStatus(r.Status)
	if !status.Valid() {
		if r.SprintID == "" {
			status = models.TaskStatusBacklog
		} else {
			status = models.TaskStatusTodo
		}
	}
	points := r.StoryPoints
	if points < 0 {
		points = 0
	}
	return &models.Task{
		ID:             r.ID,
		ProjectID:      r.ProjectID,
		SprintID:       r.SprintID,
		Title:          r.Title,
		Description:    r.Description,
		Status:         status,
		Assignee:       r.Assignee,
		StoryPoints:    points,
		Priority:       models.TaskPriority(r.Priority),
		CompletionDate: r.CompletionDate,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

// TaskRecordFromModel converts a domain task into its remote row shape.
func TaskRecordFromModel(t *models.Task) *TaskRecord {
	return &TaskRecord{
		ID:             t.ID,
		ProjectID:      t.ProjectID,
		SprintID:       t.SprintID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         string(t.Status),
		Assignee:       t.Assignee,
		StoryPoints:    t.StoryPoints,
		Priority:       string(t.Priority),
		CompletionDate: t.CompletionDate,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// ToModel converts a board column record into the domain model.
func (r *BoardColumnRecord) ToModel() *models.BoardColumn {
	return &models.BoardColumn{
		ID:        r.ID,
		SprintID:  r.SprintID,
		Title:     r.Title,
		Position:  r.Position,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// BoardColumnRecordFromModel converts a domain board column into its remote row shape.
func BoardColumnRecordFromModel(c *models.BoardColumn) *BoardColumnRecord {
	return &BoardColumnRecord{
		ID:        c.ID,
		SprintID:  c.SprintID,
		Title:     c.Title,
		Position:  c.Position,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
