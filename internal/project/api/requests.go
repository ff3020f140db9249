// Package api provides HTTP handlers for the project data API.
package api

import (
	"time"

	"github.com/sprintdeck/sprintdeck/internal/burndown"
	"github.com/sprintdeck/sprintdeck/internal/project/models"
)

// CreateProjectRequest for creating a project
type CreateProjectRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	EndGoal       string `json:"end_goal"`
	Collaborative bool   `json:"collaborative"`
}

// UpdateProjectRequest for updating a project
type UpdateProjectRequest struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	EndGoal       *string `json:"end_goal,omitempty"`
	Collaborative *bool   `json:"collaborative,omitempty"`
}

// CreateSprintRequest for creating a sprint
type CreateSprintRequest struct {
	ProjectID   string    `json:"project_id" binding:"required"`
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
	Status      string    `json:"status"`
}

// UpdateSprintRequest for updating a sprint
type UpdateSprintRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Status      *string    `json:"status,omitempty"`
}

// CreateTaskRequest for creating a task
type CreateTaskRequest struct {
	ProjectID   string `json:"project_id" binding:"required"`
	SprintID    string `json:"sprint_id"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Assignee    string `json:"assignee"`
	StoryPoints int    `json:"story_points"`
	Priority    string `json:"priority"`
}

// UpdateTaskRequest for updating a task
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	SprintID    *string `json:"sprint_id,omitempty"`
	Status      *string `json:"status,omitempty"`
	Assignee    *string `json:"assignee,omitempty"`
	StoryPoints *int    `json:"story_points,omitempty"`
	Priority    *string `json:"priority,omitempty"`
}

// Response types

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	EndGoal       string    `json:"end_goal,omitempty"`
	OwnerID       string    `json:"owner_id"`
	OwnerName     string    `json:"owner_name,omitempty"`
	OwnerEmail    string    `json:"owner_email,omitempty"`
	Collaborative bool      `json:"collaborative"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SprintResponse represents a sprint in API responses
type SprintResponse struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID             string     `json:"id"`
	ProjectID      string     `json:"project_id"`
	SprintID       string     `json:"sprint_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description,omitempty"`
	Status         string     `json:"status"`
	Assignee       string     `json:"assignee,omitempty"`
	StoryPoints    int        `json:"story_points"`
	Priority       string     `json:"priority,omitempty"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// ProjectsListResponse for listing projects
type ProjectsListResponse struct {
	Projects []*ProjectResponse `json:"projects"`
	Total    int                `json:"total"`
}

// SprintsListResponse for listing sprints
type SprintsListResponse struct {
	Sprints []*SprintResponse `json:"sprints"`
	Total   int               `json:"total"`
}

// TasksListResponse for listing tasks
type TasksListResponse struct {
	Tasks []*TaskResponse `json:"tasks"`
	Total int             `json:"total"`
}

// BurndownResponse for a project's burndown series
type BurndownResponse struct {
	ProjectID string           `json:"project_id"`
	Points    []burndown.Point `json:"points"`
}

func projectToResponse(p *models.Project) *ProjectResponse {
	return &ProjectResponse{
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

func sprintToResponse(s *models.Sprint) *SprintResponse {
	return &SprintResponse{
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

func taskToResponse(t *models.Task) *TaskResponse {
	return &TaskResponse{
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
