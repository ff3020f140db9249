// Package models defines the domain entities for projects, sprints and tasks.
package models

import "time"

// SprintStatus represents the lifecycle state of a sprint.
type SprintStatus string

const (
	// SprintStatusPlanned - sprint created but not started
	SprintStatusPlanned SprintStatus = "planned"
	// SprintStatusInProgress - sprint is currently running
	SprintStatusInProgress SprintStatus = "in-progress"
	// SprintStatusCompleted - sprint finished
	SprintStatusCompleted SprintStatus = "completed"
)

// Valid reports whether the status is one of the known sprint states.
func (s SprintStatus) Valid() bool {
	switch s {
	case SprintStatusPlanned, SprintStatusInProgress, SprintStatusCompleted:
		return true
	}
	return false
}

// TaskStatus represents the workflow state of a task.
type TaskStatus string

const (
	// TaskStatusBacklog - task sits in the project backlog, outside any sprint
	TaskStatusBacklog TaskStatus = "backlog"
	// TaskStatusTodo - task is planned into a sprint but not started
	TaskStatusTodo TaskStatus = "todo"
	// TaskStatusInProgress - task is being worked on
	TaskStatusInProgress TaskStatus = "in-progress"
	// TaskStatusDone - task is finished; the first transition into this state
	// stamps the task's completion date
	TaskStatusDone TaskStatus = "done"
)

// Valid reports whether the status is one of the known task states.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusBacklog, TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

// TaskPriority represents the priority of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Valid reports whether the priority is one of the known values.
// The empty priority is valid: priority is optional.
func (p TaskPriority) Valid() bool {
	switch p {
	case "", TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

// Actor identifies the authenticated user a store session is bound to.
type Actor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Project represents a Scrum project owned by an actor.
type Project struct {
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

// Sprint represents a time-boxed iteration within a project.
type Sprint struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"project_id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	StartDate   time.Time    `json:"start_date"`
	EndDate     time.Time    `json:"end_date"`
	Status      SprintStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Task represents a unit of work. A task belongs to exactly one project and
// to at most one sprint. An empty SprintID together with the backlog status
// is the joint signal for "in backlog".
type Task struct {
	ID             string       `json:"id"`
	ProjectID      string       `json:"project_id"`
	SprintID       string       `json:"sprint_id"` // empty = not in a sprint
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Status         TaskStatus   `json:"status"`
	Assignee       string       `json:"assignee,omitempty"`
	StoryPoints    int          `json:"story_points"`
	Priority       TaskPriority `json:"priority,omitempty"`
	CompletionDate *time.Time   `json:"completion_date,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// InBacklog reports whether the task sits in the project backlog.
func (t *Task) InBacklog() bool {
	return t.SprintID == "" && t.Status == TaskStatusBacklog
}

// BoardColumn represents a board column attached to a sprint. Columns are
// dependent records: deleting a sprint removes its columns first.
type BoardColumn struct {
	ID        string    `json:"id"`
	SprintID  string    `json:"sprint_id"`
	Title     string    `json:"title"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
