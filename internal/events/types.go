// Package events provides event types and utilities for the Sprintdeck event system.
package events

// Event types for projects
const (
	ProjectCreated   = "project.created"
	ProjectUpdated   = "project.updated"
	ProjectDeleted   = "project.deleted"
	ProjectRefreshed = "project.refreshed"
)

// Event types for sprints
const (
	SprintCreated   = "sprint.created"
	SprintUpdated   = "sprint.updated"
	SprintCompleted = "sprint.completed"
	SprintDeleted   = "sprint.deleted"
)

// Event types for tasks
const (
	TaskCreated   = "task.created"
	TaskUpdated   = "task.updated"
	TaskCompleted = "task.completed"
	TaskDeleted   = "task.deleted"
)

// Event types for burndown series
const (
	BurndownRecomputed = "burndown.recomputed"
)

// Event types for user-facing notifications
const (
	NotificationSuccess = "notification.success"
	NotificationError   = "notification.error"
)

// Subjects used on the bus. Mutation events are published under the entity
// subject, notifications under their own subject so UI transports can
// subscribe independently.
const (
	SubjectProjects      = "sprintdeck.projects"
	SubjectSprints       = "sprintdeck.sprints"
	SubjectTasks         = "sprintdeck.tasks"
	SubjectBurndown      = "sprintdeck.burndown"
	SubjectNotifications = "sprintdeck.notifications"
)
