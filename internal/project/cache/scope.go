// Package cache holds the in-memory entity cache and its freshness bookkeeping.
package cache

import "fmt"

// ScopeKind identifies the family of cached data a scope covers.
type ScopeKind int

const (
	// KindProjects covers the actor's own projects
	KindProjects ScopeKind = iota
	// KindCollaborations covers projects shared with the actor
	KindCollaborations
	// KindSprints covers the sprints of one project
	KindSprints
	// KindSprintTasks covers the tasks of one sprint
	KindSprintTasks
	// KindBacklog covers the backlog tasks of one project
	KindBacklog
)

// Scope is a typed cache key. Using a struct instead of formatted strings
// keeps key construction and comparison free of format mistakes.
type Scope struct {
	Kind ScopeKind
	ID   string // project or sprint ID, empty for actor-level scopes
}

// Projects returns the scope covering the actor's own projects.
func Projects() Scope {
	return Scope{Kind: KindProjects}
}

// Collaborations returns the scope covering shared projects.
func Collaborations() Scope {
	return Scope{Kind: KindCollaborations}
}

// SprintsOf returns the scope covering one project's sprints.
func SprintsOf(projectID string) Scope {
	return Scope{Kind: KindSprints, ID: projectID}
}

// TasksOfSprint returns the scope covering one sprint's tasks.
func TasksOfSprint(sprintID string) Scope {
	return Scope{Kind: KindSprintTasks, ID: sprintID}
}

// BacklogOf returns the scope covering one project's backlog.
func BacklogOf(projectID string) Scope {
	return Scope{Kind: KindBacklog, ID: projectID}
}

// String renders the scope for logs.
func (s Scope) String() string {
	switch s.Kind {
	case KindProjects:
		return "projects"
	case KindCollaborations:
		return "collaborations"
	case KindSprints:
		return fmt.Sprintf("sprints(%s)", s.ID)
	case KindSprintTasks:
		return fmt.Sprintf("sprint-tasks(%s)", s.ID)
	case KindBacklog:
		return fmt.Sprintf("backlog(%s)", s.ID)
	}
	return fmt.Sprintf("scope(%d,%s)", s.Kind, s.ID)
}
