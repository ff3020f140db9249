package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/sprintdeck/sprintdeck/internal/common/errors"
	"github.com/sprintdeck/sprintdeck/internal/events"
	"github.com/sprintdeck/sprintdeck/internal/project/cache"
	"github.com/sprintdeck/sprintdeck/internal/project/models"
)

// Cascades are best-effort: child rows go first, the run aborts on the first
// failure and reports it. The gateway offers no cross-call transaction, so a
// partial cascade leaves the remaining rows for a later retry.

// DeleteProject removes a project and everything under it: each sprint with
// its columns and tasks, then the backlog, then the project row, then the
// persisted burndown series.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	if s.actor.ID == "" {
		return errors.Unauthorized("no actor bound to session")
	}
	if _, ok := s.entities.Project(id); !ok {
		return errors.NotFound("project", id)
	}

	for _, sprint := range s.entities.SprintsByProject(id) {
		if err := s.deleteSprintCascade(ctx, sprint); err != nil {
			s.notifier.Error(ctx, "Failed to delete project")
			return errors.CascadeAborted("project", id, err)
		}
	}

	for _, task := range s.entities.BacklogTasks(id) {
		if err := s.gw.DeleteTask(ctx, task.ID); err != nil {
			s.notifier.Error(ctx, "Failed to delete project")
			return errors.CascadeAborted("project", id, err)
		}
		s.entities.RemoveTask(task.ID)
	}

	if err := s.gw.DeleteProject(ctx, id); err != nil {
		s.notifier.Error(ctx, "Failed to delete project")
		return errors.CascadeAborted("project", id, err)
	}
	s.entities.RemoveProject(id)
	s.tracker.InvalidateProject(id)

	if err := s.series.Delete(ctx, id); err != nil {
		s.logger.Warn("failed to delete burndown series",
			zap.String("project_id", id),
			zap.Error(err))
	}
	s.watcher.Forget(id)

	s.publish(ctx, events.SubjectProjects, events.ProjectDeleted, map[string]any{
		"project_id": id,
	})
	s.notifier.Success(ctx, "Project deleted")
	return nil
}

// DeleteSprint removes a sprint with its board columns and tasks, then
// refreshes the owning project's scopes.
func (s *Store) DeleteSprint(ctx context.Context, id string) error {
	if s.actor.ID == "" {
		return errors.Unauthorized("no actor bound to session")
	}
	sprint, ok := s.entities.Sprint(id)
	if !ok {
		return errors.NotFound("sprint", id)
	}

	if err := s.deleteSprintCascade(ctx, sprint); err != nil {
		s.notifier.Error(ctx, "Failed to delete sprint")
		return errors.CascadeAborted("sprint", id, err)
	}

	s.publish(ctx, events.SubjectSprints, events.SprintDeleted, map[string]any{
		"project_id": sprint.ProjectID,
		"sprint_id":  id,
	})
	s.RefreshProjectData(ctx, sprint.ProjectID)
	return nil
}

// deleteSprintCascade removes one sprint's dependents and its row: board
// columns are queried then deleted one by one, then the sprint's tasks, then
// the sprint itself. Cache and freshness state are dropped as rows go.
func (s *Store) deleteSprintCascade(ctx context.Context, sprint *models.Sprint) error {
	columns, err := s.gw.ListBoardColumns(ctx, sprint.ID)
	if err != nil {
		return err
	}
	for _, column := range columns {
		if err := s.gw.DeleteBoardColumn(ctx, column.ID); err != nil {
			return err
		}
	}

	tasks, err := s.gw.ListTasksBySprint(ctx, sprint.ID)
	if err != nil {
		return err
	}
	for _, task := range tasks {
		if err := s.gw.DeleteTask(ctx, task.ID); err != nil {
			return err
		}
		s.entities.RemoveTask(task.ID)
	}

	if err := s.gw.DeleteSprint(ctx, sprint.ID); err != nil {
		return err
	}
	s.entities.RemoveSprint(sprint.ID)
	s.tracker.Invalidate(cache.TasksOfSprint(sprint.ID))
	return nil
}

// DeleteTask removes a single task, then refetches the scope it lived in so
// the cache reflects the remote truth rather than a local guess.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if s.actor.ID == "" {
		return errors.Unauthorized("no actor bound to session")
	}
	task, ok := s.entities.Task(id)
	if !ok {
		return errors.NotFound("task", id)
	}

	if err := s.gw.DeleteTask(ctx, id); err != nil {
		s.notifier.Error(ctx, "Failed to delete task")
		return errors.RemoteFailure("delete task", err)
	}
	s.entities.RemoveTask(id)

	if task.SprintID != "" {
		s.FetchTasksBySprint(ctx, task.SprintID, true)
	} else {
		s.FetchBacklogTasks(ctx, task.ProjectID, true)
	}

	s.publish(ctx, events.SubjectTasks, events.TaskDeleted, map[string]any{
		"project_id": task.ProjectID,
		"sprint_id":  task.SprintID,
		"task_id":    id,
	})
	s.observe(ctx, task.ProjectID)
	return nil
}
