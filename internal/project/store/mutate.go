package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/sprintdeck/sprintdeck/internal/burndown"
	"github.com/sprintdeck/sprintdeck/internal/common/errors"
	"github.com/sprintdeck/sprintdeck/internal/events"
	"github.com/sprintdeck/sprintdeck/internal/project/gateway"
	"github.com/sprintdeck/sprintdeck/internal/project/models"
	"github.com/sprintdeck/sprintdeck/internal/project/pacer"
)

// CreateProject inserts a project owned by the session's actor. The stored
// row comes back with server-assigned identity and timestamps; a flat
// placeholder burndown series is seeded immediately so the chart is never
// empty.
func (s *Store) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	if s.actor.ID == "" {
		return nil, errors.Unauthorized("no actor bound to session")
	}
	if p.Title == "" {
		return nil, errors.ValidationError("title", "must not be empty")
	}

	p.OwnerID = s.actor.ID
	p.OwnerName = s.actor.Name
	p.OwnerEmail = s.actor.Email

	stored, err := s.gw.InsertProject(ctx, gateway.ProjectRecordFromModel(p))
	if err != nil {
		s.notifier.Error(ctx, "Failed to create project")
		return nil, errors.RemoteFailure("create project", err)
	}

	created := stored.ToModel()
	s.entities.UpsertProject(created)

	placeholder := burndown.PlaceholderSeries(s.now(), s.placeholderDays)
	if err := s.series.Upsert(ctx, created.ID, s.actor.ID, placeholder); err != nil {
		s.logger.Warn("failed to seed burndown placeholder",
			zap.String("project_id", created.ID),
			zap.Error(err))
	}

	s.publish(ctx, events.SubjectProjects, events.ProjectCreated, map[string]any{
		"project_id": created.ID,
	})
	s.notifier.Success(ctx, "Project created")
	return created, nil
}

// CreateSprint inserts a sprint and force-refreshes the owning project so
// dependent scopes pick the new sprint up.
func (s *Store) CreateSprint(ctx context.Context, sp *models.Sprint) (*models.Sprint, error) {
	if s.actor.ID == "" {
		return nil, errors.Unauthorized("no actor bound to session")
	}
	if sp.ProjectID == "" {
		return nil, errors.ValidationError("project_id", "must not be empty")
	}
	if sp.Title == "" {
		return nil, errors.ValidationError("title", "must not be empty")
	}
	if sp.Status == "" {
		sp.Status = models.SprintStatusPlanned
	}
	if !sp.Status.Valid() {
		return nil, errors.ValidationError("status", "unknown sprint status")
	}

	stored, err := s.gw.InsertSprint(ctx, gateway.SprintRecordFromModel(sp))
	if err != nil {
		s.notifier.Error(ctx, "Failed to create sprint")
		return nil, errors.RemoteFailure("create sprint", err)
	}

	created := stored.ToModel()
	s.entities.UpsertSprint(created)
	s.publish(ctx, events.SubjectSprints, events.SprintCreated, map[string]any{
		"project_id": created.ProjectID,
		"sprint_id":  created.ID,
	})

	s.RefreshProjectData(ctx, created.ProjectID)
	return created, nil
}

// CreateTask inserts a task. A task outside a sprint must carry the backlog
// status; a task inside a sprint defaults to todo.
func (s *Store) CreateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	if s.actor.ID == "" {
		return nil, errors.Unauthorized("no actor bound to session")
	}
	if t.ProjectID == "" {
		return nil, errors.ValidationError("project_id", "must not be empty")
	}
	if t.Title == "" {
		return nil, errors.ValidationError("title", "must not be empty")
	}
	if t.StoryPoints < 0 {
		return nil, errors.ValidationError("story_points", "must not be negative")
	}
	if !t.Priority.Valid() {
		return nil, errors.ValidationError("priority", "unknown task priority")
	}

	if t.SprintID == "" {
		if t.Status == "" {
			t.Status = models.TaskStatusBacklog
		}
		if t.Status != models.TaskStatusBacklog {
			return nil, errors.ValidationError("status", "a task outside a sprint must be in the backlog")
		}
	} else {
		if t.Status == "" {
			t.Status = models.TaskStatusTodo
		}
		if !t.Status.Valid() || t.Status == models.TaskStatusBacklog {
			return nil, errors.ValidationError("status", "invalid status for a sprint task")
		}
	}

	stored, err := s.gw.InsertTask(ctx, gateway.TaskRecordFromModel(t))
	if err != nil {
		s.notifier.Error(ctx, "Failed to create task")
		return nil, errors.RemoteFailure("create task", err)
	}

	created := stored.ToModel()
	s.entities.UpsertTask(created)
	s.publish(ctx, events.SubjectTasks, events.TaskCreated, map[string]any{
		"project_id": created.ProjectID,
		"sprint_id":  created.SprintID,
		"task_id":    created.ID,
	})
	s.observe(ctx, created.ProjectID)
	return created, nil
}

// UpdateProject applies a partial update to a cached project.
func (s *Store) UpdateProject(ctx context.Context, id string, patch gateway.ProjectPatch) (*models.Project, error) {
	if s.actor.ID == "" {
		return nil, errors.Unauthorized("no actor bound to session")
	}
	current, ok := s.entities.Project(id)
	if !ok {
		return nil, errors.NotFound("project", id)
	}
	if patch.Title != nil && *patch.Title == "" {
		return nil, errors.ValidationError("title", "must not be empty")
	}

	if err := s.gw.UpdateProject(ctx, id, patch); err != nil {
		s.notifier.Error(ctx, "Failed to update project")
		return nil, errors.RemoteFailure("update project", err)
	}

	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.EndGoal != nil {
		current.EndGoal = *patch.EndGoal
	}
	if patch.Collaborative != nil {
		current.Collaborative = *patch.Collaborative
	}
	current.UpdatedAt = s.now().UTC()
	s.entities.UpsertProject(current)

	s.publish(ctx, events.SubjectProjects, events.ProjectUpdated, map[string]any{
		"project_id": id,
	})
	return current, nil
}

// UpdateSprint applies a partial update to a cached sprint. A transition into
// the completed state force-refreshes the owning project.
func (s *Store) UpdateSprint(ctx context.Context, id string, patch gateway.SprintPatch) (*models.Sprint, error) {
	if s.actor.ID == "" {
		return nil, errors.Unauthorized("no actor bound to session")
	}
	current, ok := s.entities.Sprint(id)
	if !ok {
		return nil, errors.NotFound("sprint", id)
	}
	if patch.Status != nil && !models.SprintStatus(*patch.Status).Valid() {
		return nil, errors.ValidationError("status", "unknown sprint status")
	}

	if err := s.gw.UpdateSprint(ctx, id, patch); err != nil {
		s.notifier.Error(ctx, "Failed to update sprint")
		return nil, errors.RemoteFailure("update sprint", err)
	}

	wasCompleted := current.Status == models.SprintStatusCompleted
	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.StartDate != nil {
		current.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		current.EndDate = *patch.EndDate
	}
	if patch.Status != nil {
		current.Status = models.SprintStatus(*patch.Status)
	}
	current.UpdatedAt = s.now().UTC()
	s.entities.UpsertSprint(current)

	completed := !wasCompleted && current.Status == models.SprintStatusCompleted
	eventType := events.SprintUpdated
	if completed {
		eventType = events.SprintCompleted
	}
	s.publish(ctx, events.SubjectSprints, eventType, map[string]any{
		"project_id": current.ProjectID,
		"sprint_id":  id,
	})

	if completed {
		s.RefreshProjectData(ctx, current.ProjectID)
	}
	if patch.StartDate != nil || patch.EndDate != nil {
		// Date edits move the series span without changing entity counts.
		s.recompute(ctx, current.ProjectID)
	}
	return current, nil
}

// UpdateTask applies a partial update to a cached task. The first transition
// into done stamps the completion date once unless the patch carries an
// explicit date, which always wins; sprint reassignment refetches every scope
// the task moved between.
func (s *Store) UpdateTask(ctx context.Context, id string, patch gateway.TaskPatch) (*models.Task, error) {
	if s.actor.ID == "" {
		return nil, errors.Unauthorized("no actor bound to session")
	}
	current, ok := s.entities.Task(id)
	if !ok {
		return nil, errors.NotFound("task", id)
	}
	if patch.Status != nil && !models.TaskStatus(*patch.Status).Valid() {
		return nil, errors.ValidationError("status", "unknown task status")
	}
	if patch.Priority != nil && !models.TaskPriority(*patch.Priority).Valid() {
		return nil, errors.ValidationError("priority", "unknown task priority")
	}
	if patch.StoryPoints != nil && *patch.StoryPoints < 0 {
		return nil, errors.ValidationError("story_points", "must not be negative")
	}

	previousSprint := current.SprintID
	movingOut := patch.SprintID != nil && *patch.SprintID == "" && previousSprint != ""
	movingIn := patch.SprintID != nil && *patch.SprintID != "" && *patch.SprintID != previousSprint

	// A task leaving its sprint without an explicit status lands in the
	// backlog; an explicit non-backlog status there is contradictory.
	if movingOut {
		if patch.Status == nil {
			backlog := string(models.TaskStatusBacklog)
			patch.Status = &backlog
		} else if models.TaskStatus(*patch.Status) != models.TaskStatusBacklog {
			return nil, errors.ValidationError("status", "a task outside a sprint must be in the backlog")
		}
	}
	if movingIn && patch.Status == nil && current.Status == models.TaskStatusBacklog {
		todo := string(models.TaskStatusTodo)
		patch.Status = &todo
	}

	// The converse also holds: a backlog status is only valid when the patch
	// leaves the task without a sprint.
	if patch.Status != nil && models.TaskStatus(*patch.Status) == models.TaskStatusBacklog {
		targetSprint := previousSprint
		if patch.SprintID != nil {
			targetSprint = *patch.SprintID
		}
		if targetSprint != "" {
			return nil, errors.ValidationError("status", "a sprint-bound task cannot be in the backlog")
		}
	}

	// First transition into done stamps the completion date. Tasks that were
	// already done keep their original date.
	becomingDone := patch.Status != nil &&
		models.TaskStatus(*patch.Status) == models.TaskStatusDone &&
		current.Status != models.TaskStatusDone
	if becomingDone && current.CompletionDate == nil && patch.CompletionDate == nil {
		stamp := s.now().UTC()
		patch.CompletionDate = &stamp
	}

	if err := s.gw.UpdateTask(ctx, id, patch); err != nil {
		s.notifier.Error(ctx, "Failed to update task")
		return nil, errors.RemoteFailure("update task", err)
	}

	if patch.Title != nil {
		current.Title = *patch.Title
	}
	if patch.Description != nil {
		current.Description = *patch.Description
	}
	if patch.SprintID != nil {
		current.SprintID = *patch.SprintID
	}
	if patch.Status != nil {
		current.Status = models.TaskStatus(*patch.Status)
	}
	if patch.Assignee != nil {
		current.Assignee = *patch.Assignee
	}
	if patch.StoryPoints != nil {
		current.StoryPoints = *patch.StoryPoints
	}
	if patch.Priority != nil {
		current.Priority = models.TaskPriority(*patch.Priority)
	}
	if patch.CompletionDate != nil {
		stamp := *patch.CompletionDate
		current.CompletionDate = &stamp
	}
	current.UpdatedAt = s.now().UTC()
	s.entities.UpsertTask(current)

	eventType := events.TaskUpdated
	if becomingDone {
		eventType = events.TaskCompleted
	}
	s.publish(ctx, events.SubjectTasks, eventType, map[string]any{
		"project_id": current.ProjectID,
		"sprint_id":  current.SprintID,
		"task_id":    id,
	})

	if movingOut || movingIn {
		s.refetchAfterMove(ctx, current.ProjectID, previousSprint, current.SprintID)
	}
	// Status, point and completion edits change the series without changing
	// entity counts, so the count-gated observe would miss them.
	s.recompute(ctx, current.ProjectID)
	return current, nil
}

// refetchAfterMove force-refetches the scopes a task moved between: the old
// sprint, the new sprint, and the project backlog.
func (s *Store) refetchAfterMove(ctx context.Context, projectID, oldSprintID, newSprintID string) {
	var steps []pacer.Step
	if oldSprintID != "" {
		steps = append(steps, func(ctx context.Context) error {
			s.FetchTasksBySprint(ctx, oldSprintID, true)
			return nil
		})
	}
	if newSprintID != "" && newSprintID != oldSprintID {
		steps = append(steps, func(ctx context.Context) error {
			s.FetchTasksBySprint(ctx, newSprintID, true)
			return nil
		})
	}
	steps = append(steps, func(ctx context.Context) error {
		s.FetchBacklogTasks(ctx, projectID, true)
		return nil
	})
	s.pacer.Run(ctx, steps...)
}
