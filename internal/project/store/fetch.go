package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/sprintdeck/sprintdeck/internal/events"
	"github.com/sprintdeck/sprintdeck/internal/project/cache"
	"github.com/sprintdeck/sprintdeck/internal/project/models"
	"github.com/sprintdeck/sprintdeck/internal/project/pacer"
)

// Fetches never return errors to the caller: on failure the scope is flagged
// as errored, the stale cached data stays visible, and only the top-level
// project fetches raise a user-facing notification.

// FetchProjects loads the actor's own projects from the gateway unless the
// cached scope is still fresh and non-empty. On success it fans out to each
// project's sprints and backlog through the pacer.
func (s *Store) FetchProjects(ctx context.Context, force bool) {
	if s.actor.ID == "" {
		s.logger.Warn("fetch skipped, session has no actor")
		return
	}
	scope := cache.Projects()
	if !force && !s.tracker.IsStale(scope) && len(s.ownProjects()) > 0 {
		return
	}

	records, err := s.gw.ListProjects(ctx, s.actor.ID)
	if err != nil {
		s.tracker.MarkErrored(scope)
		s.logger.Error("failed to fetch projects", zap.Error(err))
		s.notifier.Error(ctx, "Failed to load projects")
		return
	}

	projects := make([]*models.Project, 0, len(records))
	for _, r := range records {
		projects = append(projects, r.ToModel())
	}
	s.entities.ReplaceProjects(func(p *models.Project) bool {
		return p.OwnerID == s.actor.ID
	}, projects)
	s.tracker.MarkFetched(scope)

	s.publish(ctx, events.SubjectProjects, events.ProjectRefreshed, map[string]any{
		"count": len(projects),
	})
	s.fanout(ctx, projects, force)
}

// FetchCollaborativeProjects loads the projects shared with the actor, with
// the same fan-out as FetchProjects.
func (s *Store) FetchCollaborativeProjects(ctx context.Context, force bool) {
	if s.actor.ID == "" {
		s.logger.Warn("fetch skipped, session has no actor")
		return
	}
	scope := cache.Collaborations()
	if !force && !s.tracker.IsStale(scope) && len(s.CollaborativeProjects()) > 0 {
		return
	}

	records, err := s.gw.ListCollaborativeProjects(ctx, s.actor.ID)
	if err != nil {
		s.tracker.MarkErrored(scope)
		s.logger.Error("failed to fetch collaborative projects", zap.Error(err))
		s.notifier.Error(ctx, "Failed to load shared projects")
		return
	}

	projects := make([]*models.Project, 0, len(records))
	for _, r := range records {
		projects = append(projects, r.ToModel())
	}
	s.entities.ReplaceProjects(func(p *models.Project) bool {
		return p.OwnerID != s.actor.ID
	}, projects)
	s.tracker.MarkFetched(scope)

	s.publish(ctx, events.SubjectProjects, events.ProjectRefreshed, map[string]any{
		"count":         len(projects),
		"collaborative": true,
	})
	s.fanout(ctx, projects, force)
}

// FetchSprints loads the sprints of one project unless the scope is fresh and
// non-empty.
func (s *Store) FetchSprints(ctx context.Context, projectID string, force bool) {
	if s.actor.ID == "" || projectID == "" {
		return
	}
	scope := cache.SprintsOf(projectID)
	if !force && !s.tracker.IsStale(scope) && len(s.entities.SprintsByProject(projectID)) > 0 {
		return
	}

	records, err := s.gw.ListSprints(ctx, projectID)
	if err != nil {
		s.tracker.MarkErrored(scope)
		s.logger.Error("failed to fetch sprints",
			zap.String("project_id", projectID),
			zap.Error(err))
		return
	}

	sprints := make([]*models.Sprint, 0, len(records))
	for _, r := range records {
		sprints = append(sprints, r.ToModel())
	}
	s.entities.ReplaceSprints(func(sp *models.Sprint) bool {
		return sp.ProjectID == projectID
	}, sprints)
	s.tracker.MarkFetched(scope)
	s.observe(ctx, projectID)
}

// FetchTasksBySprint loads the tasks of one sprint unless the scope is fresh
// and non-empty.
func (s *Store) FetchTasksBySprint(ctx context.Context, sprintID string, force bool) {
	if s.actor.ID == "" || sprintID == "" {
		return
	}
	scope := cache.TasksOfSprint(sprintID)
	if !force && !s.tracker.IsStale(scope) && len(s.entities.TasksBySprint(sprintID)) > 0 {
		return
	}

	records, err := s.gw.ListTasksBySprint(ctx, sprintID)
	if err != nil {
		s.tracker.MarkErrored(scope)
		s.logger.Error("failed to fetch sprint tasks",
			zap.String("sprint_id", sprintID),
			zap.Error(err))
		return
	}

	tasks := make([]*models.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, r.ToModel())
	}
	s.entities.ReplaceTasks(func(t *models.Task) bool {
		return t.SprintID == sprintID
	}, tasks)
	s.tracker.MarkFetched(scope)

	if sprint, ok := s.entities.Sprint(sprintID); ok {
		s.observe(ctx, sprint.ProjectID)
	}
}

// FetchBacklogTasks loads the backlog of one project unless the scope is
// fresh and non-empty.
func (s *Store) FetchBacklogTasks(ctx context.Context, projectID string, force bool) {
	if s.actor.ID == "" || projectID == "" {
		return
	}
	scope := cache.BacklogOf(projectID)
	if !force && !s.tracker.IsStale(scope) && len(s.entities.BacklogTasks(projectID)) > 0 {
		return
	}

	records, err := s.gw.ListBacklogTasks(ctx, projectID)
	if err != nil {
		s.tracker.MarkErrored(scope)
		s.logger.Error("failed to fetch backlog",
			zap.String("project_id", projectID),
			zap.Error(err))
		return
	}

	tasks := make([]*models.Task, 0, len(records))
	for _, r := range records {
		tasks = append(tasks, r.ToModel())
	}
	s.entities.ReplaceTasks(func(t *models.Task) bool {
		return t.ProjectID == projectID && t.SprintID == ""
	}, tasks)
	s.tracker.MarkFetched(scope)
	s.observe(ctx, projectID)
}

// RefreshProjectData invalidates and force-refetches either one project's
// scopes or, with an empty projectID, everything the session holds. The
// outcome is reported as a notification.
func (s *Store) RefreshProjectData(ctx context.Context, projectID string) {
	if s.actor.ID == "" {
		return
	}

	if projectID == "" {
		s.tracker.Invalidate(cache.Projects())
		s.tracker.Invalidate(cache.Collaborations())
		s.FetchProjects(ctx, true)
		s.FetchCollaborativeProjects(ctx, true)
		if s.tracker.IsStale(cache.Projects()) || s.tracker.IsStale(cache.Collaborations()) {
			s.notifier.Error(ctx, "Refresh finished with errors")
		} else {
			s.notifier.Success(ctx, "Project data refreshed")
		}
		return
	}

	s.tracker.InvalidateProject(projectID)
	for _, sp := range s.entities.SprintsByProject(projectID) {
		s.tracker.Invalidate(cache.TasksOfSprint(sp.ID))
	}

	s.FetchSprints(ctx, projectID, true)

	var steps []pacer.Step
	for _, sp := range s.entities.SprintsByProject(projectID) {
		sprintID := sp.ID
		steps = append(steps, func(ctx context.Context) error {
			s.FetchTasksBySprint(ctx, sprintID, true)
			return nil
		})
	}
	steps = append(steps, func(ctx context.Context) error {
		s.FetchBacklogTasks(ctx, projectID, true)
		return nil
	})
	s.pacer.Run(ctx, steps...)

	if s.tracker.IsStale(cache.SprintsOf(projectID)) || s.tracker.IsStale(cache.BacklogOf(projectID)) {
		s.notifier.Error(ctx, "Refresh finished with errors")
	} else {
		s.notifier.Success(ctx, "Project refreshed")
	}
}

// fanout walks the given projects and fetches each one's sprints and backlog
// through the pacer, strictly in sequence.
func (s *Store) fanout(ctx context.Context, projects []*models.Project, force bool) {
	var steps []pacer.Step
	for _, p := range projects {
		projectID := p.ID
		steps = append(steps,
			func(ctx context.Context) error {
				s.FetchSprints(ctx, projectID, force)
				return nil
			},
			func(ctx context.Context) error {
				s.FetchBacklogTasks(ctx, projectID, force)
				return nil
			},
		)
	}
	if errs := s.pacer.Run(ctx, steps...); len(errs) > 0 {
		s.logger.Warn("project fan-out interrupted", zap.Int("errors", len(errs)))
	}
}
