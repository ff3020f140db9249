package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	burndownstore "github.com/sprintdeck/sprintdeck/internal/burndown/store"
	apperrors "github.com/sprintdeck/sprintdeck/internal/common/errors"
	"github.com/sprintdeck/sprintdeck/internal/common/logger"
	"github.com/sprintdeck/sprintdeck/internal/events/bus"
	"github.com/sprintdeck/sprintdeck/internal/project/gateway"
	"github.com/sprintdeck/sprintdeck/internal/project/models"
)

// recordingNotifier captures toasts for assertions.
type recordingNotifier struct {
	mu        sync.Mutex
	successes []string
	failures  []string
}

func (n *recordingNotifier) Success(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, message)
}

func (n *recordingNotifier) Error(ctx context.Context, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, message)
}

func (n *recordingNotifier) failureCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.failures)
}

type fixture struct {
	store    *Store
	gw       *gateway.MemoryGateway
	series   *burndownstore.MemoryStore
	notifier *recordingNotifier
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	require.NoError(t, err)

	f := &fixture{
		gw:       gateway.NewMemoryGateway(),
		series:   burndownstore.NewMemoryStore(),
		notifier: &recordingNotifier{},
		now:      time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC),
	}

	s, err := New(models.Actor{ID: "u1", Name: "Uma", Email: "uma@example.com"},
		f.gw, f.series, f.notifier, bus.NewMemoryEventBus(log),
		Options{MaxAge: time.Minute, FanoutGap: 0, PlaceholderDays: 21}, log)
	require.NoError(t, err)
	s.SetClock(func() time.Time { return f.now })
	t.Cleanup(s.Close)

	f.store = s
	return f
}

func (f *fixture) seedProject(t *testing.T, title string) *models.Project {
	t.Helper()
	p, err := f.store.CreateProject(context.Background(), &models.Project{Title: title})
	require.NoError(t, err)
	return p
}

func (f *fixture) seedSprint(t *testing.T, projectID, title string) *models.Sprint {
	t.Helper()
	sp, err := f.store.CreateSprint(context.Background(), &models.Sprint{
		ProjectID: projectID,
		Title:     title,
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return sp
}

func (f *fixture) seedTask(t *testing.T, projectID, sprintID, title string, points int) *models.Task {
	t.Helper()
	task, err := f.store.CreateTask(context.Background(), &models.Task{
		ProjectID:   projectID,
		SprintID:    sprintID,
		Title:       title,
		StoryPoints: points,
	})
	require.NoError(t, err)
	return task
}

// Fetch protocol

func TestStore_FetchProjectsPopulatesCacheAndFansOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Seed remote rows directly; the session cache starts empty.
	stored, err := f.gw.InsertProject(ctx, &gateway.ProjectRecord{Title: "Alpha", OwnerID: "u1"})
	require.NoError(t, err)
	sprint, err := f.gw.InsertSprint(ctx, &gateway.SprintRecord{ProjectID: stored.ID, Title: "Sprint 1", Status: "planned"})
	require.NoError(t, err)
	_, err = f.gw.InsertTask(ctx, &gateway.TaskRecord{ProjectID: stored.ID, Title: "loose", Status: "backlog"})
	require.NoError(t, err)

	f.store.FetchProjects(ctx, false)

	require.Len(t, f.store.Projects(), 1)
	assert.Len(t, f.store.SprintsByProject(stored.ID), 1)
	assert.Len(t, f.store.BacklogTasks(stored.ID), 1)
	_, ok := f.store.Sprint(sprint.ID)
	assert.True(t, ok)
}

func TestStore_FetchSkippedWhileFreshAndNonEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gw.InsertProject(ctx, &gateway.ProjectRecord{Title: "Alpha", OwnerID: "u1"})
	require.NoError(t, err)
	f.store.FetchProjects(ctx, false)
	require.Len(t, f.store.Projects(), 1)

	// A second remote row appears; the fresh cache hides it until forced.
	_, err = f.gw.InsertProject(ctx, &gateway.ProjectRecord{Title: "Beta", OwnerID: "u1"})
	require.NoError(t, err)

	f.store.FetchProjects(ctx, false)
	assert.Len(t, f.store.Projects(), 1)

	f.store.FetchProjects(ctx, true)
	assert.Len(t, f.store.Projects(), 2)
}

func TestStore_FetchFailureKeepsStaleDataAndNotifies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gw.InsertProject(ctx, &gateway.ProjectRecord{Title: "Alpha", OwnerID: "u1"})
	require.NoError(t, err)
	f.store.FetchProjects(ctx, false)
	require.Len(t, f.store.Projects(), 1)

	f.gw.FailWith("ListProjects", errors.New("remote down"))
	f.store.FetchProjects(ctx, true)

	// Stale data stays visible and the failure surfaced as a toast.
	assert.Len(t, f.store.Projects(), 1)
	assert.Equal(t, 1, f.notifier.failureCount())

	// The errored scope refetches on the next consultation even though the
	// freshness window has not passed.
	f.gw.FailWith("ListProjects", nil)
	f.store.FetchProjects(ctx, false)
	assert.Len(t, f.store.Projects(), 1)
}

func TestStore_FetchCollaborativeProjects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gw.InsertProject(ctx, &gateway.ProjectRecord{Title: "Mine", OwnerID: "u1"})
	require.NoError(t, err)
	_, err = f.gw.InsertProject(ctx, &gateway.ProjectRecord{Title: "Shared", OwnerID: "u2", Collaborative: true})
	require.NoError(t, err)

	f.store.FetchProjects(ctx, false)
	f.store.FetchCollaborativeProjects(ctx, false)

	require.Len(t, f.store.Projects(), 1)
	shared := f.store.CollaborativeProjects()
	require.Len(t, shared, 1)
	assert.Equal(t, "Shared", shared[0].Title)
}

func TestStore_ReplaceScopeDropsVanishedRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")
	task := f.seedTask(t, project.ID, sprint.ID, "work", 3)

	require.Len(t, f.store.TasksBySprint(sprint.ID), 1)

	// The row vanishes remotely; a forced refetch empties the scope.
	require.NoError(t, f.gw.DeleteTask(ctx, task.ID))
	f.store.FetchTasksBySprint(ctx, sprint.ID, true)

	assert.Empty(t, f.store.TasksBySprint(sprint.ID))
}

// Mutations

func TestStore_CreateProjectSeedsPlaceholderSeries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	project := f.seedProject(t, "Alpha")
	assert.NotEmpty(t, project.ID)
	assert.Equal(t, "u1", project.OwnerID)
	assert.Equal(t, "Uma", project.OwnerName)

	series, found, err := f.series.Get(ctx, project.ID, "u1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, series, 21)
	for _, p := range series {
		assert.Equal(t, 0, p.Ideal)
	}
}

func TestStore_CreateTaskValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")

	// Outside a sprint the status must be backlog.
	_, err := f.store.CreateTask(ctx, &models.Task{
		ProjectID: project.ID,
		Title:     "bad",
		Status:    models.TaskStatusTodo,
	})
	require.Error(t, err)

	// Empty status defaults to backlog outside a sprint.
	task, err := f.store.CreateTask(ctx, &models.Task{ProjectID: project.ID, Title: "ok"})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusBacklog, task.Status)
	assert.True(t, task.InBacklog())

	// Negative points are rejected.
	_, err = f.store.CreateTask(ctx, &models.Task{
		ProjectID:   project.ID,
		Title:       "bad points",
		StoryPoints: -1,
	})
	require.Error(t, err)
}

func TestStore_CreateTaskDefaultsToTodoInsideSprint(t *testing.T) {
	f := newFixture(t)
	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")

	task := f.seedTask(t, project.ID, sprint.ID, "work", 2)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
}

func TestStore_UpdateMissingEntityIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	title := "x"

	_, err := f.store.UpdateProject(ctx, "nope", gateway.ProjectPatch{Title: &title})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.store.UpdateSprint(ctx, "nope", gateway.SprintPatch{Title: &title})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.store.UpdateTask(ctx, "nope", gateway.TaskPatch{Title: &title})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestStore_CompletionDateStampedExactlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")
	task := f.seedTask(t, project.ID, sprint.ID, "work", 5)
	require.Nil(t, task.CompletionDate)

	done := string(models.TaskStatusDone)
	updated, err := f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletionDate)
	firstStamp := *updated.CompletionDate
	assert.Equal(t, f.now, firstStamp)

	// Reopen, advance the clock, complete again: the original stamp holds.
	inProgress := string(models.TaskStatusInProgress)
	_, err = f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{Status: &inProgress})
	require.NoError(t, err)

	f.now = f.now.Add(48 * time.Hour)
	updated, err = f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletionDate)
	assert.Equal(t, firstStamp, *updated.CompletionDate)
}

func TestStore_ExplicitCompletionDateOverridesStamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")
	task := f.seedTask(t, project.ID, sprint.ID, "work", 5)

	done := string(models.TaskStatusDone)
	updated, err := f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{Status: &done})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletionDate)

	// An explicit date in the patch replaces the stamp, and the cached task
	// stays in step with the remote row.
	backdated := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	updated, err = f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{CompletionDate: &backdated})
	require.NoError(t, err)
	require.NotNil(t, updated.CompletionDate)
	assert.Equal(t, backdated, *updated.CompletionDate)

	remote, err := f.gw.ListTasksBySprint(ctx, sprint.ID)
	require.NoError(t, err)
	require.Len(t, remote, 1)
	require.NotNil(t, remote[0].CompletionDate)
	assert.Equal(t, backdated, *remote[0].CompletionDate)
}

func TestStore_BacklogStatusRejectedWhileSprintBound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")
	task := f.seedTask(t, project.ID, sprint.ID, "work", 2)

	backlog := string(models.TaskStatusBacklog)
	_, err := f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{Status: &backlog})
	require.Error(t, err)

	// The task is untouched, locally and remotely.
	cached, ok := f.store.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, models.TaskStatusTodo, cached.Status)
	assert.Equal(t, sprint.ID, cached.SprintID)

	// Clearing the sprint in the same patch makes the status legal.
	none := ""
	updated, err := f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{SprintID: &none, Status: &backlog})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusBacklog, updated.Status)
	assert.Empty(t, updated.SprintID)
}

func TestStore_MoveTaskOutOfSprintLandsInBacklog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")
	task := f.seedTask(t, project.ID, sprint.ID, "work", 2)

	none := ""
	updated, err := f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{SprintID: &none})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusBacklog, updated.Status)
	assert.True(t, updated.InBacklog())

	// The move refetched both bounding scopes.
	assert.Empty(t, f.store.TasksBySprint(sprint.ID))
	require.Len(t, f.store.BacklogTasks(project.ID), 1)
}

func TestStore_MoveTaskOutWithContradictoryStatusRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")
	task := f.seedTask(t, project.ID, sprint.ID, "work", 2)

	none := ""
	todo := string(models.TaskStatusTodo)
	_, err := f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{SprintID: &none, Status: &todo})
	require.Error(t, err)
}

func TestStore_MoveTaskIntoSprintDefaultsToTodo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")
	task := f.seedTask(t, project.ID, "", "loose", 2)
	require.Equal(t, models.TaskStatusBacklog, task.Status)

	updated, err := f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{SprintID: &sprint.ID})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusTodo, updated.Status)
	require.Len(t, f.store.TasksBySprint(sprint.ID), 1)
	assert.Empty(t, f.store.BacklogTasks(project.ID))
}

// Cascading deletes

func TestStore_DeleteSprintCascade(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")

	// Two board columns and three tasks hang off the sprint.
	for i, title := range []string{"To Do", "Done"} {
		_, err := f.gw.InsertBoardColumn(ctx, &gateway.BoardColumnRecord{SprintID: sprint.ID, Title: title, Position: i})
		require.NoError(t, err)
	}
	f.seedTask(t, project.ID, sprint.ID, "one", 1)
	f.seedTask(t, project.ID, sprint.ID, "two", 2)
	f.seedTask(t, project.ID, sprint.ID, "three", 3)

	require.NoError(t, f.store.DeleteSprint(ctx, sprint.ID))

	columns, err := f.gw.ListBoardColumns(ctx, sprint.ID)
	require.NoError(t, err)
	assert.Empty(t, columns)
	remote, err := f.gw.ListTasksBySprint(ctx, sprint.ID)
	require.NoError(t, err)
	assert.Empty(t, remote)
	assert.Empty(t, f.store.TasksBySprint(sprint.ID))
	assert.Empty(t, f.store.SprintsByProject(project.ID))
}

func TestStore_DeleteProjectCascadeRemovesEverything(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")
	f.seedTask(t, project.ID, sprint.ID, "in sprint", 2)
	f.seedTask(t, project.ID, "", "in backlog", 1)

	require.NoError(t, f.store.DeleteProject(ctx, project.ID))

	_, ok := f.store.Project(project.ID)
	assert.False(t, ok)
	assert.Empty(t, f.store.SprintsByProject(project.ID))
	assert.Empty(t, f.store.BacklogTasks(project.ID))

	remoteSprints, err := f.gw.ListSprints(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, remoteSprints)
	remoteBacklog, err := f.gw.ListBacklogTasks(ctx, project.ID)
	require.NoError(t, err)
	assert.Empty(t, remoteBacklog)

	// The persisted burndown series goes with the project.
	_, found, err := f.series.Get(ctx, project.ID, "u1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_DeleteProjectAbortsOnFirstFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	sprint := f.seedSprint(t, project.ID, "Sprint 1")
	f.seedTask(t, project.ID, sprint.ID, "work", 2)

	f.gw.FailWith("DeleteTask", errors.New("remote down"))
	err := f.store.DeleteProject(ctx, project.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsCascadeAborted(err))
	assert.GreaterOrEqual(t, f.notifier.failureCount(), 1)

	// The project row survives the aborted cascade.
	remote, listErr := f.gw.ListProjects(ctx, "u1")
	require.NoError(t, listErr)
	assert.Len(t, remote, 1)
}

func TestStore_DeleteTaskRefetchesBoundingScope(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	task := f.seedTask(t, project.ID, "", "loose", 1)
	require.Len(t, f.store.BacklogTasks(project.ID), 1)

	require.NoError(t, f.store.DeleteTask(ctx, task.ID))
	assert.Empty(t, f.store.BacklogTasks(project.ID))
}

// Burndown wiring

func TestStore_BurndownRecomputedOnTaskChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	f.seedSprint(t, project.ID, "Sprint 1")
	f.seedTask(t, project.ID, "", "estimated", 5)

	series, err := f.store.Burndown(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, series, 7)
	assert.Equal(t, 5, series[0].Ideal)
}

func TestStore_CompletingTaskMovesActualLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "Alpha")
	f.seedSprint(t, project.ID, "Sprint 1")
	task := f.seedTask(t, project.ID, "", "estimated", 5)

	series, err := f.store.Burndown(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, series, 7)
	// Today is day index 4 (2024-01-05 in a span starting 2024-01-01).
	require.NotNil(t, series[4].Actual)
	require.Equal(t, 5, *series[4].Actual)

	done := string(models.TaskStatusDone)
	_, err = f.store.UpdateTask(ctx, task.ID, gateway.TaskPatch{Status: &done})
	require.NoError(t, err)

	series, err = f.store.Burndown(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, series, 7)
	require.NotNil(t, series[4].Actual)
	assert.Equal(t, 0, *series[4].Actual)
}

func TestStore_BurndownFallsBackToPlaceholder(t *testing.T) {
	f := newFixture(t)

	series, err := f.store.Burndown(context.Background(), "unknown-project")
	require.NoError(t, err)
	assert.Len(t, series, 21)
	for _, p := range series {
		assert.Equal(t, 0, p.Ideal)
	}
}

// Sessions

func TestManager_SessionsAreScopedPerActor(t *testing.T) {
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	require.NoError(t, err)

	manager := NewManager(gateway.NewMemoryGateway(), burndownstore.NewMemoryStore(),
		&recordingNotifier{}, bus.NewMemoryEventBus(log),
		Options{MaxAge: time.Minute, FanoutGap: 0, PlaceholderDays: 21}, log)
	defer manager.CloseAll()

	first, err := manager.Open(models.Actor{ID: "u1"})
	require.NoError(t, err)
	second, err := manager.Open(models.Actor{ID: "u2"})
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	// Opening the same actor again reuses the session.
	again, err := manager.Open(models.Actor{ID: "u1"})
	require.NoError(t, err)
	assert.Same(t, first, again)

	assert.Len(t, manager.Sessions(), 2)

	manager.CloseSession("u1")
	_, ok := manager.Get("u1")
	assert.False(t, ok)
	assert.Len(t, manager.Sessions(), 1)
}

func TestStore_CloseResetsSessionState(t *testing.T) {
	f := newFixture(t)
	project := f.seedProject(t, "Alpha")
	require.Len(t, f.store.Projects(), 1)

	f.store.Close()

	assert.Empty(t, f.store.Projects())
	_, ok := f.store.Project(project.ID)
	assert.False(t, ok)
}
