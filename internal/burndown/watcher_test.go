package burndown

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/sprintdeck/internal/common/logger"
	"github.com/sprintdeck/sprintdeck/internal/events"
	"github.com/sprintdeck/sprintdeck/internal/events/bus"
	"github.com/sprintdeck/sprintdeck/internal/project/models"
)

type stubSource struct {
	sprints map[string][]*models.Sprint
	tasks   map[string][]*models.Task
}

func (s *stubSource) SprintsByProject(projectID string) []*models.Sprint {
	return s.sprints[projectID]
}

func (s *stubSource) TasksByProject(projectID string) []*models.Task {
	return s.tasks[projectID]
}

type recordingPersistence struct {
	mu      sync.Mutex
	upserts int
	last    []Point
}

func (p *recordingPersistence) Upsert(ctx context.Context, projectID, actorID string, series []Point) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.upserts++
	p.last = series
	return nil
}

func (p *recordingPersistence) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.upserts
}

func (p *recordingPersistence) lastSeries() []Point {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func watcherFixture(t *testing.T) (*Watcher, *stubSource, *recordingPersistence, bus.EventBus) {
	t.Helper()
	log, err := logger.NewLogger(logger.LoggingConfig{Level: "error", Format: "json", OutputPath: "stdout"})
	require.NoError(t, err)

	source := &stubSource{
		sprints: make(map[string][]*models.Sprint),
		tasks:   make(map[string][]*models.Task),
	}
	persistence := &recordingPersistence{}
	eventBus := bus.NewMemoryEventBus(log)

	w := NewWatcher("u1", source, persistence, eventBus, 21, log)
	w.SetClock(func() time.Time { return time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC) })
	return w, source, persistence, eventBus
}

func TestWatcher_ObserveRecomputesOnCountChange(t *testing.T) {
	w, source, persistence, _ := watcherFixture(t)
	ctx := context.Background()

	source.sprints["p1"] = []*models.Sprint{{
		ID:        "s1",
		ProjectID: "p1",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
	}}
	source.tasks["p1"] = []*models.Task{{ID: "t1", ProjectID: "p1", SprintID: "s1", StoryPoints: 5}}

	require.NoError(t, w.Observe(ctx, "p1"))
	assert.Equal(t, 1, persistence.count())
	assert.Len(t, persistence.lastSeries(), 7)

	// Same counts: no recompute.
	require.NoError(t, w.Observe(ctx, "p1"))
	assert.Equal(t, 1, persistence.count())

	// Task count change triggers a recompute.
	source.tasks["p1"] = append(source.tasks["p1"],
		&models.Task{ID: "t2", ProjectID: "p1", SprintID: "s1", StoryPoints: 3})
	require.NoError(t, w.Observe(ctx, "p1"))
	assert.Equal(t, 2, persistence.count())
}

func TestWatcher_RecomputeBypassesCountCheck(t *testing.T) {
	w, source, persistence, _ := watcherFixture(t)
	ctx := context.Background()

	source.sprints["p1"] = []*models.Sprint{{
		ID:        "s1",
		ProjectID: "p1",
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC),
	}}
	task := &models.Task{ID: "t1", ProjectID: "p1", SprintID: "s1", StoryPoints: 5}
	source.tasks["p1"] = []*models.Task{task}

	require.NoError(t, w.Observe(ctx, "p1"))
	require.Equal(t, 1, persistence.count())
	first := persistence.lastSeries()
	require.NotNil(t, first[2].Actual)
	assert.Equal(t, 5, *first[2].Actual)

	// Completing the task leaves the counts untouched; Observe misses it.
	completion := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	task.Status = models.TaskStatusDone
	task.CompletionDate = &completion
	require.NoError(t, w.Observe(ctx, "p1"))
	assert.Equal(t, 1, persistence.count())

	require.NoError(t, w.Recompute(ctx, "p1"))
	require.Equal(t, 2, persistence.count())
	updated := persistence.lastSeries()
	require.NotNil(t, updated[2].Actual)
	assert.Equal(t, 0, *updated[2].Actual)
}

func TestWatcher_PlaceholderForEmptyProject(t *testing.T) {
	w, _, persistence, _ := watcherFixture(t)

	require.NoError(t, w.Observe(context.Background(), "p1"))
	require.Equal(t, 1, persistence.count())
	assert.Len(t, persistence.lastSeries(), 21)
	for _, p := range persistence.lastSeries() {
		assert.Equal(t, 0, p.Ideal)
	}
}

func TestWatcher_ForgetAllowsRecompute(t *testing.T) {
	w, _, persistence, _ := watcherFixture(t)
	ctx := context.Background()

	require.NoError(t, w.Observe(ctx, "p1"))
	require.NoError(t, w.Observe(ctx, "p1"))
	assert.Equal(t, 1, persistence.count())

	w.Forget("p1")
	require.NoError(t, w.Observe(ctx, "p1"))
	assert.Equal(t, 2, persistence.count())
}

func TestWatcher_FiltersEventsByActor(t *testing.T) {
	w, _, persistence, eventBus := watcherFixture(t)
	require.NoError(t, w.Start())
	defer w.Stop()
	ctx := context.Background()

	// Another actor's mutation is ignored.
	other := bus.NewEvent(events.TaskCreated, "test", map[string]any{
		"project_id": "p1",
		"actor_id":   "u2",
	})
	require.NoError(t, eventBus.Publish(ctx, events.SubjectTasks, other))

	// This actor's mutation triggers an observation.
	mine := bus.NewEvent(events.TaskCreated, "test", map[string]any{
		"project_id": "p1",
		"actor_id":   "u1",
	})
	require.NoError(t, eventBus.Publish(ctx, events.SubjectTasks, mine))

	assert.Eventually(t, func() bool { return persistence.count() == 1 },
		time.Second, 10*time.Millisecond)
}
