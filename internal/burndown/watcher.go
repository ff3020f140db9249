package burndown

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sprintdeck/sprintdeck/internal/common/logger"
	"github.com/sprintdeck/sprintdeck/internal/events"
	"github.com/sprintdeck/sprintdeck/internal/events/bus"
	"github.com/sprintdeck/sprintdeck/internal/project/models"
)

// Source provides the session's cached view of a project's sprints and tasks.
type Source interface {
	SprintsByProject(projectID string) []*models.Sprint
	TasksByProject(projectID string) []*models.Task
}

// Persistence is the slice of the burndown store the watcher needs.
type Persistence interface {
	Upsert(ctx context.Context, projectID, actorID string, series []Point) error
}

type entityCounts struct {
	sprints int
	tasks   int
}

// Watcher recomputes a project's burndown series whenever the project's
// sprint or task count changes. Change detection compares counts against the
// last values seen, not a deep diff.
type Watcher struct {
	actorID         string
	source          Source
	persistence     Persistence
	eventBus        bus.EventBus
	logger          *logger.Logger
	placeholderDays int
	today           func() time.Time

	lastSeen map[string]entityCounts
	mu       sync.Mutex

	subscriptions []bus.Subscription
}

// NewWatcher creates a watcher bound to one actor session.
func NewWatcher(actorID string, source Source, persistence Persistence, eventBus bus.EventBus, placeholderDays int, log *logger.Logger) *Watcher {
	if placeholderDays <= 0 {
		placeholderDays = DefaultPlaceholderDays
	}
	return &Watcher{
		actorID:         actorID,
		source:          source,
		persistence:     persistence,
		eventBus:        eventBus,
		logger:          log.WithFields(zap.String("component", "burndown-watcher"), zap.String("actor_id", actorID)),
		placeholderDays: placeholderDays,
		today:           time.Now,
		lastSeen:        make(map[string]entityCounts),
	}
}

// SetClock replaces the time source, for tests.
func (w *Watcher) SetClock(today func() time.Time) {
	w.today = today
}

// Start subscribes to sprint and task mutation events. Queue subscriptions
// keyed by actor keep recomputation on a single instance when several
// replicas share a NATS bus.
func (w *Watcher) Start() error {
	queue := "burndown-" + w.actorID
	for _, subject := range []string{events.SubjectSprints, events.SubjectTasks} {
		sub, err := w.eventBus.QueueSubscribe(subject, queue, w.handleEvent)
		if err != nil {
			return err
		}
		w.subscriptions = append(w.subscriptions, sub)
	}
	return nil
}

// Stop drops the event subscriptions.
func (w *Watcher) Stop() {
	for _, sub := range w.subscriptions {
		_ = sub.Unsubscribe()
	}
	w.subscriptions = nil
}

func (w *Watcher) handleEvent(ctx context.Context, event *bus.Event) error {
	actorID, _ := event.Data["actor_id"].(string)
	if actorID != w.actorID {
		return nil
	}
	projectID, _ := event.Data["project_id"].(string)
	if projectID == "" {
		return nil
	}
	return w.Recompute(ctx, projectID)
}

// Observe recomputes and persists the project's series when its sprint or
// task count changed since the last observation.
func (w *Watcher) Observe(ctx context.Context, projectID string) error {
	sprints := w.source.SprintsByProject(projectID)
	tasks := w.source.TasksByProject(projectID)

	counts := entityCounts{sprints: len(sprints), tasks: len(tasks)}

	w.mu.Lock()
	last, seen := w.lastSeen[projectID]
	if seen && last == counts {
		w.mu.Unlock()
		return nil
	}
	w.lastSeen[projectID] = counts
	w.mu.Unlock()

	return w.compute(ctx, projectID, sprints, tasks)
}

// Recompute regenerates the series unconditionally. Edits that change series
// inputs without changing entity counts (completions, point or date changes)
// slip past Observe's count check and need this.
func (w *Watcher) Recompute(ctx context.Context, projectID string) error {
	sprints := w.source.SprintsByProject(projectID)
	tasks := w.source.TasksByProject(projectID)

	w.mu.Lock()
	w.lastSeen[projectID] = entityCounts{sprints: len(sprints), tasks: len(tasks)}
	w.mu.Unlock()

	return w.compute(ctx, projectID, sprints, tasks)
}

func (w *Watcher) compute(ctx context.Context, projectID string, sprints []*models.Sprint, tasks []*models.Task) error {
	series := Generate(sprints, tasks, w.today())
	if len(series) == 0 {
		series = PlaceholderSeries(w.today(), w.placeholderDays)
	}

	if err := w.persistence.Upsert(ctx, projectID, w.actorID, series); err != nil {
		w.logger.Error("failed to persist burndown series",
			zap.String("project_id", projectID),
			zap.Error(err))
		return err
	}

	w.logger.Debug("burndown series recomputed",
		zap.String("project_id", projectID),
		zap.Int("points", len(series)))

	if w.eventBus != nil {
		event := bus.NewEvent(events.BurndownRecomputed, "burndown-watcher", map[string]any{
			"project_id": projectID,
			"actor_id":   w.actorID,
			"points":     len(series),
		})
		_ = w.eventBus.Publish(ctx, events.SubjectBurndown, event)
	}
	return nil
}

// Forget drops the remembered counts for a project, used after deletion.
func (w *Watcher) Forget(projectID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.lastSeen, projectID)
}
