// Package store composes the gateway, cache, freshness tracking and burndown
// derivation into one per-session facade over a project's Scrum data.
package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sprintdeck/sprintdeck/internal/burndown"
	burndownstore "github.com/sprintdeck/sprintdeck/internal/burndown/store"
	"github.com/sprintdeck/sprintdeck/internal/common/logger"
	"github.com/sprintdeck/sprintdeck/internal/events/bus"
	"github.com/sprintdeck/sprintdeck/internal/notifications"
	"github.com/sprintdeck/sprintdeck/internal/project/cache"
	"github.com/sprintdeck/sprintdeck/internal/project/gateway"
	"github.com/sprintdeck/sprintdeck/internal/project/models"
	"github.com/sprintdeck/sprintdeck/internal/project/pacer"
)

// Options tunes the per-session knobs of a store.
type Options struct {
	// MaxAge is the cache freshness window. Non-positive falls back to the
	// tracker's default.
	MaxAge time.Duration
	// FanoutGap is the spacing between paced fan-out fetches. Negative falls
	// back to the pacer's default; zero disables spacing.
	FanoutGap time.Duration
	// PlaceholderDays is the width of the flat series seeded for new projects.
	PlaceholderDays int
}

// Store is the session-scoped facade over one actor's project data. Reads are
// served from the entity cache; fetches and mutations go through the gateway
// and keep the cache, freshness bookkeeping and burndown series in step.
type Store struct {
	actor    models.Actor
	gw       gateway.Gateway
	entities *cache.EntityCache
	tracker  *cache.FreshnessTracker
	pacer    *pacer.Pacer
	series   burndownstore.Store
	watcher  *burndown.Watcher
	notifier notifications.Notifier
	bus      bus.EventBus
	logger   *logger.Logger

	placeholderDays int
	now             func() time.Time
}

// New creates a store bound to the given actor. The gateway is expected to
// already carry retry behavior; the store adds no retries of its own.
func New(actor models.Actor, gw gateway.Gateway, series burndownstore.Store, notifier notifications.Notifier, eventBus bus.EventBus, opts Options, log *logger.Logger) (*Store, error) {
	placeholderDays := opts.PlaceholderDays
	if placeholderDays <= 0 {
		placeholderDays = burndown.DefaultPlaceholderDays
	}

	entities := cache.NewEntityCache()
	watcher := burndown.NewWatcher(actor.ID, entities, series, eventBus, placeholderDays, log)
	if err := watcher.Start(); err != nil {
		return nil, err
	}

	return &Store{
		actor:           actor,
		gw:              gw,
		entities:        entities,
		tracker:         cache.NewFreshnessTracker(opts.MaxAge),
		pacer:           pacer.New(opts.FanoutGap),
		series:          series,
		watcher:         watcher,
		notifier:        notifier,
		bus:             eventBus,
		logger:          log.WithFields(zap.String("component", "project-store"), zap.String("actor_id", actor.ID)),
		placeholderDays: placeholderDays,
		now:             time.Now,
	}, nil
}

// Actor returns the actor this session is bound to.
func (s *Store) Actor() models.Actor {
	return s.actor
}

// SetClock replaces the time source, for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
	s.watcher.SetClock(now)
}

// SetFanoutSleep replaces the pacer's sleep implementation, for tests.
func (s *Store) SetFanoutSleep(sleep func(ctx context.Context, d time.Duration) error) {
	s.pacer.SetSleep(sleep)
}

// Close tears the session down: the watcher unsubscribes and the cached view
// is dropped. The gateway and burndown store are shared and stay open.
func (s *Store) Close() {
	s.watcher.Stop()
	s.entities.Reset()
	s.tracker.Reset()
}

// Queries. All of these are cache-only and never touch the gateway.

// Project returns the cached project, if present.
func (s *Store) Project(id string) (*models.Project, bool) {
	return s.entities.Project(id)
}

// Sprint returns the cached sprint, if present.
func (s *Store) Sprint(id string) (*models.Sprint, bool) {
	return s.entities.Sprint(id)
}

// Task returns the cached task, if present.
func (s *Store) Task(id string) (*models.Task, bool) {
	return s.entities.Task(id)
}

// Projects returns the cached projects owned by the session's actor.
func (s *Store) Projects() []*models.Project {
	return s.ownProjects()
}

// CollaborativeProjects returns the cached projects shared with the actor.
func (s *Store) CollaborativeProjects() []*models.Project {
	var result []*models.Project
	for _, p := range s.entities.Projects() {
		if p.OwnerID != s.actor.ID {
			result = append(result, p)
		}
	}
	return result
}

// SprintsByProject returns the cached sprints of a project.
func (s *Store) SprintsByProject(projectID string) []*models.Sprint {
	return s.entities.SprintsByProject(projectID)
}

// TasksBySprint returns the cached tasks of a sprint.
func (s *Store) TasksBySprint(sprintID string) []*models.Task {
	return s.entities.TasksBySprint(sprintID)
}

// BacklogTasks returns the cached backlog tasks of a project.
func (s *Store) BacklogTasks(projectID string) []*models.Task {
	return s.entities.BacklogTasks(projectID)
}

// Burndown returns the persisted burndown series for a project, falling back
// to a flat placeholder when no series exists yet.
func (s *Store) Burndown(ctx context.Context, projectID string) ([]burndown.Point, error) {
	series, found, err := s.series.Get(ctx, projectID, s.actor.ID)
	if err != nil {
		return nil, err
	}
	if !found {
		return burndown.PlaceholderSeries(s.now(), s.placeholderDays), nil
	}
	return series, nil
}

func (s *Store) ownProjects() []*models.Project {
	var result []*models.Project
	for _, p := range s.entities.Projects() {
		if p.OwnerID == s.actor.ID {
			result = append(result, p)
		}
	}
	return result
}

// publish sends a mutation event on the bus, stamping the session's actor so
// per-actor subscribers can filter. Best-effort.
func (s *Store) publish(ctx context.Context, subject, eventType string, data map[string]any) {
	if s.bus == nil {
		return
	}
	if data == nil {
		data = make(map[string]any)
	}
	data["actor_id"] = s.actor.ID
	event := bus.NewEvent(eventType, "project-store", data)
	if err := s.bus.Publish(ctx, subject, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", eventType),
			zap.Error(err))
	}
}

// observe asks the watcher to recompute the project's burndown series if its
// entity counts changed. Failures are logged, never surfaced.
func (s *Store) observe(ctx context.Context, projectID string) {
	if err := s.watcher.Observe(ctx, projectID); err != nil {
		s.logger.Warn("burndown recompute failed",
			zap.String("project_id", projectID),
			zap.Error(err))
	}
}

// recompute regenerates the project's series unconditionally, for edits the
// watcher's count check cannot see.
func (s *Store) recompute(ctx context.Context, projectID string) {
	if err := s.watcher.Recompute(ctx, projectID); err != nil {
		s.logger.Warn("burndown recompute failed",
			zap.String("project_id", projectID),
			zap.Error(err))
	}
}

// Manager owns one store per authenticated actor. Sessions open lazily on
// first use and close explicitly on logout or shutdown.
type Manager struct {
	gw       gateway.Gateway
	series   burndownstore.Store
	notifier notifications.Notifier
	bus      bus.EventBus
	opts     Options
	logger   *logger.Logger

	sessions map[string]*Store
	mu       sync.Mutex
}

// NewManager creates a session manager over the shared dependencies.
func NewManager(gw gateway.Gateway, series burndownstore.Store, notifier notifications.Notifier, eventBus bus.EventBus, opts Options, log *logger.Logger) *Manager {
	return &Manager{
		gw:       gw,
		series:   series,
		notifier: notifier,
		bus:      eventBus,
		opts:     opts,
		logger:   log.WithFields(zap.String("component", "session-manager")),
		sessions: make(map[string]*Store),
	}
}

// Open returns the actor's session, creating it on first use.
func (m *Manager) Open(actor models.Actor) (*Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[actor.ID]; ok {
		return session, nil
	}

	session, err := New(actor, m.gw, m.series, m.notifier, m.bus, m.opts, m.logger)
	if err != nil {
		return nil, err
	}
	m.sessions[actor.ID] = session
	m.logger.Info("session opened", zap.String("actor_id", actor.ID))
	return session, nil
}

// Get returns the actor's session if one is open.
func (m *Manager) Get(actorID string) (*Store, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[actorID]
	return session, ok
}

// CloseSession tears down the actor's session, if open.
func (m *Manager) CloseSession(actorID string) {
	m.mu.Lock()
	session, ok := m.sessions[actorID]
	delete(m.sessions, actorID)
	m.mu.Unlock()

	if ok {
		session.Close()
		m.logger.Info("session closed", zap.String("actor_id", actorID))
	}
}

// Sessions returns a snapshot of the open sessions.
func (m *Manager) Sessions() []*Store {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*Store, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

// CloseAll tears down every open session, used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Store)
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
