package cache

import (
	"sync"

	"github.com/sprintdeck/sprintdeck/internal/project/models"
)

// EntityCache holds the session's view of projects, sprints and tasks.
// Mutations are replace-by-predicate: a completed refetch for a scope removes
// every cached record matching the scope and installs the fetched set, so a
// refetch returning zero rows legitimately empties that scope.
//
// Insertion order is preserved so listings are stable across reads.
type EntityCache struct {
	projects     map[string]*models.Project
	projectOrder []string
	sprints      map[string]*models.Sprint
	sprintOrder  []string
	tasks        map[string]*models.Task
	taskOrder    []string
	mu           sync.RWMutex
}

// NewEntityCache creates an empty cache.
func NewEntityCache() *EntityCache {
	c := &EntityCache{}
	c.reset()
	return c
}

func (c *EntityCache) reset() {
	c.projects = make(map[string]*models.Project)
	c.projectOrder = nil
	c.sprints = make(map[string]*models.Sprint)
	c.sprintOrder = nil
	c.tasks = make(map[string]*models.Task)
	c.taskOrder = nil
}

// Reset clears everything, used on session teardown.
func (c *EntityCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Lookups

// Project returns the cached project, if present.
func (c *EntityCache) Project(id string) (*models.Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.projects[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// Sprint returns the cached sprint, if present.
func (c *EntityCache) Sprint(id string) (*models.Sprint, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sprints[id]
	if !ok {
		return nil, false
	}
	cp := *s
	return &cp, true
}

// Task returns the cached task, if present.
func (c *EntityCache) Task(id string) (*models.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tasks[id]
	if !ok {
		return nil, false
	}
	cp := *t
	return &cp, true
}

// Projects returns all cached projects in insertion order.
func (c *EntityCache) Projects() []*models.Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]*models.Project, 0, len(c.projectOrder))
	for _, id := range c.projectOrder {
		if p, ok := c.projects[id]; ok {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result
}

// SprintsByProject returns the cached sprints of a project in insertion order.
func (c *EntityCache) SprintsByProject(projectID string) []*models.Sprint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []*models.Sprint
	for _, id := range c.sprintOrder {
		if s, ok := c.sprints[id]; ok && s.ProjectID == projectID {
			cp := *s
			result = append(result, &cp)
		}
	}
	return result
}

// TasksBySprint returns the cached tasks of a sprint in insertion order.
func (c *EntityCache) TasksBySprint(sprintID string) []*models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []*models.Task
	for _, id := range c.taskOrder {
		if t, ok := c.tasks[id]; ok && t.SprintID == sprintID {
			cp := *t
			result = append(result, &cp)
		}
	}
	return result
}

// BacklogTasks returns the cached backlog tasks of a project in insertion order.
func (c *EntityCache) BacklogTasks(projectID string) []*models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []*models.Task
	for _, id := range c.taskOrder {
		if t, ok := c.tasks[id]; ok && t.ProjectID == projectID && t.SprintID == "" {
			cp := *t
			result = append(result, &cp)
		}
	}
	return result
}

// TasksByProject returns every cached task of a project, sprint-bound or backlog.
func (c *EntityCache) TasksByProject(projectID string) []*models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var result []*models.Task
	for _, id := range c.taskOrder {
		if t, ok := c.tasks[id]; ok && t.ProjectID == projectID {
			cp := *t
			result = append(result, &cp)
		}
	}
	return result
}

// Replace-by-predicate operations

// ReplaceProjects removes every cached project matching the predicate and
// installs the given set.
func (c *EntityCache) ReplaceProjects(match func(*models.Project) bool, projects []*models.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.projectOrder[:0]
	for _, id := range c.projectOrder {
		p, ok := c.projects[id]
		if !ok {
			continue
		}
		if match(p) {
			delete(c.projects, id)
			continue
		}
		kept = append(kept, id)
	}
	c.projectOrder = kept

	for _, p := range projects {
		cp := *p
		if _, exists := c.projects[p.ID]; !exists {
			c.projectOrder = append(c.projectOrder, p.ID)
		}
		c.projects[p.ID] = &cp
	}
}

// ReplaceSprints removes every cached sprint matching the predicate and
// installs the given set.
func (c *EntityCache) ReplaceSprints(match func(*models.Sprint) bool, sprints []*models.Sprint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.sprintOrder[:0]
	for _, id := range c.sprintOrder {
		s, ok := c.sprints[id]
		if !ok {
			continue
		}
		if match(s) {
			delete(c.sprints, id)
			continue
		}
		kept = append(kept, id)
	}
	c.sprintOrder = kept

	for _, s := range sprints {
		cp := *s
		if _, exists := c.sprints[s.ID]; !exists {
			c.sprintOrder = append(c.sprintOrder, s.ID)
		}
		c.sprints[s.ID] = &cp
	}
}

// ReplaceTasks removes every cached task matching the predicate and installs
// the given set.
func (c *EntityCache) ReplaceTasks(match func(*models.Task) bool, tasks []*models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	kept := c.taskOrder[:0]
	for _, id := range c.taskOrder {
		t, ok := c.tasks[id]
		if !ok {
			continue
		}
		if match(t) {
			delete(c.tasks, id)
			continue
		}
		kept = append(kept, id)
	}
	c.taskOrder = kept

	for _, t := range tasks {
		cp := *t
		if _, exists := c.tasks[t.ID]; !exists {
			c.taskOrder = append(c.taskOrder, t.ID)
		}
		c.tasks[t.ID] = &cp
	}
}

// Point mutations

// UpsertProject inserts or replaces a single project.
func (c *EntityCache) UpsertProject(p *models.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *p
	if _, exists := c.projects[p.ID]; !exists {
		c.projectOrder = append(c.projectOrder, p.ID)
	}
	c.projects[p.ID] = &cp
}

// UpsertSprint inserts or replaces a single sprint.
func (c *EntityCache) UpsertSprint(s *models.Sprint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *s
	if _, exists := c.sprints[s.ID]; !exists {
		c.sprintOrder = append(c.sprintOrder, s.ID)
	}
	c.sprints[s.ID] = &cp
}

// UpsertTask inserts or replaces a single task.
func (c *EntityCache) UpsertTask(t *models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *t
	if _, exists := c.tasks[t.ID]; !exists {
		c.taskOrder = append(c.taskOrder, t.ID)
	}
	c.tasks[t.ID] = &cp
}

// RemoveProject drops a single project from the cache.
func (c *EntityCache) RemoveProject(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.projects, id)
	c.projectOrder = removeID(c.projectOrder, id)
}

// RemoveSprint drops a single sprint from the cache.
func (c *EntityCache) RemoveSprint(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sprints, id)
	c.sprintOrder = removeID(c.sprintOrder, id)
}

// RemoveTask drops a single task from the cache.
func (c *EntityCache) RemoveTask(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tasks, id)
	c.taskOrder = removeID(c.taskOrder, id)
}

func removeID(order []string, id string) []string {
	for i, candidate := range order {
		if candidate == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
