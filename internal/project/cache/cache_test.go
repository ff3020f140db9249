package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/sprintdeck/internal/project/models"
)

func project(id, owner string) *models.Project {
	return &models.Project{ID: id, OwnerID: owner, Title: "Project " + id}
}

func sprint(id, projectID string) *models.Sprint {
	return &models.Sprint{ID: id, ProjectID: projectID, Title: "Sprint " + id}
}

func task(id, projectID, sprintID string) *models.Task {
	status := models.TaskStatusTodo
	if sprintID == "" {
		status = models.TaskStatusBacklog
	}
	return &models.Task{ID: id, ProjectID: projectID, SprintID: sprintID, Status: status}
}

func TestEntityCache_LookupMiss(t *testing.T) {
	c := NewEntityCache()

	_, ok := c.Project("nope")
	assert.False(t, ok)
	_, ok = c.Sprint("nope")
	assert.False(t, ok)
	_, ok = c.Task("nope")
	assert.False(t, ok)
}

func TestEntityCache_InsertionOrderPreserved(t *testing.T) {
	c := NewEntityCache()
	c.UpsertProject(project("p3", "u1"))
	c.UpsertProject(project("p1", "u1"))
	c.UpsertProject(project("p2", "u1"))

	projects := c.Projects()
	require.Len(t, projects, 3)
	assert.Equal(t, "p3", projects[0].ID)
	assert.Equal(t, "p1", projects[1].ID)
	assert.Equal(t, "p2", projects[2].ID)

	// Upserting an existing entry keeps its slot.
	updated := project("p1", "u1")
	updated.Title = "renamed"
	c.UpsertProject(updated)
	projects = c.Projects()
	require.Len(t, projects, 3)
	assert.Equal(t, "p1", projects[1].ID)
	assert.Equal(t, "renamed", projects[1].Title)
}

func TestEntityCache_ReplaceScopeRemovesOnlyMatching(t *testing.T) {
	c := NewEntityCache()
	c.UpsertSprint(sprint("s1", "p1"))
	c.UpsertSprint(sprint("s2", "p1"))
	c.UpsertSprint(sprint("s3", "p2"))

	// A refetch of p1 replaces its sprints wholesale.
	c.ReplaceSprints(func(s *models.Sprint) bool { return s.ProjectID == "p1" },
		[]*models.Sprint{sprint("s4", "p1")})

	assert.Len(t, c.SprintsByProject("p1"), 1)
	assert.Len(t, c.SprintsByProject("p2"), 1)
	_, ok := c.Sprint("s1")
	assert.False(t, ok)
	_, ok = c.Sprint("s4")
	assert.True(t, ok)
}

func TestEntityCache_ReplaceWithEmptySetEmptiesScope(t *testing.T) {
	c := NewEntityCache()
	c.UpsertTask(task("t1", "p1", "s1"))
	c.UpsertTask(task("t2", "p1", "s1"))

	// A refetch returning zero rows legitimately empties the scope.
	c.ReplaceTasks(func(tk *models.Task) bool { return tk.SprintID == "s1" }, nil)

	assert.Empty(t, c.TasksBySprint("s1"))
}

func TestEntityCache_BacklogSeparateFromSprintTasks(t *testing.T) {
	c := NewEntityCache()
	c.UpsertTask(task("t1", "p1", "s1"))
	c.UpsertTask(task("t2", "p1", ""))
	c.UpsertTask(task("t3", "p1", ""))
	c.UpsertTask(task("t4", "p2", ""))

	assert.Len(t, c.TasksBySprint("s1"), 1)
	assert.Len(t, c.BacklogTasks("p1"), 2)
	assert.Len(t, c.BacklogTasks("p2"), 1)
	assert.Len(t, c.TasksByProject("p1"), 3)
}

func TestEntityCache_ReturnsCopies(t *testing.T) {
	c := NewEntityCache()
	c.UpsertProject(project("p1", "u1"))

	got, ok := c.Project("p1")
	require.True(t, ok)
	got.Title = "mutated"

	again, _ := c.Project("p1")
	assert.Equal(t, "Project p1", again.Title)

	list := c.Projects()
	list[0].Title = "mutated again"
	again, _ = c.Project("p1")
	assert.Equal(t, "Project p1", again.Title)
}

func TestEntityCache_RemoveOperations(t *testing.T) {
	c := NewEntityCache()
	c.UpsertProject(project("p1", "u1"))
	c.UpsertSprint(sprint("s1", "p1"))
	c.UpsertTask(task("t1", "p1", "s1"))

	c.RemoveTask("t1")
	c.RemoveSprint("s1")
	c.RemoveProject("p1")

	assert.Empty(t, c.Projects())
	assert.Empty(t, c.SprintsByProject("p1"))
	assert.Empty(t, c.TasksBySprint("s1"))
}

func TestEntityCache_Reset(t *testing.T) {
	c := NewEntityCache()
	c.UpsertProject(project("p1", "u1"))
	c.UpsertSprint(sprint("s1", "p1"))
	c.UpsertTask(task("t1", "p1", "s1"))

	c.Reset()

	assert.Empty(t, c.Projects())
	_, ok := c.Sprint("s1")
	assert.False(t, ok)
	_, ok = c.Task("t1")
	assert.False(t, ok)
}
