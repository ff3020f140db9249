package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sprintdeck/sprintdeck/internal/project/models"
)

func TestMemoryGateway_InsertAssignsIdentity(t *testing.T) {
	gw := NewMemoryGateway()

	stored, err := gw.InsertProject(context.Background(), &ProjectRecord{Title: "Alpha", OwnerID: "u1"})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.False(t, stored.CreatedAt.IsZero())
	assert.Equal(t, time.UTC, stored.CreatedAt.Location())
}

func TestMemoryGateway_ListProjectsFiltersByOwner(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()

	_, err := gw.InsertProject(ctx, &ProjectRecord{Title: "Mine", OwnerID: "u1"})
	require.NoError(t, err)
	_, err = gw.InsertProject(ctx, &ProjectRecord{Title: "Theirs", OwnerID: "u2"})
	require.NoError(t, err)
	_, err = gw.InsertProject(ctx, &ProjectRecord{Title: "Shared", OwnerID: "u2", Collaborative: true})
	require.NoError(t, err)

	own, err := gw.ListProjects(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, "Mine", own[0].Title)

	shared, err := gw.ListCollaborativeProjects(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, shared, 1)
	assert.Equal(t, "Shared", shared[0].Title)
}

func TestMemoryGateway_PatchMergesOnlySetFields(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()

	stored, err := gw.InsertTask(ctx, &TaskRecord{
		ProjectID:   "p1",
		SprintID:    "s1",
		Title:       "original",
		Description: "keep me",
		Status:      "todo",
		StoryPoints: 5,
	})
	require.NoError(t, err)

	title := "renamed"
	status := "in-progress"
	require.NoError(t, gw.UpdateTask(ctx, stored.ID, TaskPatch{Title: &title, Status: &status}))

	tasks, err := gw.ListTasksBySprint(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "renamed", tasks[0].Title)
	assert.Equal(t, "in-progress", tasks[0].Status)
	assert.Equal(t, "keep me", tasks[0].Description)
	assert.Equal(t, 5, tasks[0].StoryPoints)
}

func TestMemoryGateway_UpdateMissingRowFails(t *testing.T) {
	gw := NewMemoryGateway()
	title := "x"

	assert.Error(t, gw.UpdateProject(context.Background(), "nope", ProjectPatch{Title: &title}))
	assert.Error(t, gw.UpdateSprint(context.Background(), "nope", SprintPatch{Title: &title}))
	assert.Error(t, gw.UpdateTask(context.Background(), "nope", TaskPatch{Title: &title}))
	assert.Error(t, gw.DeleteProject(context.Background(), "nope"))
}

func TestMemoryGateway_BacklogSplit(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()

	_, err := gw.InsertTask(ctx, &TaskRecord{ProjectID: "p1", SprintID: "s1", Title: "sprint task", Status: "todo"})
	require.NoError(t, err)
	_, err = gw.InsertTask(ctx, &TaskRecord{ProjectID: "p1", Title: "backlog task", Status: "backlog"})
	require.NoError(t, err)

	backlog, err := gw.ListBacklogTasks(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, backlog, 1)
	assert.Equal(t, "backlog task", backlog[0].Title)

	inSprint, err := gw.ListTasksBySprint(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, inSprint, 1)
	assert.Equal(t, "sprint task", inSprint[0].Title)
}

func TestMemoryGateway_BoardColumnsSortedByPosition(t *testing.T) {
	gw := NewMemoryGateway()
	ctx := context.Background()

	_, err := gw.InsertBoardColumn(ctx, &BoardColumnRecord{SprintID: "s1", Title: "Done", Position: 2})
	require.NoError(t, err)
	_, err = gw.InsertBoardColumn(ctx, &BoardColumnRecord{SprintID: "s1", Title: "To Do", Position: 0})
	require.NoError(t, err)
	_, err = gw.InsertBoardColumn(ctx, &BoardColumnRecord{SprintID: "s1", Title: "In Progress", Position: 1})
	require.NoError(t, err)

	columns, err := gw.ListBoardColumns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, columns, 3)
	assert.Equal(t, "To Do", columns[0].Title)
	assert.Equal(t, "In Progress", columns[1].Title)
	assert.Equal(t, "Done", columns[2].Title)
}

func TestTaskRecord_ToModelDefaults(t *testing.T) {
	tests := []struct {
		name   string
		record TaskRecord
		want   models.TaskStatus
	}{
		{"unknown status without sprint", TaskRecord{Status: "garbage"}, models.TaskStatusBacklog},
		{"unknown status with sprint", TaskRecord{SprintID: "s1", Status: "garbage"}, models.TaskStatusTodo},
		{"known status preserved", TaskRecord{SprintID: "s1", Status: "done"}, models.TaskStatusDone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.ToModel().Status)
		})
	}
}

func TestTaskRecord_ToModelClampsNegativePoints(t *testing.T) {
	rec := TaskRecord{SprintID: "s1", Status: "todo", StoryPoints: -3}
	assert.Equal(t, 0, rec.ToModel().StoryPoints)
}

func TestSprintRecord_ToModelDefaultsUnknownStatus(t *testing.T) {
	rec := SprintRecord{Status: "garbage"}
	assert.Equal(t, models.SprintStatusPlanned, rec.ToModel().Status)
}
