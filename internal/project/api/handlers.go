package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sprintdeck/sprintdeck/internal/common/errors"
	"github.com/sprintdeck/sprintdeck/internal/common/logger"
	"github.com/sprintdeck/sprintdeck/internal/project/gateway"
	"github.com/sprintdeck/sprintdeck/internal/project/models"
	"github.com/sprintdeck/sprintdeck/internal/project/store"
)

// Handler contains HTTP handlers for the project data API. Every handler
// works against the actor session bound by the ActorSession middleware.
type Handler struct {
	manager *store.Manager
	logger  *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(manager *store.Manager, log *logger.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  log,
	}
}

// force reports whether the request asked for a forced refetch.
func force(c *gin.Context) bool {
	return c.Query("force") == "true"
}

// Project endpoints

// ListProjects returns the actor's own projects, fetching first when stale
// GET /api/v1/projects
func (h *Handler) ListProjects(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	s.FetchProjects(c.Request.Context(), force(c))
	projects := s.Projects()

	resp := ProjectsListResponse{
		Projects: make([]*ProjectResponse, len(projects)),
		Total:    len(projects),
	}
	for i, p := range projects {
		resp.Projects[i] = projectToResponse(p)
	}

	c.JSON(http.StatusOK, resp)
}

// ListSharedProjects returns the projects shared with the actor
// GET /api/v1/projects/shared
func (h *Handler) ListSharedProjects(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	s.FetchCollaborativeProjects(c.Request.Context(), force(c))
	projects := s.CollaborativeProjects()

	resp := ProjectsListResponse{
		Projects: make([]*ProjectResponse, len(projects)),
		Total:    len(projects),
	}
	for i, p := range projects {
		resp.Projects[i] = projectToResponse(p)
	}

	c.JSON(http.StatusOK, resp)
}

// GetProject retrieves a cached project by ID
// GET /api/v1/projects/:projectId
func (h *Handler) GetProject(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	projectID := c.Param("projectId")
	project, found := s.Project(projectID)
	if !found {
		respondError(c, errors.NotFound("project", projectID))
		return
	}

	c.JSON(http.StatusOK, projectToResponse(project))
}

// CreateProject creates a new project owned by the actor
// POST /api/v1/projects
func (h *Handler) CreateProject(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.BadRequest(err.Error()))
		return
	}

	project, err := s.CreateProject(c.Request.Context(), &models.Project{
		Title:         req.Title,
		Description:   req.Description,
		EndGoal:       req.EndGoal,
		Collaborative: req.Collaborative,
	})
	if err != nil {
		h.logger.Error("failed to create project", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, projectToResponse(project))
}

// UpdateProject applies a partial update to a project
// PATCH /api/v1/projects/:projectId
func (h *Handler) UpdateProject(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	projectID := c.Param("projectId")
	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.BadRequest(err.Error()))
		return
	}

	project, err := s.UpdateProject(c.Request.Context(), projectID, gateway.ProjectPatch{
		Title:         req.Title,
		Description:   req.Description,
		EndGoal:       req.EndGoal,
		Collaborative: req.Collaborative,
	})
	if err != nil {
		h.logger.Error("failed to update project", zap.String("project_id", projectID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, projectToResponse(project))
}

// DeleteProject removes a project and everything under it
// DELETE /api/v1/projects/:projectId
func (h *Handler) DeleteProject(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	projectID := c.Param("projectId")
	if err := s.DeleteProject(c.Request.Context(), projectID); err != nil {
		h.logger.Error("failed to delete project", zap.String("project_id", projectID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RefreshProjects invalidates and refetches everything the session holds
// POST /api/v1/projects/refresh
func (h *Handler) RefreshProjects(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	s.RefreshProjectData(c.Request.Context(), "")
	c.Status(http.StatusAccepted)
}

// RefreshProject invalidates and refetches one project's scopes
// POST /api/v1/projects/:projectId/refresh
func (h *Handler) RefreshProject(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	s.RefreshProjectData(c.Request.Context(), c.Param("projectId"))
	c.Status(http.StatusAccepted)
}

// GetBurndown returns the persisted burndown series for a project
// GET /api/v1/projects/:projectId/burndown
func (h *Handler) GetBurndown(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	projectID := c.Param("projectId")
	series, err := s.Burndown(c.Request.Context(), projectID)
	if err != nil {
		h.logger.Error("failed to load burndown series", zap.String("project_id", projectID), zap.Error(err))
		respondError(c, errors.InternalError("failed to load burndown series", err))
		return
	}

	c.JSON(http.StatusOK, BurndownResponse{
		ProjectID: projectID,
		Points:    series,
	})
}

// Sprint endpoints

// ListSprints returns the sprints of a project, fetching first when stale
// GET /api/v1/projects/:projectId/sprints
func (h *Handler) ListSprints(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	projectID := c.Param("projectId")
	s.FetchSprints(c.Request.Context(), projectID, force(c))
	sprints := s.SprintsByProject(projectID)

	resp := SprintsListResponse{
		Sprints: make([]*SprintResponse, len(sprints)),
		Total:   len(sprints),
	}
	for i, sp := range sprints {
		resp.Sprints[i] = sprintToResponse(sp)
	}

	c.JSON(http.StatusOK, resp)
}

// CreateSprint creates a new sprint
// POST /api/v1/sprints
func (h *Handler) CreateSprint(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	var req CreateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.BadRequest(err.Error()))
		return
	}

	sprint, err := s.CreateSprint(c.Request.Context(), &models.Sprint{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      models.SprintStatus(req.Status),
	})
	if err != nil {
		h.logger.Error("failed to create sprint", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sprintToResponse(sprint))
}

// UpdateSprint applies a partial update to a sprint
// PATCH /api/v1/sprints/:sprintId
func (h *Handler) UpdateSprint(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	sprintID := c.Param("sprintId")
	var req UpdateSprintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.BadRequest(err.Error()))
		return
	}

	sprint, err := s.UpdateSprint(c.Request.Context(), sprintID, gateway.SprintPatch{
		Title:       req.Title,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Status:      req.Status,
	})
	if err != nil {
		h.logger.Error("failed to update sprint", zap.String("sprint_id", sprintID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sprintToResponse(sprint))
}

// DeleteSprint removes a sprint with its columns and tasks
// DELETE /api/v1/sprints/:sprintId
func (h *Handler) DeleteSprint(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	sprintID := c.Param("sprintId")
	if err := s.DeleteSprint(c.Request.Context(), sprintID); err != nil {
		h.logger.Error("failed to delete sprint", zap.String("sprint_id", sprintID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Task endpoints

// ListSprintTasks returns the tasks of a sprint, fetching first when stale
// GET /api/v1/sprints/:sprintId/tasks
func (h *Handler) ListSprintTasks(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	sprintID := c.Param("sprintId")
	s.FetchTasksBySprint(c.Request.Context(), sprintID, force(c))
	tasks := s.TasksBySprint(sprintID)

	resp := TasksListResponse{
		Tasks: make([]*TaskResponse, len(tasks)),
		Total: len(tasks),
	}
	for i, t := range tasks {
		resp.Tasks[i] = taskToResponse(t)
	}

	c.JSON(http.StatusOK, resp)
}

// ListBacklogTasks returns a project's backlog, fetching first when stale
// GET /api/v1/projects/:projectId/backlog
func (h *Handler) ListBacklogTasks(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	projectID := c.Param("projectId")
	s.FetchBacklogTasks(c.Request.Context(), projectID, force(c))
	tasks := s.BacklogTasks(projectID)

	resp := TasksListResponse{
		Tasks: make([]*TaskResponse, len(tasks)),
		Total: len(tasks),
	}
	for i, t := range tasks {
		resp.Tasks[i] = taskToResponse(t)
	}

	c.JSON(http.StatusOK, resp)
}

// GetTask retrieves a cached task by ID
// GET /api/v1/tasks/:taskId
func (h *Handler) GetTask(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	taskID := c.Param("taskId")
	task, found := s.Task(taskID)
	if !found {
		respondError(c, errors.NotFound("task", taskID))
		return
	}

	c.JSON(http.StatusOK, taskToResponse(task))
}

// CreateTask creates a new task
// POST /api/v1/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.BadRequest(err.Error()))
		return
	}

	task, err := s.CreateTask(c.Request.Context(), &models.Task{
		ProjectID:   req.ProjectID,
		SprintID:    req.SprintID,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.TaskStatus(req.Status),
		Assignee:    req.Assignee,
		StoryPoints: req.StoryPoints,
		Priority:    models.TaskPriority(req.Priority),
	})
	if err != nil {
		h.logger.Error("failed to create task", zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, taskToResponse(task))
}

// UpdateTask applies a partial update to a task
// PATCH /api/v1/tasks/:taskId
func (h *Handler) UpdateTask(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	taskID := c.Param("taskId")
	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, errors.BadRequest(err.Error()))
		return
	}

	task, err := s.UpdateTask(c.Request.Context(), taskID, gateway.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
		SprintID:    req.SprintID,
		Status:      req.Status,
		Assignee:    req.Assignee,
		StoryPoints: req.StoryPoints,
		Priority:    req.Priority,
	})
	if err != nil {
		h.logger.Error("failed to update task", zap.String("task_id", taskID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, taskToResponse(task))
}

// DeleteTask removes a single task
// DELETE /api/v1/tasks/:taskId
func (h *Handler) DeleteTask(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	taskID := c.Param("taskId")
	if err := s.DeleteTask(c.Request.Context(), taskID); err != nil {
		h.logger.Error("failed to delete task", zap.String("task_id", taskID), zap.Error(err))
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Session endpoints

// CloseSession tears the actor's session down
// DELETE /api/v1/session
func (h *Handler) CloseSession(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		respondError(c, errors.Unauthorized("no session bound to request"))
		return
	}

	h.manager.CloseSession(s.Actor().ID)
	c.Status(http.StatusNoContent)
}
