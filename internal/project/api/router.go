package api

import (
	"github.com/gin-gonic/gin"

	"github.com/sprintdeck/sprintdeck/internal/common/logger"
	"github.com/sprintdeck/sprintdeck/internal/project/store"
)

// SetupRoutes configures the project data API routes. Every route runs
// behind the actor session middleware.
func SetupRoutes(router *gin.RouterGroup, manager *store.Manager, log *logger.Logger) {
	handler := NewHandler(manager, log)
	router.Use(ActorSession(manager, log))

	// Project routes
	projects := router.Group("/projects")
	{
		projects.GET("", handler.ListProjects)
		projects.POST("", handler.CreateProject)
		projects.GET("/shared", handler.ListSharedProjects)
		projects.POST("/refresh", handler.RefreshProjects)
		projects.GET("/:projectId", handler.GetProject)
		projects.PATCH("/:projectId", handler.UpdateProject)
		projects.DELETE("/:projectId", handler.DeleteProject)
		projects.POST("/:projectId/refresh", handler.RefreshProject)

		// Project sub-resources
		projects.GET("/:projectId/sprints", handler.ListSprints)
		projects.GET("/:projectId/backlog", handler.ListBacklogTasks)
		projects.GET("/:projectId/burndown", handler.GetBurndown)
	}

	// Sprint routes
	sprints := router.Group("/sprints")
	{
		sprints.POST("", handler.CreateSprint)
		sprints.PATCH("/:sprintId", handler.UpdateSprint)
		sprints.DELETE("/:sprintId", handler.DeleteSprint)
		sprints.GET("/:sprintId/tasks", handler.ListSprintTasks)
	}

	// Task routes
	tasks := router.Group("/tasks")
	{
		tasks.POST("", handler.CreateTask)
		tasks.GET("/:taskId", handler.GetTask)
		tasks.PATCH("/:taskId", handler.UpdateTask)
		tasks.DELETE("/:taskId", handler.DeleteTask)
	}

	// Session routes
	router.DELETE("/session", handler.CloseSession)
}
