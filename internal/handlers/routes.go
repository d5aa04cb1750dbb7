package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/team-task-tracker/internal/constants"
	"github.com/yukikurage/team-task-tracker/internal/middleware"
	"github.com/yukikurage/team-task-tracker/internal/models"
)

// Handlers groups every HTTP handler of the API.
type Handlers struct {
	Auth  *AuthHandler
	User  *UserHandler
	Task  *TaskHandler
	Stats *StatsHandler
	Chat  *ChatHandler
}

// RegisterRoutes mounts the /api tree on r. requireAuth guards every route
// except register, login and logout; authLimit throttles the auth group.
func RegisterRoutes(r gin.IRouter, h Handlers, requireAuth, authLimit gin.HandlerFunc) {
	taskID := middleware.RequireIDParam("id", constants.ContextKeyTaskID)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	api := r.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth", authLimit)
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
		}

		users := api.Group("/users", requireAuth)
		{
			users.GET("", h.User.ListUsers)
			users.PUT("/:id/role", adminOnly, middleware.RequireIDParam("id", constants.ContextKeyTargetID), h.User.SetUserRole)
		}

		tasks := api.Group("/tasks", requireAuth)
		{
			tasks.GET("", h.Task.ListTasks)
			tasks.POST("", adminOnly, h.Task.CreateTask)
			tasks.POST("/draft", adminOnly, h.Task.DraftTasks)
			tasks.GET("/user/:userId", middleware.RequireIDParam("userId", constants.ContextKeyTargetID), h.Task.ListUserTasks)
			tasks.GET("/:id", taskID, h.Task.GetTask)
			tasks.GET("/:id/history", taskID, h.Task.GetTaskHistory)
			tasks.PUT("/:id", taskID, h.Task.UpdateTask)
			tasks.DELETE("/:id", adminOnly, taskID, h.Task.DeleteTask)
		}

		stats := api.Group("/stats", requireAuth)
		{
			stats.GET("/top-performers", h.Stats.TopPerformers)
		}

		messages := api.Group("/messages", requireAuth)
		{
			messages.GET("/stream", h.Chat.Stream)
			messages.GET("/:userId", middleware.RequireIDParam("userId", constants.ContextKeyTargetID), h.Chat.LoadMessages)
			messages.POST("", h.Chat.SendMessage)
			messages.POST("/typing", h.Chat.Typing)
			messages.PUT("/:id", h.Chat.EditMessage)
			messages.DELETE("/:id", h.Chat.DeleteMessage)
			messages.POST("/:id/read", h.Chat.MarkAsRead)
		}
	}
}
