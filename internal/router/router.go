package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/taskcrew-dev/taskcrew/internal/auth"
	"github.com/taskcrew-dev/taskcrew/internal/config"
	"github.com/taskcrew-dev/taskcrew/internal/handlers"
	"github.com/taskcrew-dev/taskcrew/internal/middleware"
	"github.com/taskcrew-dev/taskcrew/internal/storage"
)

func New(cfg *config.Config, tokens *auth.TokenManager, store *storage.Store) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := handlers.NewAuthHandler(tokens, cfg.BcryptCost)
	attachmentHandler := handlers.NewAttachmentHandler(store)

	// uploaded blobs are public by stored name
	r.Static("/uploads", store.Dir())

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.GET("/me", middleware.AuthMiddleware(tokens), authHandler.Me)
		}

		teams := api.Group("/teams", middleware.AuthMiddleware(tokens))
		{
			teams.POST("", handlers.CreateTeam)
			teams.POST("/join", handlers.JoinTeam)
			teams.GET("", handlers.ListTeams)
			teams.GET("/:team_id", handlers.GetTeam)
			teams.GET("/:team_id/members", handlers.GetTeamMembers)
			teams.DELETE("/:team_id/members/:user_id", handlers.RemoveMember)
			teams.DELETE("/:team_id", attachmentHandler.DeleteTeam)
		}

		tasks := api.Group("/tasks", middleware.AuthMiddleware(tokens))
		{
			tasks.POST("", handlers.CreateTask)
			tasks.GET("", handlers.ListTasks)
			tasks.GET("/:task_id", handlers.GetTask)
			tasks.PATCH("/:task_id", handlers.UpdateTask)
			tasks.DELETE("/:task_id", attachmentHandler.DeleteTask)

			tasks.POST("/:task_id/attachments", attachmentHandler.Upload)
			tasks.GET("/:task_id/attachments", attachmentHandler.List)
			tasks.DELETE("/attachments/:attachment_id", attachmentHandler.Delete)

			tasks.POST("/:task_id/comments", handlers.AddComment)
			tasks.GET("/:task_id/comments", handlers.ListComments)
		}
	}

	return r
}
