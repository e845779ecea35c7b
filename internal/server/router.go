package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/vibeline/vibeline-backend/internal/handlers"
	"github.com/vibeline/vibeline-backend/internal/middleware"
)

type RouterConfig struct {
	ServiceName         string
	AllowOrigins        []string
	AuthMiddleware      *middleware.AuthMiddleware
	UserHandler         *handlers.UserHandler
	ConnectionHandler   *handlers.ConnectionHandler
	ContentHandler      *handlers.ContentHandler
	EngagementHandler   *handlers.EngagementHandler
	ProgressionHandler  *handlers.ProgressionHandler
	NotificationHandler *handlers.NotificationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))

	origins := cfg.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5174"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Users (identity provider sync)
	api.POST("/users", cfg.UserHandler.Sync)
	api.GET("/users/:id", cfg.UserHandler.Get)

	// Connections
	api.POST("/connections", cfg.ConnectionHandler.Request)
	api.POST("/connections/:id/respond", cfg.ConnectionHandler.Respond)
	api.GET("/connections", cfg.ConnectionHandler.List)

	// Content + engagement
	api.POST("/content", cfg.ContentHandler.Create)
	api.GET("/content/trending", cfg.EngagementHandler.Trending)
	api.GET("/content/tag/:tag", cfg.EngagementHandler.ByTag)
	api.GET("/content/:id", cfg.ContentHandler.Get)
	api.PUT("/content/:id/reaction", cfg.EngagementHandler.SetReaction)

	// Progression
	api.POST("/quests/:id/complete", cfg.ProgressionHandler.CompleteQuest)
	api.POST("/modules/:id/complete", cfg.ProgressionHandler.CompleteModule)
	api.POST("/achievements/:id/progress", cfg.ProgressionHandler.IncrementAchievement)
	api.GET("/progression", cfg.ProgressionHandler.Get)

	// Notifications
	api.GET("/notifications", cfg.NotificationHandler.List)
	api.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)
	api.POST("/notifications/read-all", cfg.NotificationHandler.MarkAllRead)

	return router
}
