package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/vibeline/vibeline-backend/internal/db"
	"github.com/vibeline/vibeline-backend/internal/gamedefs"
	"github.com/vibeline/vibeline-backend/internal/handlers"
	"github.com/vibeline/vibeline-backend/internal/logger"
	"github.com/vibeline/vibeline-backend/internal/middleware"
	"github.com/vibeline/vibeline-backend/internal/observability"
	"github.com/vibeline/vibeline-backend/internal/repos"
	"github.com/vibeline/vibeline-backend/internal/server"
	"github.com/vibeline/vibeline-backend/internal/services"
	"github.com/vibeline/vibeline-backend/internal/utils"

	redisclient "github.com/vibeline/vibeline-backend/internal/clients/redis"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	gamedefsPath := utils.GetEnv("GAMEDEFS_PATH", "", log)
	corsOrigins := utils.GetEnv("CORS_ORIGINS", "", log)

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "vibeline-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownOtel(ctx); err != nil {
				log.Warn("otel shutdown failed", "error", err)
			}
		}()
	}

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Game definitions
	log.Info("Loading game definitions from main...")
	defsConfig, err := gamedefs.Load(gamedefsPath)
	if err != nil {
		log.Error("Could not load game definitions", "error", err)
		os.Exit(1)
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	connectionRepo := repos.NewConnectionRepo(thePG, log)
	contentItemRepo := repos.NewContentItemRepo(thePG, log)
	reactionRepo := repos.NewReactionRepo(thePG, log)
	notificationRepo := repos.NewNotificationRepo(thePG, log)
	gameDefRepo := repos.NewGameDefRepo(thePG, log)
	progressRecordRepo := repos.NewProgressRecordRepo(thePG, log)
	levelStateRepo := repos.NewLevelStateRepo(thePG, log)

	if err := gamedefs.Seed(context.Background(), thePG, gameDefRepo, defsConfig); err != nil {
		log.Error("Could not seed game definitions", "error", err)
		os.Exit(1)
	}

	// Trending index (optional; services fall back to SQL when absent)
	trendingIndex, err := redisclient.NewTrendingIndex(log)
	if err != nil {
		log.Warn("Trending index unavailable, using SQL fallback", "error", err)
		trendingIndex = nil
	} else {
		defer trendingIndex.Close()
	}

	// Services
	log.Info("Setting up Services from main...")
	notificationService := services.NewNotificationService(thePG, log, notificationRepo)
	userService := services.NewUserService(thePG, log, userRepo)
	connectionService := services.NewConnectionService(thePG, log, connectionRepo, notificationService)
	contentService := services.NewContentService(thePG, log, contentItemRepo)
	engagementService := services.NewEngagementService(thePG, log, reactionRepo, contentItemRepo, trendingIndex, notificationService)
	progressionService := services.NewProgressionService(thePG, log, gameDefRepo, progressRecordRepo, levelStateRepo, defsConfig, notificationService)

	// Handlers
	log.Info("Setting up handlers from main...")
	userHandler := handlers.NewUserHandler(userService)
	connectionHandler := handlers.NewConnectionHandler(connectionService)
	contentHandler := handlers.NewContentHandler(contentService)
	engagementHandler := handlers.NewEngagementHandler(engagementService)
	progressionHandler := handlers.NewProgressionHandler(progressionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, jwtSecretKey)

	// Router
	log.Info("Setting up router from main...")
	var origins []string
	if corsOrigins != "" {
		for _, o := range strings.Split(corsOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	router := server.NewRouter(server.RouterConfig{
		ServiceName:         "vibeline-backend",
		AllowOrigins:        origins,
		AuthMiddleware:      authMiddleware,
		UserHandler:         userHandler,
		ConnectionHandler:   connectionHandler,
		ContentHandler:      contentHandler,
		EngagementHandler:   engagementHandler,
		ProgressionHandler:  progressionHandler,
		NotificationHandler: notificationHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
