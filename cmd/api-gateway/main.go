package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/mnemo-app/mnemo-api/api/swagger"
	"github.com/mnemo-app/mnemo-api/internal/handler"
	"github.com/mnemo-app/mnemo-api/internal/middleware"
	"github.com/mnemo-app/mnemo-api/internal/repository"
	"github.com/mnemo-app/mnemo-api/internal/service"
	"github.com/mnemo-app/mnemo-api/pkg/cache"
	"github.com/mnemo-app/mnemo-api/pkg/config"
	"github.com/mnemo-app/mnemo-api/pkg/database"
	"github.com/mnemo-app/mnemo-api/pkg/jobs"
	"github.com/mnemo-app/mnemo-api/pkg/logger"
	corsmiddleware "github.com/mnemo-app/mnemo-api/pkg/middleware/cors"
	reqidmiddleware "github.com/mnemo-app/mnemo-api/pkg/middleware/requestid"
)

// @title Mnemo Revision API
// @version 1.0.0
// @description Revision scheduling and review lifecycle for the Mnemo knowledge base
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Revision.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			cacheRepo := repository.NewCacheRepository(redisClient, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Revision.TaskCacheTTL, logr, true)
			defer cacheRepo.Close()
		}
	}

	planRepo := repository.NewPlanRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	planSvc := service.NewPlanService(planRepo, noteRepo, taskRepo, cacheSvc, metricsSvc, nil, logr)
	taskSvc := service.NewTaskService(taskRepo, planRepo, noteRepo, cacheSvc, metricsSvc, nil, logr)
	historySvc := service.NewHistoryService(historyRepo, metricsSvc, nil, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notificationSvc := service.NewNotificationService(settingsRepo, taskRepo, cacheSvc, nil, nil, logr, cfg.Revision.SummaryCacheTTL)
	var reminderQueue *jobs.Queue
	if cfg.Reminders.Enabled {
		reminderQueue = jobs.NewQueue("reminders", notificationSvc.HandleReminderJob, jobs.QueueConfig{
			Workers:    cfg.Reminders.WorkerConcurrency,
			MaxRetries: cfg.Reminders.WorkerRetries,
			RetryDelay: cfg.Reminders.RetryDelay,
			Logger:     logr,
		})
		reminderQueue.Start(ctx)
		defer reminderQueue.Stop()
		notificationSvc = service.NewNotificationService(settingsRepo, taskRepo, cacheSvc, reminderQueue, nil, logr, cfg.Revision.SummaryCacheTTL)
		go notificationSvc.RunReminderLoop(ctx, cfg.Reminders.PollInterval)
	}

	planHandler := handler.NewPlanHandler(planSvc)
	taskHandler := handler.NewTaskHandler(taskSvc)
	historyHandler := handler.NewHistoryHandler(historySvc)
	settingsHandler := handler.NewSettingsHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/stats", metricsHandler.Stats)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		revisions := api.Group("/revisions")
		{
			revisions.POST("/plans", planHandler.Create)
			revisions.GET("/plans", planHandler.List)
			revisions.GET("/plans/:planId", planHandler.Get)
			revisions.GET("/plans/:planId/tasks", taskHandler.ListPlanTasks)
			revisions.PATCH("/tasks/:taskId", taskHandler.Update)
			revisions.POST("/tasks/batch", taskHandler.BatchUpdate)
			revisions.GET("/tasks/next", taskHandler.Next)
			revisions.POST("/tasks/:taskId/adjust", taskHandler.Adjust)
			revisions.GET("/daily-tasks", taskHandler.ListDaily)
			revisions.GET("/history", historyHandler.List)
			revisions.POST("/history", historyHandler.Record)
			revisions.GET("/history/export", historyHandler.Export)
			revisions.GET("/handbooks/:handbookId/plans", planHandler.CheckHandbook)
			revisions.POST("/notes/:noteId/plans/:planId", taskHandler.AddNoteToPlan)
			revisions.POST("/notes/:noteId/plans", taskHandler.AddNoteToPlans)
		}

		settings := api.Group("/revision-settings")
		{
			settings.GET("/notifications/summary", settingsHandler.Summary)
			settings.GET("/settings", settingsHandler.Get)
			settings.PATCH("/settings", settingsHandler.Update)
			settings.GET("/statistics/note/:noteId", historyHandler.NoteStatistics)
			settings.GET("/history/note/:noteId", historyHandler.NoteHistory)
		}
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
