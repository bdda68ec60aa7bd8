package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/exam-planner-api/api/swagger"
	"github.com/noah-isme/exam-planner-api/internal/handler"
	"github.com/noah-isme/exam-planner-api/internal/middleware"
	"github.com/noah-isme/exam-planner-api/internal/models"
	"github.com/noah-isme/exam-planner-api/internal/repository"
	"github.com/noah-isme/exam-planner-api/internal/service"
	"github.com/noah-isme/exam-planner-api/pkg/cache"
	"github.com/noah-isme/exam-planner-api/pkg/config"
	"github.com/noah-isme/exam-planner-api/pkg/database"
	"github.com/noah-isme/exam-planner-api/pkg/jobs"
	"github.com/noah-isme/exam-planner-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/exam-planner-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/exam-planner-api/pkg/middleware/requestid"
	"github.com/noah-isme/exam-planner-api/pkg/storage"
)

// @title Exam Planner API
// @version 1.0.0
// @description Exam timetable placement and seating plan service
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, planner cache disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	rosterRepo := repository.NewRosterRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	scheduleRepo := repository.NewExamScheduleRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	timetableSvc := service.NewTimetableService(
		rosterRepo,
		classroomRepo,
		scheduleRepo,
		cacheRepo,
		metricsSvc,
		validate,
		logr,
		service.TimetableConfig{
			ProposalTTL:  cfg.Planner.PlanTTL,
			CacheTTL:     cfg.Planner.CacheTTL,
			MaxRoomGroup: cfg.Planner.MaxRoomGroup,
		},
	)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	healthHandler := handler.NewHealthHandler(db, redisClient)
	r.GET("/healthz", healthHandler.Live)
	r.GET("/readyz", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	protected := api.Group("", middleware.JWT(cfg.JWT.Secret))

	if cfg.Planner.Enabled {
		timetableHandler := handler.NewTimetableHandler(timetableSvc)
		protected.POST("/timetables/generate", timetableHandler.Generate)
		protected.POST("/timetables", timetableHandler.Save)
		protected.GET("/schedules", timetableHandler.List)
		protected.GET("/schedules/:id", timetableHandler.Detail)
		protected.DELETE("/schedules/:id", middleware.RequireRoles(models.RoleAdmin), timetableHandler.Delete)
	}

	if cfg.Exports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

		// Queue and service reference each other, so the handler is bound
		// through a closure before the service exists.
		var exportSvc *service.ExportService
		queue := jobs.NewQueue("timetable-export", func(ctx context.Context, job jobs.Job) error {
			return exportSvc.Handle(ctx, job)
		}, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportSvc = service.NewExportService(timetableSvc, queue, store, signer, metricsSvc, logr)

		queue.Start(ctx)
		defer queue.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportSvc.CleanupOlderThan(cfg.Exports.SignedURLTTL)
				}
			}
		}()

		exportHandler := handler.NewExportHandler(exportSvc)
		protected.POST("/schedules/:id/exports", exportHandler.Enqueue)
		protected.GET("/exports/:id", exportHandler.Status)
		// downloads authenticate through the signed token instead of a JWT
		api.GET("/exports/download", exportHandler.Download)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
