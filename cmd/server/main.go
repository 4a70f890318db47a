package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/gradeloop/gradeloop-api/api/swagger"
	"github.com/gradeloop/gradeloop-api/internal/handler"
	"github.com/gradeloop/gradeloop-api/internal/middleware"
	"github.com/gradeloop/gradeloop-api/internal/repository"
	"github.com/gradeloop/gradeloop-api/internal/service"
	"github.com/gradeloop/gradeloop-api/pkg/cache"
	"github.com/gradeloop/gradeloop-api/pkg/config"
	"github.com/gradeloop/gradeloop-api/pkg/database"
	"github.com/gradeloop/gradeloop-api/pkg/jobs"
	"github.com/gradeloop/gradeloop-api/pkg/logger"
	corsmiddleware "github.com/gradeloop/gradeloop-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gradeloop/gradeloop-api/pkg/middleware/requestid"
)

// @title Gradeloop API
// @version 0.1.0
// @description Grade aggregation and trend engine for the student planner.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, overview cache disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Overview.CacheTTL, logr, cfg.Overview.CacheEnabled)
	}

	homeworkRepo := repository.NewHomeworkRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	groupRepo := repository.NewCourseGroupRepository(db)

	recalcSvc := service.NewRecalcService(homeworkRepo, categoryRepo, courseRepo, groupRepo, nil, cacheSvc, metricsSvc, logr)
	queue := jobs.NewQueue("recalc", recalcSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Recalc.Workers,
		BufferSize: cfg.Recalc.BufferSize,
		MaxRetries: cfg.Recalc.MaxRetries,
		RetryDelay: cfg.Recalc.RetryDelay,
		Logger:     logr,
		OnRetry:    metricsSvc.RecordQueueRetry,
	})
	recalcSvc.SetQueue(queue)

	validate := validator.New()
	homeworkSvc := service.NewHomeworkService(homeworkRepo, categoryRepo, courseRepo, groupRepo, recalcSvc, validate, logr)
	categorySvc := service.NewCategoryService(categoryRepo, courseRepo, groupRepo, recalcSvc, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, groupRepo, validate, logr)
	overviewSvc := service.NewOverviewService(groupRepo, courseRepo, categoryRepo, cacheSvc, logr)

	homeworkHandler := handler.NewHomeworkHandler(homeworkSvc)
	categoryHandler := handler.NewCategoryHandler(categorySvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	overviewHandler := handler.NewOverviewHandler(overviewSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	queue.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(cfg.JWT.Secret))
	{
		api.GET("/homeworks", homeworkHandler.List)
		api.POST("/homeworks", homeworkHandler.Create)
		api.GET("/homeworks/:id", homeworkHandler.Get)
		api.PUT("/homeworks/:id", homeworkHandler.Update)
		api.DELETE("/homeworks/:id", homeworkHandler.Delete)

		api.GET("/categories", categoryHandler.ListByCourse)
		api.POST("/categories", categoryHandler.Create)
		api.PUT("/categories/:id", categoryHandler.Update)
		api.DELETE("/categories/:id", categoryHandler.Delete)

		api.GET("/course-groups", courseHandler.ListGroups)
		api.POST("/course-groups", courseHandler.CreateGroup)
		api.DELETE("/course-groups/:id", courseHandler.DeleteGroup)

		api.GET("/courses", courseHandler.ListByGroup)
		api.POST("/courses", courseHandler.Create)
		api.GET("/courses/:id/grade-points", courseHandler.GradePoints)
		api.DELETE("/courses/:id", courseHandler.Delete)

		api.GET("/grades/overview", overviewHandler.GradeData)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	queue.Stop()
}
