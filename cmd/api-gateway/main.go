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
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/study-sprint-api/api/swagger"
	"github.com/noah-isme/study-sprint-api/internal/handler"
	"github.com/noah-isme/study-sprint-api/internal/middleware"
	"github.com/noah-isme/study-sprint-api/internal/repository"
	"github.com/noah-isme/study-sprint-api/internal/service"
	"github.com/noah-isme/study-sprint-api/pkg/cache"
	"github.com/noah-isme/study-sprint-api/pkg/config"
	"github.com/noah-isme/study-sprint-api/pkg/database"
	"github.com/noah-isme/study-sprint-api/pkg/logger"
	reqidmiddleware "github.com/noah-isme/study-sprint-api/pkg/middleware/requestid"
)

// @title Study Sprint API
// @version 1.0.0
// @description Schedules curriculum videos into multi-week study sprints.
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	rdb, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, sprint summaries will not be cached", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	r := newRouter(cfg, logr, db, rdb)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, rdb *redis.Client) *gin.Engine {
	validate := validator.New()
	metrics := service.NewMetricsService()

	curriculumRepo := repository.NewCurriculumRepository(db)
	videoRepo := repository.NewVideoRepository(db)
	playlistRepo := repository.NewPlaylistRepository(db)
	studyPlanRepo := repository.NewStudyPlanRepository(db)
	sprintRepo := repository.NewSprintRepository(db)

	var cacheSvc *service.CacheService
	if rdb != nil {
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(rdb, logr), metrics, cfg.Sprints.SummaryCacheTTL, logr, true)
	}

	studyPlanSvc := service.NewStudyPlanService(studyPlanRepo, db, cfg.Sprints.LookupTimeout, metrics, validate, logr)
	sprintSvc := service.NewSprintService(curriculumRepo, videoRepo, playlistRepo, sprintRepo, studyPlanSvc, db, cacheSvc, metrics, validate, logr,
		service.SprintServiceConfig{
			LookupTimeout:     cfg.Sprints.LookupTimeout,
			BatchSize:         cfg.Sprints.BatchSize,
			LookupConcurrency: cfg.Sprints.LookupConcurrency,
			SummaryCacheTTL:   cfg.Sprints.SummaryCacheTTL,
		})
	teacherSvc := service.NewLessonTeacherService(playlistRepo, cfg.Sprints.LookupTimeout, metrics, validate, logr)
	exportSvc := service.NewExportService(studyPlanSvc, service.ExportConfig{Enabled: cfg.Exports.Enabled, PDFTitle: cfg.Exports.PDFTitle}, validate, logr, nil, nil)
	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	deps := map[string]handler.Pinger{"postgres": db}
	if rdb != nil {
		deps["redis"] = handler.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	metricsHandler := handler.NewMetricsHandler(metrics, deps)
	sprintHandler := handler.NewSprintHandler(sprintSvc)
	planHandler := handler.NewStudyPlanHandler(studyPlanSvc, exportSvc)
	teacherHandler := handler.NewLessonTeacherHandler(teacherSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	api.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Sprints.Enabled {
		sprints := api.Group("/sprints")
		sprints.POST("", middleware.Audit(logr, "create", "sprint", ""), sprintHandler.Generate)
		sprints.POST("/estimate", sprintHandler.Estimate)
		sprints.POST("/videos", sprintHandler.Videos)
		sprints.GET("", sprintHandler.List)
		sprints.DELETE("/:id", middleware.Audit(logr, "delete", "sprint", "id"), sprintHandler.Delete)
	}

	api.GET("/study-plans/:weekStart", planHandler.GetWeek)
	api.GET("/study-plans/:weekStart/export", planHandler.Export)
	api.GET("/curricula/:id/teachers", teacherHandler.List)

	return r
}
