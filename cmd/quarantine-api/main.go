package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/loanops/quarantine-api/api/swagger"
	"github.com/loanops/quarantine-api/internal/handler"
	"github.com/loanops/quarantine-api/internal/middleware"
	"github.com/loanops/quarantine-api/internal/repository"
	"github.com/loanops/quarantine-api/internal/service"
	"github.com/loanops/quarantine-api/pkg/cache"
	"github.com/loanops/quarantine-api/pkg/config"
	"github.com/loanops/quarantine-api/pkg/database"
	"github.com/loanops/quarantine-api/pkg/jobs"
	"github.com/loanops/quarantine-api/pkg/logger"
	corsmiddleware "github.com/loanops/quarantine-api/pkg/middleware/cors"
	reqidmiddleware "github.com/loanops/quarantine-api/pkg/middleware/requestid"
	"github.com/loanops/quarantine-api/pkg/pipeline"
)

// @title Quarantine Remediation API
// @version 1.0.0
// @description Validation and remediation layer over the loan data-quality quarantine.
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to warehouse", "error", err)
	}
	defer db.Close()

	quarantineRepo := repository.NewQuarantineRepository(db, cfg.Quarantine.QuarantineTable, cfg.Quarantine.CleanTable)
	auditRepo := repository.NewAuditRepository(db, cfg.Quarantine.AuditTable)
	if err := auditRepo.EnsureTable(ctx); err != nil {
		logr.Sugar().Fatalw("failed to ensure audit table", "error", err)
	}

	var cacheRepo *repository.CacheRepository
	if cfg.Quarantine.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, counts cache disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}

	pipelineClient := pipeline.NewClient(pipeline.Config{
		BaseURL: cfg.Pipeline.JobsURL,
		Token:   cfg.Pipeline.Token,
		JobName: cfg.Pipeline.JobName,
		Timeout: cfg.Pipeline.Timeout,
	}, logr)

	metricsSvc := service.NewMetricsService()
	validationSvc := service.NewValidationService(logr)

	quarantineSvcCfg := service.QuarantineServiceConfig{CountsCacheTTL: cfg.Quarantine.CountsCacheTTL}
	var quarantineSvc *service.QuarantineService
	if cacheRepo != nil {
		quarantineSvc = service.NewQuarantineService(quarantineRepo, cacheRepo, logr, quarantineSvcCfg)
	} else {
		quarantineSvc = service.NewQuarantineService(quarantineRepo, nil, logr, quarantineSvcCfg)
	}
	exportSvc := service.NewExportService(quarantineSvc, logr)

	var mergeSvc *service.MergeService
	mergeQueue := jobs.NewQueue("merge", func(ctx context.Context, job jobs.Job) error {
		return mergeSvc.HandleMergeJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Merge.Workers,
		BufferSize: cfg.Merge.BufferSize,
		Logger:     logr,
	})
	mergeSvc = service.NewMergeService(quarantineRepo, auditRepo, validationSvc, pipelineClient, mergeQueue, metricsSvc, logr)

	mergeQueue.Start(ctx)
	defer mergeQueue.Stop()

	quarantineHandler := handler.NewQuarantineHandler(quarantineSvc, validationSvc, mergeSvc, exportSvc, validator.New())

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	quarantineHandler.RegisterRoutes(r.Group(cfg.APIPrefix))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "api_prefix", cfg.APIPrefix)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
