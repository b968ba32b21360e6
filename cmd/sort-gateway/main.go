package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rosehill-valentines/ticket-sorter/api/swagger"
	internalhandler "github.com/rosehill-valentines/ticket-sorter/internal/handler"
	internalmiddleware "github.com/rosehill-valentines/ticket-sorter/internal/middleware"
	"github.com/rosehill-valentines/ticket-sorter/internal/service"
	"github.com/rosehill-valentines/ticket-sorter/pkg/archive"
	"github.com/rosehill-valentines/ticket-sorter/pkg/cache"
	"github.com/rosehill-valentines/ticket-sorter/pkg/config"
	"github.com/rosehill-valentines/ticket-sorter/pkg/database"
	"github.com/rosehill-valentines/ticket-sorter/pkg/jobs"
	"github.com/rosehill-valentines/ticket-sorter/pkg/logger"
	corsmiddleware "github.com/rosehill-valentines/ticket-sorter/pkg/middleware/cors"
	reqidmiddleware "github.com/rosehill-valentines/ticket-sorter/pkg/middleware/requestid"
	"github.com/rosehill-valentines/ticket-sorter/pkg/storage"
	"github.com/rosehill-valentines/ticket-sorter/pkg/store"
)

// @title Rosehill Valentine's Ticket Sorter API
// @version 0.1.0
// @description Sorts purchased Valentine's Day tickets into classroom delivery routes
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

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	planStore, err := newPlanStore(cfg)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise plan store", "error", err)
	}

	queueCfg := jobs.QueueConfig{
		Workers:    cfg.Jobs.WorkerConcurrency,
		MaxRetries: cfg.Jobs.WorkerRetries,
		Logger:     logr,
	}
	sortSvc := service.NewSortService(planStore, metricsSvc, nil, logr, cfg.Store.PlanTTL, queueCfg)
	defer sortSvc.Close()
	if cfg.Archive.Enabled {
		archiveRepo, err := newArchiveRepository(cfg)
		if err != nil {
			logr.Sugar().Fatalw("failed to initialise plan archive", "error", err)
		}
		sortSvc = sortSvc.WithArchiver(archiveRepo)
	}
	exportStorage, err := storage.NewLocalStorage(cfg.Render.ExportDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Render.SignedURLSecret, cfg.Render.SignedURLTTL)
	sortHandler := internalhandler.NewSortHandler(sortSvc).WithExportStorage(exportStorage, exportSigner)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	sortGroup := api.Group("/sort")
	sortGroup.POST("", sortHandler.Run)
	sortGroup.GET("/:runId", sortHandler.Get)
	sortGroup.POST("/:runId/resort", sortHandler.Resort)
	sortGroup.GET("/:runId/export.csv", sortHandler.ExportCSV)
	sortGroup.GET("/:runId/export.pdf", sortHandler.ExportPDF)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "store_backend", cfg.Store.Backend)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

// newPlanStore selects the configured store backend (spec.md §6 treats
// persistence as an opaque key-value abstraction, swappable without
// touching the sort service).
func newPlanStore(cfg *config.Config) (store.PlanStore, error) {
	if cfg.Store.Backend != "redis" {
		return store.NewMemoryStore(cfg.Store.PlanTTL), nil
	}

	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return store.NewRedisStore(client, cfg.Store.PlanTTL), nil
}

// newArchiveRepository opens the durable audit-trail database, used only
// when ArchiveConfig.Enabled opts a deployment into it.
func newArchiveRepository(cfg *config.Config) (*archive.Repository, error) {
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect archive database: %w", err)
	}
	return archive.NewRepository(db), nil
}
