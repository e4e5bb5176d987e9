package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"dataviz-sync/internal/config"
	"dataviz-sync/internal/controller"
	"dataviz-sync/internal/database"
	"dataviz-sync/internal/database/adapters"
	"dataviz-sync/internal/middleware"
	"dataviz-sync/internal/model"
	"dataviz-sync/internal/repository"
	"dataviz-sync/internal/scheduler"
	"dataviz-sync/internal/security"
	"dataviz-sync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Set Gin mode
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize registry database connection
	db, err := config.InitDatabase(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Auto migrate registry schema
	if err := db.AutoMigrate(&model.Connection{}, &model.Dataset{}, &model.RowRecord{}); err != nil {
		log.Printf("Warning: Database migration failed: %v", err)
		log.Println("Continuing with existing database schema...")
	}

	// Initialize repositories
	connectionRepo := repository.NewConnectionRepository(db)
	datasetRepo := repository.NewDatasetRepository(db)

	// Initialize secret store; a master key upgrades it to sealed-at-rest
	var secrets security.SecretStore
	if cfg.Security.MasterKey != "" {
		secrets, err = security.NewEncryptedSecretStore([]byte(cfg.Security.MasterKey))
		if err != nil {
			log.Fatalf("Failed to create encrypted secret store: %v", err)
		}
	} else {
		log.Println("No master key configured, credentials held in plaintext memory")
		secrets = security.NewMemorySecretStore()
	}

	// Initialize engine adapters
	registry := database.NewAdapterRegistry()
	timeouts := adapters.Timeouts{
		Connect: cfg.Sync.ConnectTimeout,
		Query:   cfg.Sync.QueryTimeout,
	}
	limits := service.SyncLimits{
		MaxTables: cfg.Sync.MaxTables,
		MaxRows:   cfg.Sync.MaxRows,
	}

	// Initialize security
	jwtManager := security.NewJWTManager(cfg.Security.JWTSecret, cfg.Security.JWTExpiration)
	authMiddleware := security.NewAuthMiddleware(jwtManager)

	// Initialize rate limiting
	rateLimitConfig := middleware.RateLimiterConfig{
		RPM:             cfg.Security.RateLimitPerMinute,
		Burst:           cfg.Security.RateLimitBurst,
		CleanupInterval: 5 * time.Minute,
	}
	rateLimiter := middleware.NewRateLimiter(rateLimitConfig)

	// Initialize metrics
	middleware.InitMetrics()

	// Initialize services
	syncService := service.NewSyncService(connectionRepo, datasetRepo, secrets, registry, timeouts, limits)

	// Scheduled passes run detached from any request context
	cron := scheduler.NewScheduler(func(connectionID string) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if _, err := syncService.SyncConnection(ctx, connectionID, "", cfg.Sync.ReplaceOnScheduled); err != nil {
			log.Printf("scheduled sync failed for %s: %v", connectionID, err)
		}
	})

	scheduleService := service.NewScheduleService(connectionRepo, cron)
	connectionService := service.NewConnectionService(connectionRepo, datasetRepo, secrets, cron)
	datasetService := service.NewDatasetService(datasetRepo)

	// Initialize controllers
	connectionController := controller.NewConnectionController(connectionService, syncService, scheduleService, cfg.Sync.ReplaceOnAdhoc)
	datasetController := controller.NewDatasetController(datasetService)
	healthController := controller.NewHealthController(db, cron)

	// Create Gin router
	router := gin.New()

	// Add middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.Cors())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.PrometheusMiddleware())

	// Add rate limiting if enabled
	if cfg.Security.EnableRateLimit {
		router.Use(rateLimiter.RateLimit())
	}

	// Health and metrics endpoints (always available)
	router.GET("/health", healthController.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 group
	api := router.Group("/api/v1")

	auth := api.Group("")
	if cfg.Security.EnableAuth {
		auth.Use(authMiddleware.RequireAuth())
	}
	{
		connections := auth.Group("/connections")
		{
			connections.POST("", connectionController.CreateConnection)
			connections.GET("", connectionController.ListConnections)
			connections.GET("/:id", connectionController.GetConnection)
			connections.DELETE("/:id", connectionController.DeleteConnection)
			connections.POST("/:id/test", connectionController.TestConnection)
			connections.GET("/:id/tables", connectionController.ListTables)
			connections.POST("/:id/sync", connectionController.SyncConnection)
			connections.POST("/:id/schedule", connectionController.SetSchedule)
			connections.GET("/:id/schedule", connectionController.GetSchedule)
			connections.DELETE("/:id/schedule", connectionController.RemoveSchedule)
		}

		datasets := auth.Group("/datasets")
		{
			datasets.GET("", datasetController.ListDatasets)
			datasets.GET("/:id", datasetController.GetDataset)
			datasets.GET("/:id/data", datasetController.GetDatasetRows)
		}
	}

	// Rebuild live triggers from persisted schedules before serving traffic
	if cfg.Scheduler.Enabled {
		restoreCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		restored, err := scheduleService.RestoreAll(restoreCtx)
		cancel()
		if err != nil {
			log.Printf("Warning: schedule restore failed: %v", err)
		} else if restored > 0 {
			log.Printf("Restored %d scheduled sync job(s)", restored)
		}
		cron.Start()
	}

	// Start server
	log.Printf("Starting server on port %s", cfg.Server.Port)
	log.Printf("Health check available at: http://localhost:%s/health", cfg.Server.Port)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for shutdown signal, then drain in-flight requests and halt the
	// cron runner without waiting on a running sync
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	if cfg.Scheduler.Enabled {
		cron.Stop()
	}
}
