package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ghlsync/internal/api"
	"ghlsync/internal/config"
	"ghlsync/internal/db"
	"ghlsync/internal/events"
	"ghlsync/internal/ghl"
	"ghlsync/internal/jobs"
	"ghlsync/internal/logging"
	"ghlsync/internal/service"
	"ghlsync/internal/syncer"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// Check for migrate command
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrations(); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		os.Exit(0)
	}

	// Check for serve command (default)
	if len(os.Args) > 1 && os.Args[1] != "serve" {
		log.Fatalf("Unknown command: %s (use 'serve' or 'migrate')", os.Args[1])
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	sink := logging.NewSink(logger, cfg.GHLDebug)

	// Database connection
	dbPool, err := db.NewPool(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	// Test Redis connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// CRM client and metadata cache
	var clientOpts []ghl.Option
	if cfg.GHLBaseURL != "" {
		clientOpts = append(clientOpts, ghl.WithBaseURL(cfg.GHLBaseURL))
	}
	crm := ghl.NewClient(cfg.GHLAPIKey, cfg.GHLLocationID, sink, clientOpts...)
	if cfg.GHLAPIKey == "" || cfg.GHLLocationID == "" {
		logger.Warn("CRM credentials not configured, sync calls will fail until GHL_API_KEY and GHL_LOCATION_ID are set")
	}
	metadata := ghl.NewMetadataCache(crm)

	// Event bus
	bus := events.New(rdb, logger)

	// Sync engine and background jobs
	engine := syncer.NewEngine(crm, dbPool.Queries, sink, cfg.GHLDefaultLeadSource)
	jobServer, jobClient := jobs.NewJobServer(cfg.RedisAddr, dbPool, engine, bus, sink, logger)
	go func() {
		if err := jobServer.Start(); err != nil {
			logger.Fatal("Job server failed", zap.Error(err))
		}
	}()
	defer jobServer.Stop()

	// Services
	scheduler := service.NewAsynqScheduler(jobClient)
	submissionSvc := service.NewSubmissionService(dbPool.Queries, scheduler, sink)
	feedSvc, err := service.NewFeedService(dbPool.Queries)
	if err != nil {
		logger.Fatal("Failed to initialize feed service", zap.Error(err))
	}

	// HTTP router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Mount API routes
	r.Mount("/", api.Routes(api.Dependencies{
		DB:          dbPool,
		Bus:         bus,
		Feeds:       feedSvc,
		Submissions: submissionSvc,
		Client:      crm,
		Metadata:    metadata,
		Log:         logger,
		JWTSecret:   cfg.JWTSecret,
	}))

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	// Start server
	logger.Info("Starting server", zap.String("addr", cfg.Addr))
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server stopped")
}
