package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"ngandee-matcher/internal/api/routes"
	"ngandee-matcher/internal/background"
	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/lifecycle"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/matching"
	"ngandee-matcher/internal/matching/workers"
	"ngandee-matcher/internal/mux"
	"ngandee-matcher/internal/storage"
	"ngandee-matcher/internal/textsim"
	"ngandee-matcher/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logging
	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()
	logger.Info("Starting NganDee Match Engine")

	// Redis backs the embedding vector cache; the engine still works
	// without it, the provider just embeds every pair from scratch
	redisClient := utils.NewRedisClient(cfg)
	defer redisClient.Close()

	// Text similarity provider
	embedder, err := textsim.NewEmbedder(cfg, redisClient)
	if err != nil {
		logger.Warn("Embedding provider unavailable, running lexical-only", map[string]interface{}{
			"error": err.Error(),
		})
	}
	textManager := textsim.NewManager(cfg, embedder)
	if err := textManager.Start(context.Background()); err != nil {
		logger.Warn("Text similarity warm-up failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer textManager.Stop()

	// Storage
	store := storage.NewMemoryStore()

	// Matching and lifecycle services
	matcher := matching.NewService(cfg, store, store, store, textManager)
	lifecycleSvc := lifecycle.NewService(store, store, store)

	// Background task manager
	logger.Info("Initializing background task manager")
	taskManager := background.NewTaskManager(cfg)
	ctx := context.Background()
	if err := taskManager.Start(ctx); err != nil {
		logger.Error("Failed to start task manager", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	// Ranking worker pool
	poolManager := workers.NewPoolManager(cfg, matcher)
	if err := poolManager.Initialize(); err != nil {
		logger.Error("Failed to start worker pool", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer poolManager.Shutdown()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	routes.SetupRoutes(e, routes.Deps{
		Config:      cfg,
		Jobs:        store,
		Workers:     store,
		Matches:     store,
		Text:        textManager,
		Lifecycle:   lifecycleSvc,
		PoolManager: poolManager,
		TaskManager: taskManager,
	})

	// Single port for HTTP and gRPC via protocol multiplexing
	multiplexer := mux.NewMultiplexer(cfg, poolManager, taskManager, e)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	if err := multiplexer.Start(address); err != nil {
		logger.Error("Server failed to start", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop task manager first so queued batches drain before the pool closes
	logger.Info("Stopping background task manager...")
	if err := taskManager.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping task manager", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Stopping worker pool...")
	if err := poolManager.Shutdown(); err != nil {
		logger.Error("Error stopping worker pool", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if err := multiplexer.Stop(); err != nil {
		logger.Error("Error shutting down server", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Server shutdown complete")
}
