package workers

import (
	"context"
	"fmt"
	"sync"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/matching"
	"ngandee-matcher/pkg/models"
)

// PoolManager owns the worker pool lifecycle
type PoolManager struct {
	config      *config.Config
	pool        *WorkerPool
	matcher     *matching.Service
	logger      logging.Logger
	mu          sync.RWMutex
	initialized bool
}

// NewPoolManager creates a new worker pool manager
func NewPoolManager(cfg *config.Config, matcher *matching.Service) *PoolManager {
	return &PoolManager{
		config:  cfg,
		matcher: matcher,
		logger:  logging.GetGlobalLogger().WithField("component", "pool_manager"),
	}
}

// Initialize creates and starts the worker pool
func (pm *PoolManager) Initialize() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.initialized {
		return fmt.Errorf("worker pool already initialized")
	}

	pm.pool = NewWorkerPool(pm.config, pm.matcher)
	if err := pm.pool.Start(); err != nil {
		return fmt.Errorf("failed to start worker pool: %w", err)
	}

	pm.initialized = true
	pm.logger.Info("Worker pool initialized")
	return nil
}

// Shutdown gracefully shuts down the worker pool
func (pm *PoolManager) Shutdown() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if !pm.initialized || pm.pool == nil {
		return nil
	}

	if err := pm.pool.Stop(); err != nil {
		pm.logger.Error("Error stopping worker pool", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}
	pm.pool.rateLimiter.Stop()

	pm.initialized = false
	pm.logger.Info("Worker pool shutdown complete")
	return nil
}

// SubmitRank submits a ranking batch to the worker pool and waits for it
func (pm *PoolManager) SubmitRank(ctx context.Context, jobID string, req *models.RankRequest, posterID string) (*TaskResult, error) {
	pm.mu.RLock()
	pool := pm.pool
	ready := pm.initialized
	pm.mu.RUnlock()

	if !ready || pool == nil {
		return nil, fmt.Errorf("worker pool not initialized")
	}

	result, err := pool.SubmitTask(ctx, jobID, req, posterID)
	if err != nil {
		pool.rateLimiter.RecordFailure(posterID, err)
		return nil, err
	}
	if result.Error != nil {
		pool.rateLimiter.RecordFailure(posterID, result.Error)
	} else {
		pool.rateLimiter.RecordSuccess(posterID)
	}
	return result, nil
}

// GetStats returns worker pool statistics
func (pm *PoolManager) GetStats() (*PoolManagerStats, error) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	if !pm.initialized || pm.pool == nil {
		return nil, fmt.Errorf("worker pool not initialized")
	}

	poolStats := pm.pool.GetStats()
	return &PoolManagerStats{
		Initialized:      pm.initialized,
		PoolStats:        &poolStats,
		RateLimiterStats: pm.pool.rateLimiter.GetAllStats(),
		WorkerCount:      len(pm.pool.workers),
		QueueCapacity:    pm.config.Workers.QueueSize,
	}, nil
}

// IsHealthy returns true if the worker pool is running
func (pm *PoolManager) IsHealthy() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.initialized && pm.pool != nil && pm.pool.IsRunning()
}

// PoolManagerStats aggregates pool and rate limiter statistics
type PoolManagerStats struct {
	Initialized      bool                              `json:"initialized"`
	PoolStats        *PoolStatsData                    `json:"pool_stats"`
	RateLimiterStats map[string]map[string]interface{} `json:"rate_limiter_stats"`
	WorkerCount      int                               `json:"worker_count"`
	QueueCapacity    int                               `json:"queue_capacity"`
}
