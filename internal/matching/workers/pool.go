// Package workers runs ranking batches on a bounded worker pool so a burst
// of rank requests cannot fan out into unbounded scoring goroutine trees.
package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/matching"
	"ngandee-matcher/pkg/models"
	"ngandee-matcher/pkg/utils"
)

// TaskResult represents the outcome of one ranking task
type TaskResult struct {
	Response  *models.RankResponse
	Error     error
	RequestID string
	Duration  time.Duration
}

// RankTask represents a ranking batch to be processed by workers
type RankTask struct {
	ID         string
	JobID      string
	Request    *models.RankRequest
	ResultChan chan TaskResult
	Context    context.Context
	CreatedAt  time.Time
}

// Worker represents a single worker goroutine
type Worker struct {
	ID       int
	TaskChan chan RankTask
	QuitChan chan bool
	Pool     *WorkerPool
	logger   logging.Logger
}

// WorkerPool manages the worker goroutines and the task queue
type WorkerPool struct {
	config      *config.Config
	workers     []*Worker
	taskQueue   chan RankTask
	dispatcher  *Dispatcher
	rateLimiter *RateLimiter
	matcher     *matching.Service
	logger      logging.Logger
	mu          sync.RWMutex
	running     bool
	stats       *PoolStats
}

// PoolStats tracks worker pool statistics
type PoolStats struct {
	mu                    sync.RWMutex
	TasksQueued           int64
	TasksProcessed        int64
	TasksSuccessful       int64
	TasksFailed           int64
	BatchesDowngraded     int64
	BatchesNoCandidates   int64
	TotalProcessingTime   time.Duration
	AverageProcessingTime time.Duration
}

// PoolStatsData is the exported snapshot of PoolStats
type PoolStatsData struct {
	TasksQueued           int64         `json:"tasks_queued"`
	TasksProcessed        int64         `json:"tasks_processed"`
	TasksSuccessful       int64         `json:"tasks_successful"`
	TasksFailed           int64         `json:"tasks_failed"`
	BatchesDowngraded     int64         `json:"batches_downgraded"`
	BatchesNoCandidates   int64         `json:"batches_no_candidates"`
	AverageProcessingTime time.Duration `json:"average_processing_time"`
}

// NewWorkerPool creates a new worker pool instance
func NewWorkerPool(cfg *config.Config, matcher *matching.Service) *WorkerPool {
	logger := logging.GetGlobalLogger()

	pool := &WorkerPool{
		config:      cfg,
		taskQueue:   make(chan RankTask, cfg.Workers.QueueSize),
		rateLimiter: NewRateLimiter(cfg),
		matcher:     matcher,
		logger:      logger,
		stats:       &PoolStats{},
	}

	pool.workers = make([]*Worker, cfg.Workers.PoolSize)
	for i := 0; i < cfg.Workers.PoolSize; i++ {
		pool.workers[i] = &Worker{
			ID:       i + 1,
			TaskChan: make(chan RankTask),
			QuitChan: make(chan bool),
			Pool:     pool,
			logger:   logger.WithField("worker_id", i+1),
		}
	}

	pool.dispatcher = NewDispatcher(pool.taskQueue, pool.workers)

	logger.Info("Worker pool initialized", map[string]interface{}{
		"pool_size": cfg.Workers.PoolSize,
	})
	return pool
}

// Start starts the worker pool
func (wp *WorkerPool) Start() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if wp.running {
		return fmt.Errorf("worker pool is already running")
	}

	wp.dispatcher.Start()
	for _, worker := range wp.workers {
		go worker.Start()
	}

	wp.running = true
	wp.logger.Info("Worker pool started", map[string]interface{}{
		"workers": len(wp.workers),
	})
	return nil
}

// Stop stops the worker pool gracefully
func (wp *WorkerPool) Stop() error {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	if !wp.running {
		return nil
	}

	wp.dispatcher.Stop()
	for _, worker := range wp.workers {
		worker.Stop()
	}
	close(wp.taskQueue)

	wp.running = false
	wp.logger.Info("Worker pool stopped")
	return nil
}

// SubmitTask queues a ranking batch and waits for its result. The caller's
// context cancels the wait, not the batch itself; an abandoned batch still
// runs to completion so no partial state can leak.
func (wp *WorkerPool) SubmitTask(ctx context.Context, jobID string, req *models.RankRequest, posterID string) (*TaskResult, error) {
	if !wp.IsRunning() {
		return nil, fmt.Errorf("worker pool is not running")
	}

	if !wp.rateLimiter.Allow(posterID) {
		return nil, fmt.Errorf("rate limit exceeded for poster: %s", posterID)
	}

	task := RankTask{
		ID:         utils.GenerateRequestID(),
		JobID:      jobID,
		Request:    req,
		ResultChan: make(chan TaskResult, 1),
		Context:    ctx,
		CreatedAt:  time.Now(),
	}

	wp.stats.mu.Lock()
	wp.stats.TasksQueued++
	wp.stats.mu.Unlock()

	select {
	case wp.taskQueue <- task:
		wp.logger.Debug("Ranking task queued", map[string]interface{}{
			"task_id": task.ID,
			"job_id":  jobID,
		})
	case <-time.After(5 * time.Second):
		return nil, fmt.Errorf("task queue is full, request timed out")
	}

	select {
	case result := <-task.ResultChan:
		return &result, nil
	case <-time.After(wp.config.Workers.Timeout):
		return nil, fmt.Errorf("ranking timed out after %v", wp.config.Workers.Timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsRunning returns true if the worker pool is running
func (wp *WorkerPool) IsRunning() bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	return wp.running
}

// GetStats returns a snapshot of current pool statistics
func (wp *WorkerPool) GetStats() PoolStatsData {
	wp.stats.mu.RLock()
	defer wp.stats.mu.RUnlock()

	data := PoolStatsData{
		TasksQueued:         wp.stats.TasksQueued,
		TasksProcessed:      wp.stats.TasksProcessed,
		TasksSuccessful:     wp.stats.TasksSuccessful,
		TasksFailed:         wp.stats.TasksFailed,
		BatchesDowngraded:   wp.stats.BatchesDowngraded,
		BatchesNoCandidates: wp.stats.BatchesNoCandidates,
	}
	if wp.stats.TasksProcessed > 0 {
		data.AverageProcessingTime = wp.stats.TotalProcessingTime / time.Duration(wp.stats.TasksProcessed)
	}
	return data
}

// Start starts the worker goroutine
func (w *Worker) Start() {
	w.logger.Debug("Worker started")

	for {
		select {
		case task := <-w.TaskChan:
			w.processTask(task)
		case <-w.QuitChan:
			w.logger.Debug("Worker stopping")
			return
		}
	}
}

// Stop stops the worker
func (w *Worker) Stop() {
	w.QuitChan <- true
}

func (w *Worker) processTask(task RankTask) {
	startTime := time.Now()

	w.Pool.stats.mu.Lock()
	w.Pool.stats.TasksProcessed++
	w.Pool.stats.mu.Unlock()

	result := w.rankTask(task)
	result.Duration = time.Since(startTime)

	w.Pool.stats.mu.Lock()
	w.Pool.stats.TotalProcessingTime += result.Duration
	if result.Error != nil {
		w.Pool.stats.TasksFailed++
	} else {
		w.Pool.stats.TasksSuccessful++
		if result.Response.Downgraded {
			w.Pool.stats.BatchesDowngraded++
		}
		if result.Response.NoCandidates {
			w.Pool.stats.BatchesNoCandidates++
		}
	}
	w.Pool.stats.mu.Unlock()

	select {
	case task.ResultChan <- result:
		w.logger.Info("Ranking task completed", map[string]interface{}{
			"task_id":         task.ID,
			"job_id":          task.JobID,
			"processing_time": result.Duration.String(),
			"success":         result.Error == nil,
		})
	case <-time.After(100 * time.Millisecond):
		w.logger.Debug("Result channel timeout, caller may have disconnected", map[string]interface{}{
			"task_id": task.ID,
		})
	}
}

// rankTask runs the batch, redoing it whole on transient failures. Requests
// rejected by validation are never retried.
func (w *Worker) rankTask(task RankTask) TaskResult {
	result := TaskResult{RequestID: task.ID}

	maxRetries := w.Pool.config.Workers.MaxRetries
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			w.logger.Debug("Retrying ranking batch", map[string]interface{}{
				"task_id": task.ID,
				"attempt": attempt + 1,
			})
			time.Sleep(time.Duration(attempt) * time.Second)
		}

		resp, err := w.Pool.matcher.RankJob(task.Context, task.JobID, task.Request)
		if err != nil {
			lastErr = err
			var ce *utils.CustomError
			if errors.As(err, &ce) {
				// validation outcome, retrying cannot change it
				result.Error = err
				return result
			}
			continue
		}

		result.Response = resp
		return result
	}

	result.Error = fmt.Errorf("ranking failed after %d attempts, last error: %w", maxRetries+1, lastErr)
	return result
}
