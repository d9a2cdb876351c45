package routes

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"ngandee-matcher/internal/api/handlers"
	"ngandee-matcher/internal/api/middleware"
	"ngandee-matcher/internal/background"
	"ngandee-matcher/internal/config"
	"ngandee-matcher/internal/lifecycle"
	"ngandee-matcher/internal/matching/workers"
	"ngandee-matcher/internal/storage"
	"ngandee-matcher/internal/textsim"
)

// Deps bundles everything the route tree needs.
type Deps struct {
	Config      *config.Config
	Jobs        storage.JobStore
	Workers     storage.WorkerStore
	Matches     storage.MatchStore
	Text        textsim.Comparer
	Lifecycle   *lifecycle.Service
	PoolManager *workers.PoolManager
	TaskManager background.TaskManager
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, deps Deps) {
	// Global middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation())
	// Embedding-backed ranking gets a longer window than plain CRUD.
	e.Use(middleware.SelectiveTimeoutConfig(deps.Config.Server.ReadTimeout, 2*time.Minute))

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(deps.PoolManager, deps.TaskManager))
		health.GET("/live", handlers.LivenessHandler)
		health.GET("/workers", handlers.WorkerHealthHandler(deps.PoolManager))
	}

	// Status route
	e.GET("/status", handlers.StatusHandler(deps.Text, deps.PoolManager))

	// API v1 routes
	v1 := e.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.POST("", handlers.CreateJobHandler(deps.Jobs))
			jobs.GET("", handlers.ListJobsHandler(deps.Jobs))
			jobs.GET("/:id", handlers.GetJobHandler(deps.Jobs))
			jobs.POST("/:id/rank", handlers.RankJobHandler(deps.Jobs, deps.PoolManager))
			jobs.POST("/:id/rank/async", handlers.RankJobAsyncHandler(deps.Jobs, deps.PoolManager, deps.TaskManager))
			jobs.GET("/:id/matches", handlers.ListJobMatchesHandler(deps.Matches))
		}

		workerGroup := v1.Group("/workers")
		{
			workerGroup.POST("", handlers.CreateWorkerHandler(deps.Workers))
			workerGroup.GET("", handlers.ListWorkersHandler(deps.Workers))
			workerGroup.GET("/:id", handlers.GetWorkerHandler(deps.Workers))
			workerGroup.GET("/:id/matches", handlers.ListWorkerMatchesHandler(deps.Matches))
		}

		matches := v1.Group("/matches")
		{
			matches.GET("/:id", handlers.GetMatchHandler(deps.Matches))
			matches.POST("/:id/accept", handlers.AcceptMatchHandler(deps.Lifecycle))
			matches.POST("/:id/decline", handlers.DeclineMatchHandler(deps.Lifecycle))
			matches.POST("/:id/complete", handlers.CompleteMatchHandler(deps.Lifecycle))
			matches.PUT("/:id/priority", handlers.UpdatePriorityHandler(deps.Lifecycle))
			matches.POST("/:id/reviews", handlers.SubmitReviewHandler(deps.Lifecycle))
			matches.GET("/:id/reviews", handlers.ListReviewsHandler(deps.Lifecycle))
		}

		tasks := v1.Group("/tasks")
		{
			tasks.GET("", handlers.ListTasksHandler(deps.TaskManager))
			tasks.GET("/:processId", handlers.TaskStatusHandler(deps.TaskManager))
		}

		pool := v1.Group("/pool")
		{
			pool.GET("/stats", handlers.WorkerStatsHandler(deps.PoolManager))
		}
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "NganDee Match Engine",
			"version": "1.0.0",
			"status":  "running",
		})
	})
}
