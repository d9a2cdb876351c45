package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ngandee-matcher/internal/background"
	"ngandee-matcher/internal/matching/workers"
)

// TaskStatusHandler returns the state of a background ranking task
func TaskStatusHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		result, err := taskManager.GetTaskResult(c.Request().Context(), c.Param("processId"))
		if err != nil {
			if errors.Is(err, background.ErrTaskNotFound) {
				return errorResponse(c, http.StatusNotFound, "not_found", "Task not found", requestID)
			}
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, result)
	}
}

// ListTasksHandler lists all tracked background tasks (for monitoring)
func ListTasksHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		tasks, err := taskManager.ListTasks(c.Request().Context())
		if err != nil {
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"tasks":      tasks,
			"count":      len(tasks),
			"request_id": requestID,
		})
	}
}

// WorkerStatsHandler returns ranking worker pool statistics
func WorkerStatsHandler(poolManager *workers.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		stats, err := poolManager.GetStats()
		if err != nil {
			return errorResponse(c, http.StatusInternalServerError, "stats_unavailable", "Worker pool statistics are not available", requestID)
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"success":    true,
			"stats":      stats,
			"request_id": requestID,
			"timestamp":  time.Now(),
		})
	}
}
