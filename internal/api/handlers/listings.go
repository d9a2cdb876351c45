package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ngandee-matcher/internal/api/validation"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/storage"
	"ngandee-matcher/pkg/models"
	"ngandee-matcher/pkg/utils"
)

// CreateWorkerHandler handles worker listing intake
func CreateWorkerHandler(workers storage.WorkerStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)
		logger := logging.GetGlobalLogger().WithField("request_id", requestID)

		var worker models.WorkerListing
		if err := c.Bind(&worker); err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid_request", "Invalid request format", requestID)
		}
		if err := validate.Struct(&worker); err != nil {
			return errorResponse(c, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		}
		if err := validation.ValidateSchedule(worker.StartTime, worker.EndTime); err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid_schedule", err.Error(), requestID)
		}

		worker.ID = utils.GenerateID()
		worker.HasActiveMatch = false
		worker.CreatedAt = time.Now()

		if err := workers.CreateWorker(c.Request().Context(), &worker); err != nil {
			return serviceError(c, requestID, err)
		}

		logger.Info("Worker listing created", map[string]interface{}{
			"worker_id": worker.ID,
			"category":  worker.Category,
			"province":  worker.Province,
		})
		return c.JSON(http.StatusCreated, worker)
	}
}

// GetWorkerHandler returns a single worker listing
func GetWorkerHandler(workers storage.WorkerStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		worker, err := workers.GetWorker(c.Request().Context(), c.Param("id"))
		if err != nil {
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, worker)
	}
}

// ListWorkersHandler returns all worker listings. With ?available=true only
// listings free for a new ranking pass are returned.
func ListWorkersHandler(workers storage.WorkerStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		all, err := workers.ListWorkers(c.Request().Context())
		if err != nil {
			return serviceError(c, requestID, err)
		}

		if c.QueryParam("available") == "true" {
			free := make([]*models.WorkerListing, 0, len(all))
			for _, w := range all {
				if !w.HasActiveMatch {
					free = append(free, w)
				}
			}
			all = free
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"workers": all,
			"count":   len(all),
		})
	}
}
