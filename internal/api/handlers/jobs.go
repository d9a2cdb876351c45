package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ngandee-matcher/internal/api/validation"
	"ngandee-matcher/internal/background"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/matching/workers"
	"ngandee-matcher/internal/storage"
	"ngandee-matcher/pkg/models"
	"ngandee-matcher/pkg/utils"
)

// CreateJobHandler handles job posting intake
func CreateJobHandler(jobs storage.JobStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)
		logger := logging.GetGlobalLogger().WithField("request_id", requestID)

		var job models.JobPosting
		if err := c.Bind(&job); err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid_request", "Invalid request format", requestID)
		}
		if err := validate.Struct(&job); err != nil {
			return errorResponse(c, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		}
		if err := validation.ValidateSchedule(job.StartTime, job.EndTime); err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid_schedule", err.Error(), requestID)
		}

		job.ID = utils.GenerateID()
		job.MatchesGenerated = false
		job.CreatedAt = time.Now()

		if err := jobs.CreateJob(c.Request().Context(), &job); err != nil {
			return serviceError(c, requestID, err)
		}

		logger.Info("Job posting created", map[string]interface{}{
			"job_id":   job.ID,
			"category": job.Category,
			"province": job.Province,
		})
		return c.JSON(http.StatusCreated, job)
	}
}

// GetJobHandler returns a single job posting
func GetJobHandler(jobs storage.JobStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		job, err := jobs.GetJob(c.Request().Context(), c.Param("id"))
		if err != nil {
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, job)
	}
}

// ListJobsHandler returns all job postings
func ListJobsHandler(jobs storage.JobStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		all, err := jobs.ListJobs(c.Request().Context())
		if err != nil {
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"jobs":  all,
			"count": len(all),
		})
	}
}

// RankJobHandler runs a ranking batch synchronously on the worker pool
func RankJobHandler(jobs storage.JobStore, poolManager *workers.PoolManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)
		logger := logging.GetGlobalLogger().WithField("request_id", requestID)

		jobID := c.Param("id")

		var req models.RankRequest
		if err := c.Bind(&req); err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid_request", "Invalid request format", requestID)
		}
		if err := validate.Struct(&req); err != nil {
			return errorResponse(c, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		}

		job, err := jobs.GetJob(c.Request().Context(), jobID)
		if err != nil {
			return serviceError(c, requestID, err)
		}

		result, err := poolManager.SubmitRank(c.Request().Context(), jobID, &req, job.PosterID)
		if err != nil {
			logger.Error("Failed to submit ranking batch", map[string]interface{}{
				"job_id": jobID,
				"error":  err.Error(),
			})
			return errorResponse(c, http.StatusServiceUnavailable, "rank_submission_failed", err.Error(), requestID)
		}
		if result.Error != nil {
			return serviceError(c, requestID, result.Error)
		}

		response := result.Response
		response.RequestID = requestID

		logger.Info("Ranking batch completed", map[string]interface{}{
			"job_id":        jobID,
			"matches":       len(response.Matches),
			"no_candidates": response.NoCandidates,
			"strategy":      response.Strategy,
			"downgraded":    response.Downgraded,
		})
		return c.JSON(http.StatusOK, response)
	}
}

// RankJobAsyncHandler accepts a ranking batch for background processing and
// returns a process ID for polling
func RankJobAsyncHandler(jobs storage.JobStore, poolManager *workers.PoolManager, taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)
		logger := logging.GetGlobalLogger().WithField("request_id", requestID)

		jobID := c.Param("id")

		var req models.RankRequest
		if err := c.Bind(&req); err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid_request", "Invalid request format", requestID)
		}
		if err := validate.Struct(&req); err != nil {
			return errorResponse(c, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		}

		job, err := jobs.GetJob(c.Request().Context(), jobID)
		if err != nil {
			return serviceError(c, requestID, err)
		}

		processID := utils.GenerateRequestID()
		if err := taskManager.SubmitRankTask(c.Request().Context(), processID, jobID, job.PosterID, &req, poolManager); err != nil {
			logger.Error("Failed to submit background ranking task", map[string]interface{}{
				"job_id": jobID,
				"error":  err.Error(),
			})
			return errorResponse(c, http.StatusServiceUnavailable, "task_submission_failed", err.Error(), requestID)
		}

		return c.JSON(http.StatusAccepted, models.AsyncResponse{
			ProcessID: processID,
			Status:    string(background.TaskStatusAccepted),
			Timestamp: time.Now(),
		})
	}
}
