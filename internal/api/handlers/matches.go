package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"ngandee-matcher/internal/lifecycle"
	"ngandee-matcher/internal/logging"
	"ngandee-matcher/internal/storage"
	"ngandee-matcher/pkg/models"
)

// GetMatchHandler returns a single match record
func GetMatchHandler(matches storage.MatchStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		match, err := matches.GetMatch(c.Request().Context(), c.Param("id"))
		if err != nil {
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, match)
	}
}

// ListJobMatchesHandler returns the match batch for a job, ordered by priority
func ListJobMatchesHandler(matches storage.MatchStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		batch, err := matches.ListMatchesForJob(c.Request().Context(), c.Param("id"))
		if err != nil {
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"matches": batch,
			"count":   len(batch),
		})
	}
}

// ListWorkerMatchesHandler returns every match held by a worker listing
func ListWorkerMatchesHandler(matches storage.MatchStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		held, err := matches.ListMatchesForWorker(c.Request().Context(), c.Param("id"))
		if err != nil {
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"matches": held,
			"count":   len(held),
		})
	}
}

func transitionHandler(name string, apply func(echo.Context, string) (*models.Match, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)
		logger := logging.GetGlobalLogger().WithField("request_id", requestID)

		var req models.StatusUpdateRequest
		if err := c.Bind(&req); err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid_request", "Invalid request format", requestID)
		}
		if err := validate.Struct(&req); err != nil {
			return errorResponse(c, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		}

		match, err := apply(c, c.Param("id"))
		if err != nil {
			return serviceError(c, requestID, err)
		}

		logger.Info("Match action applied", map[string]interface{}{
			"action":   name,
			"match_id": match.ID,
			"status":   string(match.Status),
			"actor_id": req.ActorID,
		})
		return c.JSON(http.StatusOK, match)
	}
}

// AcceptMatchHandler applies the worker's accept action
func AcceptMatchHandler(svc *lifecycle.Service) echo.HandlerFunc {
	return transitionHandler("accept", func(c echo.Context, id string) (*models.Match, error) {
		return svc.Accept(c.Request().Context(), id)
	})
}

// DeclineMatchHandler applies the worker's decline action
func DeclineMatchHandler(svc *lifecycle.Service) echo.HandlerFunc {
	return transitionHandler("decline", func(c echo.Context, id string) (*models.Match, error) {
		return svc.Decline(c.Request().Context(), id)
	})
}

// CompleteMatchHandler marks an accepted match as done
func CompleteMatchHandler(svc *lifecycle.Service) echo.HandlerFunc {
	return transitionHandler("complete", func(c echo.Context, id string) (*models.Match, error) {
		return svc.Complete(c.Request().Context(), id)
	})
}

// UpdatePriorityHandler moves a queued match to a new priority slot and
// returns the renumbered batch
func UpdatePriorityHandler(svc *lifecycle.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		var req models.PriorityUpdateRequest
		if err := c.Bind(&req); err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid_request", "Invalid request format", requestID)
		}
		if err := validate.Struct(&req); err != nil {
			return errorResponse(c, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		}

		batch, err := svc.Reorder(c.Request().Context(), c.Param("id"), req.Priority)
		if err != nil {
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"matches": batch,
			"count":   len(batch),
		})
	}
}

// SubmitReviewHandler attaches a review to a completed match
func SubmitReviewHandler(svc *lifecycle.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		var req models.ReviewRequest
		if err := c.Bind(&req); err != nil {
			return errorResponse(c, http.StatusBadRequest, "invalid_request", "Invalid request format", requestID)
		}
		if err := validate.Struct(&req); err != nil {
			return errorResponse(c, http.StatusBadRequest, "validation_failed", err.Error(), requestID)
		}

		review, err := svc.SubmitReview(c.Request().Context(), c.Param("id"), &req)
		if err != nil {
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusCreated, review)
	}
}

// ListReviewsHandler returns the reviews attached to a match
func ListReviewsHandler(svc *lifecycle.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := requestIDFrom(c)

		reviews, err := svc.ListReviews(c.Request().Context(), c.Param("id"))
		if err != nil {
			return serviceError(c, requestID, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{
			"reviews": reviews,
			"count":   len(reviews),
		})
	}
}
