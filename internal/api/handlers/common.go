package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"ngandee-matcher/internal/api/validation"
	"ngandee-matcher/internal/storage"
	"ngandee-matcher/pkg/models"
	"ngandee-matcher/pkg/utils"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	validation.RegisterMatchValidators(v)
	return v
}

func errorResponse(c echo.Context, status int, code, message, requestID string) error {
	return c.JSON(status, models.ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}

// serviceError maps service and storage failures onto HTTP responses.
// CustomError carries its own status code; bare storage sentinels map to 404.
func serviceError(c echo.Context, requestID string, err error) error {
	var ce *utils.CustomError
	if errors.As(err, &ce) {
		code := "request_failed"
		switch ce.Code {
		case http.StatusNotFound:
			code = "not_found"
		case http.StatusBadRequest:
			code = "invalid_request"
		case http.StatusConflict:
			code = "invalid_transition"
		case http.StatusBadGateway:
			code = "embedding_unavailable"
		}
		return errorResponse(c, ce.Code, code, ce.Error(), requestID)
	}

	switch {
	case errors.Is(err, storage.ErrJobNotFound),
		errors.Is(err, storage.ErrWorkerNotFound),
		errors.Is(err, storage.ErrMatchNotFound):
		return errorResponse(c, http.StatusNotFound, "not_found", err.Error(), requestID)
	}

	return errorResponse(c, http.StatusInternalServerError, "internal_error", err.Error(), requestID)
}

func requestIDFrom(c echo.Context) string {
	if id, ok := c.Get("request_id").(string); ok && id != "" {
		return id
	}
	return utils.GenerateRequestID()
}
