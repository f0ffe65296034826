package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gridcast/gridcast/internal/logging"
	"github.com/gridcast/gridcast/internal/models"
	"github.com/gridcast/gridcast/internal/services"
)

// ErrorHandler returns a custom error handler middleware
func ErrorHandler(logger *logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		detail := models.ErrorDetail{
			Code:    "ERROR",
			Message: "Internal Server Error",
		}

		var fiberErr *fiber.Error
		var svcErr *services.ServiceError
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			detail.Message = fiberErr.Message
		case errors.As(err, &svcErr):
			code = ServiceStatus(svcErr)
			detail.Code = svcErr.Code
			detail.Message = svcErr.Message
			detail.Details = map[string]interface{}{"stage": svcErr.Stage}
			for k, v := range svcErr.Details {
				detail.Details[k] = v
			}
		}

		fields := []interface{}{
			"path", c.Path(),
			"method", c.Method(),
			"status", code,
			"error", err,
		}
		if code >= fiber.StatusInternalServerError {
			logger.Error("Request error", fields...)
		} else {
			logger.Warn("Request error", fields...)
		}

		return c.Status(code).JSON(models.ErrorResponse{Error: detail})
	}
}

// ServiceStatus maps a pipeline failure to an HTTP status
func ServiceStatus(err *services.ServiceError) int {
	switch err.Code {
	case services.CodeInvalidRequest:
		return fiber.StatusBadRequest
	case services.CodeDataError:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}
