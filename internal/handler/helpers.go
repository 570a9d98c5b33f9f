package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/appforge/appforge/internal/domain"
	"github.com/appforge/appforge/internal/middleware"
	apperrors "github.com/appforge/appforge/internal/pkg/errors"
	"github.com/appforge/appforge/internal/validator"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// RequireTenantID extracts the tenant ID from the request context.
// If the tenant ID is not found, it sends an unauthorized response and
// returns an error.
func RequireTenantID(c *fiber.Ctx) (domain.TenantID, error) {
	tenantID, ok := middleware.GetTenantID(c)
	if !ok {
		return "", c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
			Error:   "Unauthorized",
			Message: "Tenant ID not found",
		})
	}
	return tenantID, nil
}

// parseBody parses and validates a JSON request body
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.BadRequest("invalid request body: " + err.Error())
	}
	if err := validator.Validate(dst); err != nil {
		return err
	}
	return nil
}

// parseQueryInt parses an integer query parameter with a default value
func parseQueryInt(c *fiber.Ctx, key string, defaultValue int) int {
	val := c.Query(key)
	if val == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// respondError maps service errors to HTTP responses. Unexpected errors are
// logged and collapsed into a generic 500 so internals never leak.
func respondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	if validator.IsValidationError(err) {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "Bad Request",
			Code:    apperrors.CodeValidation,
			Message: "Validation failed",
			Details: err,
		})
	}

	if appErr := apperrors.GetAppError(err); appErr != nil {
		status := appErr.StatusCode
		resp := ErrorResponse{
			Error:   statusText(status),
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.Error(err),
			)
			resp.Message = "An unexpected error occurred"
			resp.Details = nil
		}
		return c.Status(status).JSON(resp)
	}

	logger.Error("request failed",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "Internal Server Error",
		Code:    apperrors.CodeInternal,
		Message: "An unexpected error occurred",
	})
}

func statusText(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "Bad Request"
	case fiber.StatusUnauthorized:
		return "Unauthorized"
	case fiber.StatusForbidden:
		return "Forbidden"
	case fiber.StatusNotFound:
		return "Not Found"
	case fiber.StatusConflict:
		return "Conflict"
	case fiber.StatusUnprocessableEntity:
		return "Unprocessable Entity"
	case fiber.StatusTooManyRequests:
		return "Too Many Requests"
	case fiber.StatusInternalServerError:
		return "Internal Server Error"
	default:
		return "Error"
	}
}
