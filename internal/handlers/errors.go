package handlers

import (
	"errors"

	"catalog/internal/middleware"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler is the single place where failures become HTTP responses.
// With production set, internal error text is not sent to clients.
func ErrorHandler(logger *zap.Logger, production bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err, production)
		if status >= fiber.StatusInternalServerError {
			logger.Error("Request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.OriginalURL()),
				zap.Error(err))
		} else {
			logger.Debug("Request rejected",
				zap.String("method", c.Method()),
				zap.String("path", c.OriginalURL()),
				zap.Int("status", status),
				zap.Error(err))
		}
		return c.Status(status).JSON(body)
	}
}

func classify(err error, production bool) (int, fiber.Map) {
	var validationErr *validation.Error
	var fiberErr *fiber.Error

	switch {
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest, fiber.Map{
			"error":   "Validation failed",
			"details": validationErr.Details,
		}
	case errors.Is(err, validation.ErrMalformedBody):
		return fiber.StatusBadRequest, fiber.Map{"error": "Request body must be a JSON object"}
	case errors.Is(err, repositories.ErrProductNotFound):
		return fiber.StatusNotFound, fiber.Map{"error": "Product not found"}
	case errors.Is(err, repositories.ErrInvalidID):
		return fiber.StatusBadRequest, fiber.Map{"error": "Invalid product ID format"}
	case errors.Is(err, repositories.ErrDuplicateKey):
		return fiber.StatusBadRequest, fiber.Map{"error": "Duplicate field value entered"}
	case errors.Is(err, services.ErrSearchQueryRequired):
		return fiber.StatusBadRequest, fiber.Map{"error": `Search query parameter "q" is required`}
	case errors.Is(err, middleware.ErrAPIKeyMissing):
		return fiber.StatusUnauthorized, fiber.Map{
			"error": "Authentication required. Please provide API key in x-api-key header.",
		}
	case errors.Is(err, middleware.ErrAPIKeyInvalid):
		return fiber.StatusForbidden, fiber.Map{"error": "Invalid API key. Access denied."}
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiber.Map{"error": fiberErr.Message}
	}

	message := err.Error()
	if production {
		message = "Something went wrong"
	}
	return fiber.StatusInternalServerError, fiber.Map{
		"error":   "Internal server error",
		"message": message,
	}
}
