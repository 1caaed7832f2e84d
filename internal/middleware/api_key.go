package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// APIKeyHeader carries the shared secret.
const APIKeyHeader = "x-api-key"

var (
	// ErrAPIKeyMissing is returned when a key is configured but the request has none.
	ErrAPIKeyMissing = errors.New("api key required")
	// ErrAPIKeyInvalid is returned when the request key does not match.
	ErrAPIKeyInvalid = errors.New("invalid api key")
)

// APIKeyRequired is a Fiber middleware that compares the x-api-key header
// with apiKey. An empty apiKey disables the check.
func APIKeyRequired(apiKey string, logger *zap.Logger) fiber.Handler {
	if apiKey == "" {
		logger.Warn("API_KEY is not set, write endpoints are unauthenticated")
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}

	return func(c *fiber.Ctx) error {
		provided := c.Get(APIKeyHeader)
		if provided == "" {
			return ErrAPIKeyMissing
		}
		if provided != apiKey {
			logger.Warn("Rejected request with invalid API key",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()))
			return ErrAPIKeyInvalid
		}
		return c.Next()
	}
}
