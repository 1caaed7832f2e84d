package handlers

import (
	"context"
	"time"

	"catalog/internal/pkg/clock"

	"github.com/gofiber/fiber/v2"
)

// availableRoutes is listed in the response for unmatched routes.
var availableRoutes = []string{
	"GET /",
	"GET /api/products",
	"GET /api/products/:id",
	"POST /api/products",
	"PUT /api/products/:id",
	"DELETE /api/products/:id",
	"GET /api/products/search/name?q=query",
	"GET /api/products/stats/summary",
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler serves the endpoints that are not about products.
type SystemHandler struct {
	store     Pinger
	storeName string
	clock     clock.Clock
}

// NewSystemHandler creates a new SystemHandler.
func NewSystemHandler(store Pinger, storeName string, clk clock.Clock) *SystemHandler {
	return &SystemHandler{
		store:     store,
		storeName: storeName,
		clock:     clk,
	}
}

// RegisterRoutes registers the welcome and health routes.
func (h *SystemHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleWelcome)
	router.Get("/health", h.HandleHealth)
}

// HandleWelcome describes the API.
func (h *SystemHandler) HandleWelcome(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "Welcome to the Product API!",
		"endpoints": fiber.Map{
			"getAllProducts": "GET /api/products",
			"getProduct":     "GET /api/products/:id",
			"createProduct":  "POST /api/products",
			"updateProduct":  "PUT /api/products/:id",
			"deleteProduct":  "DELETE /api/products/:id",
			"searchProducts": "GET /api/products/search/name?q=query",
			"getStats":       "GET /api/products/stats/summary",
		},
		"note": "API key required for POST, PUT, DELETE operations in x-api-key header",
	})
}

// HandleHealth pings the store.
func (h *SystemHandler) HandleHealth(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status, code := "healthy", fiber.StatusOK
	store := "connected"
	if err := h.store.Ping(ctx); err != nil {
		status, code = "unhealthy", fiber.StatusServiceUnavailable
		store = "unreachable"
	}
	return c.Status(code).JSON(fiber.Map{
		"status": status,
		"time":   h.clock.Now().Format(time.RFC3339),
		"store":  fiber.Map{"driver": h.storeName, "state": store},
	})
}

// HandleNotFound answers every request no route matched.
func HandleNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":           "Route not found",
		"message":         "The route " + c.Method() + " " + c.OriginalURL() + " does not exist on this server",
		"availableRoutes": availableRoutes,
	})
}
