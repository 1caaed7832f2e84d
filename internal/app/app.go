package app

import (
	"catalog/internal/handlers"
	"catalog/internal/middleware"
	"catalog/internal/pkg/clock"
	"catalog/internal/repositories"
	"catalog/internal/services"
	"catalog/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
)

// Options configures the HTTP application.
type Options struct {
	Repository repositories.ProductRepository
	// StoreName is reported by the health endpoint.
	StoreName  string
	Publisher  services.EventPublisher
	APIKey     string
	Production bool
	Logger     *zap.Logger
	Clock      clock.Clock
}

// New wires the services, handlers and middleware into a Fiber app.
func New(opts Options) *fiber.App {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	productService := services.NewProductService(opts.Repository, opts.Publisher, opts.Logger, opts.Clock)
	productHandler := handlers.NewProductHandler(productService)
	systemHandler := handlers.NewSystemHandler(opts.Repository, opts.StoreName, opts.Clock)

	app := fiber.New(fiber.Config{
		AppName:      "Product Catalog API",
		ErrorHandler: handlers.ErrorHandler(opts.Logger, opts.Production),
	})

	app.Use(requestid.New())
	// recover sits inside the logger so panics still get an access-log line.
	app.Use(middleware.RequestLogger(opts.Logger))
	app.Use(recover.New())

	systemHandler.RegisterRoutes(app)

	api := app.Group("/api")
	productHandler.RegisterRoutes(api,
		middleware.APIKeyRequired(opts.APIKey, opts.Logger),
		middleware.ValidateProduct(validation.NewProductValidator()),
	)

	app.Use(handlers.HandleNotFound)
	return app
}
