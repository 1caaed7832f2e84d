package handlers

import (
	"errors"

	"catalog/internal/middleware"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes. Write routes go through
// auth and then validate where a body is expected.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth, validate fiber.Handler) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/search/name", h.HandleSearchByName)
	productRoutes.Get("/stats/summary", h.HandleStats)
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Post("/", auth, validate, h.HandleCreateProduct)
	productRoutes.Put("/:id", auth, validate, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", auth, h.HandleDeleteProduct)
}

// HandleListProducts returns a filtered, paginated page of products.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	params := services.ListParams{
		Category:   c.Query("category"),
		InStock:    c.Query("inStock"),
		InStockSet: c.Context().QueryArgs().Has("inStock"),
		Search:     c.Query("search"),
		Page:       c.Query("page"),
		Limit:      c.Query("limit"),
		MinPrice:   c.Query("minPrice"),
		MaxPrice:   c.Query("maxPrice"),
	}
	page, err := h.service.ListProducts(c.UserContext(), params)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	product, err := h.service.GetProductByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product from the validated body.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	input, ok := middleware.ProductInput(c)
	if !ok {
		return errors.New("product input missing from request context")
	}
	product, err := h.service.CreateProduct(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct replaces the fields of an existing product.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	input, ok := middleware.ProductInput(c)
	if !ok {
		return errors.New("product input missing from request context")
	}
	product, err := h.service.UpdateProduct(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product and echoes it back.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	product, err := h.service.DeleteProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":        "Product deleted successfully",
		"deletedProduct": product,
	})
}

// HandleSearchByName returns up to 20 products whose name contains q.
func (h *ProductHandler) HandleSearchByName(c *fiber.Ctx) error {
	products, err := h.service.SearchByName(c.UserContext(), c.Query("q"))
	if err != nil {
		return err
	}
	return c.JSON(products)
}

// HandleStats returns the catalog statistics.
func (h *ProductHandler) HandleStats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(stats)
}
