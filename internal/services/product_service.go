package services

import (
	"context"
	"errors"

	"catalog/internal/models"
	"catalog/internal/pkg/clock"
	"catalog/internal/repositories"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrSearchQueryRequired is returned by SearchByName when the term is empty.
var ErrSearchQueryRequired = errors.New(`search query parameter "q" is required`)

// EventPublisher delivers product lifecycle events.
type EventPublisher interface {
	PublishProductEvent(ctx context.Context, event models.ProductEvent) error
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	logger    *zap.Logger
	clock     clock.Clock
}

// NewProductService creates a new ProductService. publisher may be nil.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher, logger *zap.Logger, clk clock.Clock) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		clock:     clk,
	}
}

// ListProducts returns one page of products matching the parsed parameters.
// The page and the total are fetched concurrently over the same filter.
func (s *ProductService) ListProducts(ctx context.Context, params ListParams) (*models.ProductPage, error) {
	q := ParseListQuery(params)

	var products []models.Product
	var total int64
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = s.repo.Find(gCtx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.repo.Count(gCtx, q.Filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if products == nil {
		products = []models.Product{}
	}
	return &models.ProductPage{
		Products:   products,
		Pagination: NewPagination(q.Page, q.Limit, total),
	}, nil
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// SearchByName returns up to repositories.SearchLimit products whose name contains q.
func (s *ProductService) SearchByName(ctx context.Context, q string) ([]models.Product, error) {
	if q == "" {
		return nil, ErrSearchQueryRequired
	}
	products, err := s.repo.SearchByName(ctx, q, repositories.SearchLimit)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// Stats aggregates the catalog per category and overall.
func (s *ProductService) Stats(ctx context.Context) (*models.ProductStats, error) {
	return s.repo.Stats(ctx)
}

// CreateProduct stores a validated product.
func (s *ProductService) CreateProduct(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	product, err := s.repo.Create(ctx, input)
	if err != nil {
		s.logger.Error("Failed to save product", zap.String("name", input.Name), zap.Error(err))
		return nil, err
	}
	s.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("category", product.Category))
	s.publish(ctx, models.EventProductCreated, *product)
	return product, nil
}

// UpdateProduct replaces the writable fields of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, input models.ProductInput) (*models.Product, error) {
	product, err := s.repo.Update(ctx, id, input)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product updated", zap.String("product_id", product.ID))
	s.publish(ctx, models.EventProductUpdated, *product)
	return product, nil
}

// DeleteProduct removes a product and returns it.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Product deleted", zap.String("product_id", product.ID))
	s.publish(ctx, models.EventProductDeleted, *product)
	return product, nil
}

// publish is best effort: the write has already succeeded.
func (s *ProductService) publish(ctx context.Context, eventType string, product models.Product) {
	if s.publisher == nil {
		return
	}
	event := models.ProductEvent{
		Type:       eventType,
		ProductID:  product.ID,
		Product:    product,
		OccurredAt: s.clock.Now(),
	}
	if err := s.publisher.PublishProductEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish product event",
			zap.String("event", eventType),
			zap.String("product_id", product.ID),
			zap.Error(err))
	}
}
