package repositories

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"catalog/internal/models"
	"catalog/internal/pkg/clock"

	"github.com/google/uuid"
)

// MemoryProductRepository is an in-memory implementation of ProductRepository.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
	clock    clock.Clock
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository(clk clock.Clock) *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
		clock:    clk,
	}
}

// matches reports whether p satisfies every clause of f.
func matches(p models.Product, f models.ProductFilter) bool {
	if f.Category != "" && !containsFold(p.Category, f.Category) {
		return false
	}
	if f.InStock != nil && p.InStock != *f.InStock {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.Search != "" && !containsFold(p.Name, f.Search) && !containsFold(p.Description, f.Search) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// newestFirst returns the matching products sorted by creation time, newest first.
func (r *MemoryProductRepository) newestFirst(f models.ProductFilter) []models.Product {
	list := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matches(p, f) {
			list = append(list, p)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list
}

// Find returns one page of matching products.
func (r *MemoryProductRepository) Find(_ context.Context, q models.ListQuery) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.newestFirst(q.Filter)
	start := q.Offset()
	if start < 0 || start >= len(list) {
		return []models.Product{}, nil
	}
	end := start + q.Limit
	if end > len(list) {
		end = len(list)
	}
	return list[start:end], nil
}

// Count returns the number of matching products.
func (r *MemoryProductRepository) Count(_ context.Context, f models.ProductFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.products {
		if matches(p, f) {
			n++
		}
	}
	return n, nil
}

// SearchByName returns up to limit products whose name contains term.
func (r *MemoryProductRepository) SearchByName(_ context.Context, term string, limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]models.Product, 0)
	for _, p := range r.newestFirst(models.ProductFilter{}) {
		if len(list) == limit {
			break
		}
		if containsFold(p.Name, term) {
			list = append(list, p)
		}
	}
	return list, nil
}

// GetByID returns a product by its ID.
func (r *MemoryProductRepository) GetByID(_ context.Context, id string) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	return &product, nil
}

// Create adds a new product.
func (r *MemoryProductRepository) Create(_ context.Context, input models.ProductInput) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	product := models.Product{
		ID:        uuid.New().String(),
		InStock:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.Apply(&product)
	if _, exists := r.products[product.ID]; exists {
		return nil, fmt.Errorf("product with ID %s: %w", product.ID, ErrDuplicateKey)
	}
	r.products[product.ID] = product
	return &product, nil
}

// Update modifies an existing product.
func (r *MemoryProductRepository) Update(_ context.Context, id string, input models.ProductInput) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	input.Apply(&product)
	product.UpdatedAt = r.clock.Now()
	r.products[id] = product
	return &product, nil
}

// Delete removes a product by its ID.
func (r *MemoryProductRepository) Delete(_ context.Context, id string) (*models.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	delete(r.products, id)
	return &product, nil
}

// Stats groups the products by category.
func (r *MemoryProductRepository) Stats(_ context.Context) (*models.ProductStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var summary models.StatsSummary
	var priceSum float64
	groups := make(map[string]*models.CategoryStats)
	sums := make(map[string]float64)
	for _, p := range r.products {
		summary.TotalProducts++
		priceSum += p.Price
		g, ok := groups[p.Category]
		if !ok {
			g = &models.CategoryStats{Category: p.Category, MinPrice: p.Price, MaxPrice: p.Price}
			groups[p.Category] = g
		}
		g.Count++
		sums[p.Category] += p.Price
		if p.Price < g.MinPrice {
			g.MinPrice = p.Price
		}
		if p.Price > g.MaxPrice {
			g.MaxPrice = p.Price
		}
		if p.InStock {
			summary.TotalInStock++
			g.InStockCount++
		}
	}
	if summary.TotalProducts > 0 {
		summary.AvgPriceAll = priceSum / float64(summary.TotalProducts)
	}

	byCategory := make([]models.CategoryStats, 0, len(groups))
	for category, g := range groups {
		g.AvgPrice = sums[category] / float64(g.Count)
		byCategory = append(byCategory, *g)
	}
	sort.Slice(byCategory, func(i, j int) bool {
		if byCategory[i].Count == byCategory[j].Count {
			return byCategory[i].Category < byCategory[j].Category
		}
		return byCategory[i].Count > byCategory[j].Count
	})
	return newProductStats(summary, byCategory), nil
}

// Ping always succeeds.
func (r *MemoryProductRepository) Ping(context.Context) error {
	return nil
}
