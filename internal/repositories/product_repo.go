package repositories

import (
	"context"
	"errors"

	"catalog/internal/models"
)

var (
	// ErrProductNotFound is returned when no record has the given ID.
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidID is returned when an ID cannot address any record in the store.
	ErrInvalidID = errors.New("invalid product ID format")
	// ErrDuplicateKey is returned when a write violates a unique index.
	ErrDuplicateKey = errors.New("duplicate key")
)

// SearchLimit caps the number of name-search results.
const SearchLimit = 20

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	// Find returns one page of products matching q.Filter, newest first.
	Find(ctx context.Context, q models.ListQuery) ([]models.Product, error)
	Count(ctx context.Context, filter models.ProductFilter) (int64, error)
	// SearchByName returns up to limit products whose name contains term, case-insensitively.
	SearchByName(ctx context.Context, term string, limit int) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	Create(ctx context.Context, input models.ProductInput) (*models.Product, error)
	// Update applies input to the product and returns the stored result.
	Update(ctx context.Context, id string, input models.ProductInput) (*models.Product, error)
	// Delete removes the product and returns it as it was before deletion.
	Delete(ctx context.Context, id string) (*models.Product, error)
	Stats(ctx context.Context) (*models.ProductStats, error)
	Ping(ctx context.Context) error
}
