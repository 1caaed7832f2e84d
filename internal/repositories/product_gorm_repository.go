package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/models"
	"catalog/internal/pkg/clock"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// productRow is the relational shape of a product.
type productRow struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:varchar(500);not null"`
	Price       float64   `gorm:"not null;check:price >= 0"`
	Category    string    `gorm:"type:varchar(255);not null;index"`
	InStock     bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false"`
}

func (productRow) TableName() string {
	return "products"
}

func (r productRow) toModel() models.Product {
	return models.Product{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Category:    r.Category,
		InStock:     r.InStock,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func rowsToModels(rows []productRow) []models.Product {
	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toModel())
	}
	return products
}

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db    *gorm.DB
	clock clock.Clock
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
// The *gorm.DB should be opened with TranslateError so duplicate keys are recognised.
func NewGORMProductRepository(db *gorm.DB, clk clock.Clock) *GORMProductRepository {
	return &GORMProductRepository{
		db:    db,
		clock: clk,
	}
}

// Migrate creates or updates the products table.
func (r *GORMProductRepository) Migrate() error {
	if err := r.db.AutoMigrate(&productRow{}); err != nil {
		return fmt.Errorf("failed to migrate products table: %w", err)
	}
	return nil
}

// likePattern escapes LIKE wildcards so term is matched literally.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(term))
	return "%" + escaped + "%"
}

// applyFilter adds one WHERE clause per present field of f.
func applyFilter(tx *gorm.DB, f models.ProductFilter) *gorm.DB {
	if f.Category != "" {
		tx = tx.Where(`LOWER(category) LIKE ? ESCAPE '\'`, likePattern(f.Category))
	}
	if f.InStock != nil {
		tx = tx.Where("in_stock = ?", *f.InStock)
	}
	if f.MinPrice != nil {
		tx = tx.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		tx = tx.Where("price <= ?", *f.MaxPrice)
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		tx = tx.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	return tx
}

// Find returns one page of matching products, newest first.
func (r *GORMProductRepository) Find(ctx context.Context, q models.ListQuery) ([]models.Product, error) {
	var rows []productRow
	tx := applyFilter(r.db.WithContext(ctx).Model(&productRow{}), q.Filter)
	if err := tx.Order("created_at DESC").Offset(q.Offset()).Limit(q.Limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to find products: %w", err)
	}
	return rowsToModels(rows), nil
}

// Count returns the number of matching products.
func (r *GORMProductRepository) Count(ctx context.Context, f models.ProductFilter) (int64, error) {
	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&productRow{}), f).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return total, nil
}

// SearchByName returns up to limit products whose name contains term.
func (r *GORMProductRepository) SearchByName(ctx context.Context, term string, limit int) ([]models.Product, error) {
	var rows []productRow
	err := r.db.WithContext(ctx).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(term)).
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products by name: %w", err)
	}
	return rowsToModels(rows), nil
}

func (r *GORMProductRepository) first(ctx context.Context, id string) (*productRow, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrInvalidID
	}
	var row productRow
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
		}
		return nil, fmt.Errorf("failed to get product by ID %s: %w", id, err)
	}
	return &row, nil
}

// GetByID retrieves a single product by its ID.
func (r *GORMProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	row, err := r.first(ctx, id)
	if err != nil {
		return nil, err
	}
	product := row.toModel()
	return &product, nil
}

// Create inserts a new product.
func (r *GORMProductRepository) Create(ctx context.Context, input models.ProductInput) (*models.Product, error) {
	now := r.clock.Now()
	product := models.Product{
		ID:        uuid.New().String(),
		InStock:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.Apply(&product)

	row := productRow(product)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to create product: %w", ErrDuplicateKey)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return &product, nil
}

// Update applies input to an existing product.
func (r *GORMProductRepository) Update(ctx context.Context, id string, input models.ProductInput) (*models.Product, error) {
	row, err := r.first(ctx, id)
	if err != nil {
		return nil, err
	}
	product := row.toModel()
	input.Apply(&product)
	product.UpdatedAt = r.clock.Now()

	updated := productRow(product)
	if err := r.db.WithContext(ctx).Save(&updated).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to update product: %w", ErrDuplicateKey)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return &product, nil
}

// Delete removes a product by its ID and returns it.
func (r *GORMProductRepository) Delete(ctx context.Context, id string) (*models.Product, error) {
	row, err := r.first(ctx, id)
	if err != nil {
		return nil, err
	}
	res := r.db.WithContext(ctx).Delete(&productRow{}, "id = ?", id)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Removed concurrently between the read and the delete.
		return nil, fmt.Errorf("product with ID %s: %w", id, ErrProductNotFound)
	}
	product := row.toModel()
	return &product, nil
}

type categoryStatsRow struct {
	Category     string
	Count        int64
	AvgPrice     float64
	MinPrice     float64
	MaxPrice     float64
	InStockCount int64
}

// Stats groups the products by category with GROUP BY.
func (r *GORMProductRepository) Stats(ctx context.Context) (*models.ProductStats, error) {
	var groups []categoryStatsRow
	err := r.db.WithContext(ctx).Model(&productRow{}).
		Select("category, COUNT(*) AS count, AVG(price) AS avg_price, MIN(price) AS min_price, " +
			"MAX(price) AS max_price, SUM(CASE WHEN in_stock THEN 1 ELSE 0 END) AS in_stock_count").
		Group("category").
		Order("count DESC, category ASC").
		Scan(&groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate category stats: %w", err)
	}

	var summary models.StatsSummary
	err = r.db.WithContext(ctx).Model(&productRow{}).
		Select("COUNT(*) AS total_products, " +
			"COALESCE(SUM(CASE WHEN in_stock THEN 1 ELSE 0 END), 0) AS total_in_stock, " +
			"COALESCE(AVG(price), 0) AS avg_price_all").
		Scan(&summary).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate summary stats: %w", err)
	}

	byCategory := make([]models.CategoryStats, 0, len(groups))
	for _, g := range groups {
		byCategory = append(byCategory, models.CategoryStats{
			Category:     g.Category,
			Count:        g.Count,
			AvgPrice:     g.AvgPrice,
			MinPrice:     g.MinPrice,
			MaxPrice:     g.MaxPrice,
			InStockCount: g.InStockCount,
		})
	}
	return newProductStats(summary, byCategory), nil
}

// Ping checks the database connection.
func (r *GORMProductRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}
