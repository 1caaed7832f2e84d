package services

import (
	"math"
	"strconv"
	"strings"

	"catalog/internal/models"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
	// MaxPage keeps (page-1)*limit within int for every allowed limit.
	MaxPage      = math.MaxInt / MaxLimit
)

// ListParams are the raw query-string values of a listing request.
// InStockSet distinguishes an empty inStock from an absent one.
type ListParams struct {
	Category   string
	InStock    string
	InStockSet bool
	Search     string
	Page       string
	Limit      string
	MinPrice   string
	MaxPrice   string
}

// ParseListQuery translates raw listing parameters into a filter and
// clamped pagination bounds. It never fails: unusable values fall back to
// their defaults or are dropped.
func ParseListQuery(p ListParams) models.ListQuery {
	filter := models.ProductFilter{
		Category: p.Category,
		Search:   p.Search,
		MinPrice: parsePrice(p.MinPrice),
		MaxPrice: parsePrice(p.MaxPrice),
	}
	if p.InStockSet {
		inStock := p.InStock == "true"
		filter.InStock = &inStock
	}

	page := min(max(parseInt(p.Page, DefaultPage), 1), MaxPage)
	limit := min(max(parseInt(p.Limit, DefaultLimit), 1), MaxLimit)

	return models.ListQuery{Filter: filter, Page: page, Limit: limit}
}

// parseInt returns def when s is not an integer.
func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// parsePrice returns nil for empty or non-finite values.
func parsePrice(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewPagination derives the page metadata from the total match count.
func NewPagination(page, limit int, total int64) models.Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return models.Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalProducts: total,
		HasNext:       page < totalPages,
		HasPrev:       page > 1,
	}
}
