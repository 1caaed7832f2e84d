package models

// StatsSummary aggregates over the whole catalog.
type StatsSummary struct {
	TotalProducts int64   `json:"totalProducts"`
	TotalInStock  int64   `json:"totalInStock"`
	AvgPriceAll   float64 `json:"avgPriceAll"`
}

// CategoryStats aggregates over the products of one category.
type CategoryStats struct {
	Category        string  `json:"category"`
	Count           int64   `json:"count"`
	AvgPrice        float64 `json:"avgPrice"`
	MinPrice        float64 `json:"minPrice"`
	MaxPrice        float64 `json:"maxPrice"`
	InStockCount    int64   `json:"inStockCount"`
	OutOfStockCount int64   `json:"outOfStockCount"`
}

// ProductStats is the response of the statistics endpoint.
type ProductStats struct {
	Summary    StatsSummary    `json:"summary"`
	ByCategory []CategoryStats `json:"byCategory"`
}
