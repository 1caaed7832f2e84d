package repositories

import (
	"math"

	"catalog/internal/models"
)

// roundPrice rounds to two decimal places, half away from zero.
func roundPrice(v float64) float64 {
	return math.Round(v*100) / 100
}

// newProductStats fills in the derived fields and guarantees a non-nil category list.
func newProductStats(summary models.StatsSummary, byCategory []models.CategoryStats) *models.ProductStats {
	if byCategory == nil {
		byCategory = []models.CategoryStats{}
	}
	for i := range byCategory {
		byCategory[i].AvgPrice = roundPrice(byCategory[i].AvgPrice)
		byCategory[i].OutOfStockCount = byCategory[i].Count - byCategory[i].InStockCount
	}
	if summary.TotalProducts == 0 {
		summary = models.StatsSummary{}
	}
	return &models.ProductStats{Summary: summary, ByCategory: byCategory}
}
