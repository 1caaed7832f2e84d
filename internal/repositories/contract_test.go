package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"catalog/internal/models"
	"catalog/internal/pkg/clock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contractStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// repoFactory returns an empty repository driven by clk.
type repoFactory func(t *testing.T, clk clock.Clock) ProductRepository

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

func input(name, description string, price float64, category string) models.ProductInput {
	return models.ProductInput{Name: name, Description: description, Price: price, Category: category}
}

// runContract checks the behaviour every ProductRepository must share.
// missingID is well formed for the store but never assigned.
func runContract(t *testing.T, newRepo repoFactory, missingID string) {
	t.Run("create defaults and round trip", func(t *testing.T) {
		ctx := context.Background()
		clk := clock.NewMockClock(contractStart)
		repo := newRepo(t, clk)

		created, err := repo.Create(ctx, input("Widget", "A small widget", 9.99, "tools"))
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.True(t, created.InStock)
		assert.True(t, created.CreatedAt.Equal(contractStart))
		assert.True(t, created.UpdatedAt.Equal(contractStart))

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.Equal(t, "Widget", got.Name)
		assert.Equal(t, "A small widget", got.Description)
		assert.Equal(t, 9.99, got.Price)
		assert.Equal(t, "tools", got.Category)
		assert.True(t, got.InStock)
		assert.True(t, got.CreatedAt.Equal(contractStart))
	})

	t.Run("ids are unique", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t, clock.NewMockClock(contractStart))

		seen := make(map[string]bool)
		for i := 0; i < 5; i++ {
			p, err := repo.Create(ctx, input("Same", "Same", 1, "same"))
			require.NoError(t, err)
			assert.False(t, seen[p.ID], "duplicate id %s", p.ID)
			seen[p.ID] = true
		}
	})

	t.Run("explicit out of stock is kept", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t, clock.NewMockClock(contractStart))

		in := input("Widget", "d", 1, "tools")
		in.InStock = boolPtr(false)
		created, err := repo.Create(ctx, in)
		require.NoError(t, err)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.False(t, got.InStock)
	})

	t.Run("update keeps created and advances updated", func(t *testing.T) {
		ctx := context.Background()
		clk := clock.NewMockClock(contractStart)
		repo := newRepo(t, clk)

		created, err := repo.Create(ctx, input("Widget", "d", 1, "tools"))
		require.NoError(t, err)

		clk.Advance(time.Minute)
		updated, err := repo.Update(ctx, created.ID, input("Widget v2", "better", 2, "gadgets"))
		require.NoError(t, err)
		assert.Equal(t, created.ID, updated.ID)
		assert.Equal(t, "Widget v2", updated.Name)
		assert.Equal(t, 2.0, updated.Price)
		assert.Equal(t, "gadgets", updated.Category)
		assert.True(t, updated.InStock, "inStock is kept when not supplied")
		assert.True(t, updated.CreatedAt.Equal(contractStart))
		assert.True(t, updated.UpdatedAt.Equal(contractStart.Add(time.Minute)))

		again := input("Widget v2", "better", 2, "gadgets")
		again.InStock = boolPtr(false)
		updated, err = repo.Update(ctx, created.ID, again)
		require.NoError(t, err)
		assert.False(t, updated.InStock)

		got, err := repo.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Widget v2", got.Name)
		assert.False(t, got.InStock)
	})

	t.Run("delete returns the record and removes it", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t, clock.NewMockClock(contractStart))

		created, err := repo.Create(ctx, input("Widget", "d", 1, "tools"))
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, deleted.ID)
		assert.Equal(t, "Widget", deleted.Name)

		_, err = repo.GetByID(ctx, created.ID)
		assert.ErrorIs(t, err, ErrProductNotFound)
		_, err = repo.Delete(ctx, created.ID)
		assert.ErrorIs(t, err, ErrProductNotFound)
	})

	t.Run("missing and malformed ids", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t, clock.NewMockClock(contractStart))

		_, err := repo.GetByID(ctx, missingID)
		assert.ErrorIs(t, err, ErrProductNotFound)
		_, err = repo.Update(ctx, missingID, input("a", "b", 1, "c"))
		assert.ErrorIs(t, err, ErrProductNotFound)
		_, err = repo.Delete(ctx, missingID)
		assert.ErrorIs(t, err, ErrProductNotFound)

		_, err = repo.GetByID(ctx, "not-an-id")
		assert.ErrorIs(t, err, ErrInvalidID)
		_, err = repo.Update(ctx, "not-an-id", input("a", "b", 1, "c"))
		assert.ErrorIs(t, err, ErrInvalidID)
		_, err = repo.Delete(ctx, "not-an-id")
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("find filters and orders newest first", func(t *testing.T) {
		ctx := context.Background()
		clk := clock.NewMockClock(contractStart)
		repo := newRepo(t, clk)

		create := func(in models.ProductInput) *models.Product {
			clk.Advance(time.Second)
			p, err := repo.Create(ctx, in)
			require.NoError(t, err)
			return p
		}
		a := create(input("Alpha", "first item", 10, "Electronics"))
		b := create(input("Beta", "second item", 20, "electronics"))
		outOfStock := input("Gamma", "has a widget inside", 30, "Books")
		outOfStock.InStock = boolPtr(false)
		c := create(outOfStock)

		find := func(f models.ProductFilter) []string {
			products, err := repo.Find(ctx, models.ListQuery{Filter: f, Page: 1, Limit: 10})
			require.NoError(t, err)
			total, err := repo.Count(ctx, f)
			require.NoError(t, err)
			assert.Equal(t, int64(len(products)), total)
			ids := make([]string, 0, len(products))
			for _, p := range products {
				ids = append(ids, p.ID)
			}
			return ids
		}

		assert.Equal(t, []string{c.ID, b.ID, a.ID}, find(models.ProductFilter{}))
		assert.Equal(t, []string{b.ID, a.ID}, find(models.ProductFilter{Category: "ELECTRO"}))
		assert.Equal(t, []string{c.ID}, find(models.ProductFilter{InStock: boolPtr(false)}))
		assert.Equal(t, []string{b.ID, a.ID}, find(models.ProductFilter{InStock: boolPtr(true)}))
		assert.Equal(t, []string{c.ID, b.ID}, find(models.ProductFilter{MinPrice: floatPtr(15)}))
		assert.Equal(t, []string{b.ID}, find(models.ProductFilter{MinPrice: floatPtr(15), MaxPrice: floatPtr(20)}))
		assert.Equal(t, []string{c.ID}, find(models.ProductFilter{Search: "WIDGET"}))
		assert.Equal(t, []string{b.ID}, find(models.ProductFilter{Search: "beta"}))
		assert.Equal(t, []string{b.ID}, find(models.ProductFilter{Category: "electronics", MinPrice: floatPtr(15)}))
		assert.Empty(t, find(models.ProductFilter{Search: ".*"}))
		assert.Empty(t, find(models.ProductFilter{Category: "%"}))
	})

	t.Run("find pages", func(t *testing.T) {
		ctx := context.Background()
		clk := clock.NewMockClock(contractStart)
		repo := newRepo(t, clk)

		var ids []string
		for i := 0; i < 5; i++ {
			clk.Advance(time.Second)
			p, err := repo.Create(ctx, input(fmt.Sprintf("Item %d", i), "d", float64(i), "c"))
			require.NoError(t, err)
			ids = append([]string{p.ID}, ids...)
		}

		page2, err := repo.Find(ctx, models.ListQuery{Page: 2, Limit: 2})
		require.NoError(t, err)
		require.Len(t, page2, 2)
		assert.Equal(t, ids[2], page2[0].ID)
		assert.Equal(t, ids[3], page2[1].ID)

		page4, err := repo.Find(ctx, models.ListQuery{Page: 4, Limit: 2})
		require.NoError(t, err)
		assert.Empty(t, page4)
	})

	t.Run("search by name", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t, clock.NewMockClock(contractStart))

		_, err := repo.Create(ctx, input("Blue Widget", "d", 1, "c"))
		require.NoError(t, err)
		_, err = repo.Create(ctx, input("Gadget", "not a widget by name", 1, "c"))
		require.NoError(t, err)
		for i := 0; i < 25; i++ {
			_, err = repo.Create(ctx, input(fmt.Sprintf("thing %d", i), "d", 1, "c"))
			require.NoError(t, err)
		}

		found, err := repo.SearchByName(ctx, "wid", SearchLimit)
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, "Blue Widget", found[0].Name)

		found, err = repo.SearchByName(ctx, "THING", SearchLimit)
		require.NoError(t, err)
		assert.Len(t, found, SearchLimit)
	})

	t.Run("stats on empty store", func(t *testing.T) {
		repo := newRepo(t, clock.NewMockClock(contractStart))

		stats, err := repo.Stats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, models.StatsSummary{}, stats.Summary)
		assert.NotNil(t, stats.ByCategory)
		assert.Empty(t, stats.ByCategory)
	})

	t.Run("stats", func(t *testing.T) {
		ctx := context.Background()
		repo := newRepo(t, clock.NewMockClock(contractStart))

		for _, in := range []models.ProductInput{
			input("a1", "d", 10, "a"),
			input("a2", "d", 20, "a"),
			input("b1", "d", 5, "b"),
			input("c1", "d", 1, "c"),
		} {
			_, err := repo.Create(ctx, in)
			require.NoError(t, err)
		}
		cheap := input("a3", "d", 0.01, "a")
		cheap.InStock = boolPtr(false)
		_, err := repo.Create(ctx, cheap)
		require.NoError(t, err)

		stats, err := repo.Stats(ctx)
		require.NoError(t, err)

		assert.Equal(t, int64(5), stats.Summary.TotalProducts)
		assert.Equal(t, int64(4), stats.Summary.TotalInStock)
		assert.InDelta(t, 36.01/5, stats.Summary.AvgPriceAll, 1e-9)

		require.Len(t, stats.ByCategory, 3)
		assert.Equal(t, models.CategoryStats{
			Category:        "a",
			Count:           3,
			AvgPrice:        10,
			MinPrice:        0.01,
			MaxPrice:        20,
			InStockCount:    2,
			OutOfStockCount: 1,
		}, stats.ByCategory[0])
		assert.Equal(t, "b", stats.ByCategory[1].Category)
		assert.Equal(t, "c", stats.ByCategory[2].Category)
		for _, g := range stats.ByCategory {
			assert.Equal(t, g.Count, g.InStockCount+g.OutOfStockCount)
		}
	})

	t.Run("ping", func(t *testing.T) {
		repo := newRepo(t, clock.NewMockClock(contractStart))
		assert.NoError(t, repo.Ping(context.Background()))
	})
}
