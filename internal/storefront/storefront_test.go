package storefront

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/pet-shop-admin/internal/product"
	"github.com/wichananm65/pet-shop-admin/internal/store"
)

func strPtr(s string) *string { return &s }

func catalog() []product.Product {
	return []product.Product{
		{ID: "1", Name: "Chicken Kibble", Description: "Dry food", Price: decimal.RequireFromString("29.99"), Quantity: 4,
			Rating: 4.1, CategoryID: strPtr("food"), PetTypeID: strPtr("dog"), BrandID: strPtr("acme"), BrandName: strPtr("Acme"),
			CreatedAt: "2026-01-01T00:00:00.000000Z"},
		{ID: "2", Name: "Rope Toy", Description: "Tough chew toy", Price: decimal.RequireFromString("9.50"), Quantity: 0,
			Rating: 4.8, CategoryID: strPtr("toys"), PetTypeID: strPtr("dog"), BrandID: strPtr("zeta"), BrandName: strPtr("Zeta"),
			CreatedAt: "2026-01-03T00:00:00.000000Z"},
		{ID: "3", Name: "Cat Tower", Description: "Sisal scratching <b>tower</b>", Price: decimal.RequireFromString("129"), Quantity: 1,
			Rating: 3.9, CategoryID: strPtr("furniture"), PetTypeID: strPtr("cat"), BrandID: strPtr("acme"), BrandName: strPtr("Acme"),
			CreatedAt: "2026-01-02T00:00:00.000000Z"},
		{ID: "4", Name: "Salmon Treats", Description: "Snack", Price: decimal.RequireFromString("50"), Quantity: 10,
			Rating: 4.5, CategoryID: strPtr("food"), PetTypeID: strPtr("cat"),
			CreatedAt: "2026-01-04T00:00:00.000000Z"},
	}
}

func ids(items []product.Product) []string {
	out := make([]string, 0, len(items))
	for _, p := range items {
		out = append(out, p.ID)
	}
	return out
}

func TestApplyEmptyFilterKeepsOrder(t *testing.T) {
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(Apply(catalog(), Filter{})))
	assert.True(t, Filter{}.IsZero())
}

func TestApplyFilters(t *testing.T) {
	cases := []struct {
		name string
		f    Filter
		want []string
	}{
		{"term on name", Filter{Term: "KIBBLE"}, []string{"1"}},
		{"term on description", Filter{Term: "chew"}, []string{"2"}},
		{"term on brand", Filter{Term: "zeta"}, []string{"2"}},
		{"category", Filter{CategoryID: "food"}, []string{"1", "4"}},
		{"pet type", Filter{PetTypeID: "cat"}, []string{"3", "4"}},
		{"brand", Filter{BrandID: "acme"}, []string{"1", "3"}},
		{"under 25", Filter{PriceBucket: "under-25"}, []string{"2"}},
		{"25 to 50 excludes 50", Filter{PriceBucket: "25-50"}, []string{"1"}},
		{"50 to 100 includes 50", Filter{PriceBucket: "50-100"}, []string{"4"}},
		{"over 100", Filter{PriceBucket: "over-100"}, []string{"3"}},
		{"in stock", Filter{InStockOnly: true}, []string{"1", "3", "4"}},
		{"combined", Filter{PetTypeID: "dog", InStockOnly: true}, []string{"1"}},
		{"no match", Filter{Term: "parrot"}, []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(Apply(catalog(), tc.f)))
		})
	}
}

func TestApplySorts(t *testing.T) {
	assert.Equal(t, []string{"2", "1", "4", "3"}, ids(Apply(catalog(), Filter{Sort: SortPriceAsc})))
	assert.Equal(t, []string{"3", "4", "1", "2"}, ids(Apply(catalog(), Filter{Sort: SortPriceDesc})))
	assert.Equal(t, []string{"2", "4", "1", "3"}, ids(Apply(catalog(), Filter{Sort: SortRating})))
	assert.Equal(t, []string{"4", "2", "3", "1"}, ids(Apply(catalog(), Filter{Sort: SortNewest})))
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	items := catalog()
	_ = Apply(items, Filter{Sort: SortPriceDesc})
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(items))
}

func TestApplyFilterRoundTrip(t *testing.T) {
	items := catalog()
	_ = Apply(items, Filter{Term: "cat", PriceBucket: "over-100", Sort: SortRating})
	assert.Equal(t, ids(items), ids(Apply(items, Filter{})))
}

func makeStorefrontApp(t *testing.T) *fiber.App {
	t.Helper()
	svc := product.NewService(product.NewMemoryRepository(catalog()...), store.NewSlice[product.Product](time.Minute), product.References{})
	app := fiber.New()
	NewHandler(svc).RegisterPublicRoutes(app.Group("/api"))
	return app
}

func TestStorefrontEndpoint(t *testing.T) {
	app := makeStorefrontApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/storefront/products?pet_type_id=cat&sort=price_asc&in_stock=1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Products []product.Product `json:"products"`
		Count    int               `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 2, body.Count)
	assert.Equal(t, []string{"4", "3"}, ids(body.Products))
}

func TestStorefrontRejectsUnknownParams(t *testing.T) {
	app := makeStorefrontApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/storefront/products?price=cheap", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/storefront/products?sort=random", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
