package storefront

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/wichananm65/pet-shop-admin/internal/product"
)

const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
	SortNewest    = "newest"
)

// PriceBucket is a half-open price range [Min, Max). A nil bound is open.
type PriceBucket struct {
	Min *decimal.Decimal
	Max *decimal.Decimal
}

func bound(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

var Buckets = map[string]PriceBucket{
	"under-25": {Max: bound(25)},
	"25-50":    {Min: bound(25), Max: bound(50)},
	"50-100":   {Min: bound(50), Max: bound(100)},
	"over-100": {Min: bound(100)},
}

func (b PriceBucket) Contains(price decimal.Decimal) bool {
	if b.Min != nil && price.LessThan(*b.Min) {
		return false
	}
	if b.Max != nil && !price.LessThan(*b.Max) {
		return false
	}
	return true
}

// Filter holds the storefront query. Zero values mean "any".
type Filter struct {
	Term        string
	CategoryID  string
	PetTypeID   string
	BrandID     string
	PriceBucket string
	InStockOnly bool
	Sort        string
}

func (f Filter) IsZero() bool {
	return f == Filter{}
}

// Apply returns the matching products in input order, then sorted when requested.
// The input slice is never modified.
func Apply(items []product.Product, f Filter) []product.Product {
	term := strings.ToLower(strings.TrimSpace(f.Term))
	bucket, hasBucket := Buckets[f.PriceBucket]

	out := make([]product.Product, 0, len(items))
	for _, p := range items {
		if term != "" && !matchesTerm(p, term) {
			continue
		}
		if !matchesID(p.CategoryID, f.CategoryID) || !matchesID(p.PetTypeID, f.PetTypeID) || !matchesID(p.BrandID, f.BrandID) {
			continue
		}
		if hasBucket && !bucket.Contains(p.Price) {
			continue
		}
		if f.InStockOnly && p.Quantity <= 0 {
			continue
		}
		out = append(out, p)
	}

	sortProducts(out, f.Sort)
	return out
}

func matchesTerm(p product.Product, term string) bool {
	return strings.Contains(strings.ToLower(p.Name), term) ||
		strings.Contains(strings.ToLower(p.Description), term) ||
		strings.Contains(strings.ToLower(p.Brand()), term)
}

func matchesID(got *string, want string) bool {
	if want == "" {
		return true
	}
	return got != nil && *got == want
}

func sortProducts(items []product.Product, by string) {
	var less func(a, b product.Product) bool
	switch by {
	case SortPriceAsc:
		less = func(a, b product.Product) bool { return a.Price.LessThan(b.Price) }
	case SortPriceDesc:
		less = func(a, b product.Product) bool { return a.Price.GreaterThan(b.Price) }
	case SortRating:
		less = func(a, b product.Product) bool { return a.Rating > b.Rating }
	case SortNewest:
		less = func(a, b product.Product) bool { return a.CreatedAt > b.CreatedAt }
	default:
		return
	}
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
