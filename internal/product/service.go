package product

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/wichananm65/pet-shop-admin/internal/database"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

type Service = resource.Service[Product]

// Lookup returns resource.ErrNotFound when id does not exist.
type Lookup func(ctx context.Context, id string) error

// References resolves the taxonomy ids a product points at. Nil lookups are skipped.
type References struct {
	Category Lookup
	Brand    Lookup
	PetType  Lookup
}

var Names = resource.Names{Path: "products", Plural: "products", Singular: "product"}

func NewService(repo resource.Repository[Product], cache resource.Cache[Product], refs References) *Service {
	return resource.NewService(repo, cache,
		resource.WithServerIDs[Product](),
		resource.WithCheck(func(ctx context.Context, p Product) error {
			return check(ctx, p, refs)
		}),
	)
}

func NewHandler(svc *Service) *resource.Handler[Product] {
	return resource.NewHandler(svc, Names)
}

func NewMemoryRepository(seed ...Product) *resource.MemoryRepository[Product] {
	return resource.NewMemoryRepository(seed, func(p Product) Product {
		p.CreatedAt = database.Now()
		p.InStock = p.Quantity > 0
		return p
	})
}

func check(ctx context.Context, p Product, refs References) error {
	fields := map[string]string{}

	if p.OriginalPrice.Valid && p.OriginalPrice.Decimal.IsNegative() {
		fields["original_price"] = "must be >= 0"
	}
	for i, img := range p.ImageList() {
		if _, err := url.ParseRequestURI(img); err != nil {
			fields[fmt.Sprintf("images[%d]", i)] = "must be a valid URL"
		}
	}

	for _, ref := range []struct {
		field  string
		id     *string
		lookup Lookup
	}{
		{"category_id", p.CategoryID, refs.Category},
		{"brand_id", p.BrandID, refs.Brand},
		{"pet_type_id", p.PetTypeID, refs.PetType},
	} {
		if ref.id == nil || *ref.id == "" || ref.lookup == nil {
			continue
		}
		err := ref.lookup(ctx, *ref.id)
		switch {
		case errors.Is(err, resource.ErrNotFound):
			fields[ref.field] = "does not exist"
		case err != nil:
			return err
		}
	}

	if len(fields) > 0 {
		return &resource.ValidationError{Fields: fields}
	}
	return nil
}
