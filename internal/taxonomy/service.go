package taxonomy

import (
	"context"
	"fmt"

	"github.com/wichananm65/pet-shop-admin/internal/database"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
)

type Service[K Spec] = resource.Service[Taxonomy[K]]

// NewService assigns ids, enforces the kind's image rule on create and refuses
// to delete rows products still use.
func NewService[K Spec](repo resource.Repository[Taxonomy[K]], cache resource.Cache[Taxonomy[K]]) *Service[K] {
	kind := KindOf[K]()

	requireImage := func(_ context.Context, t Taxonomy[K]) error {
		if kind.RequireImageOnCreate && t.Image() == "" {
			return resource.Invalid(kind.ImageKey, "is required")
		}
		return nil
	}

	guard := func(ctx context.Context, id string) error {
		current, err := repo.Get(ctx, id)
		if err != nil {
			return err
		}
		if current.ProductCount > 0 {
			return fmt.Errorf("%w: %s %q is used by %d products", resource.ErrInUse, kind.Singular, current.Name, current.ProductCount)
		}
		return nil
	}

	return resource.NewService(repo, cache,
		resource.WithServerIDs[Taxonomy[K]](),
		resource.WithCreateCheck(requireImage),
		resource.WithDeleteGuard[Taxonomy[K]](guard),
	)
}

func NewHandler[K Spec](svc *Service[K]) *resource.Handler[Taxonomy[K]] {
	return resource.NewHandler(svc, KindOf[K]().Names())
}

// NewMemoryRepository is used by tests and local runs without a database.
func NewMemoryRepository[K Spec](seed ...Taxonomy[K]) *resource.MemoryRepository[Taxonomy[K]] {
	return resource.NewMemoryRepository(seed, func(t Taxonomy[K]) Taxonomy[K] {
		t.CreatedAt = database.Now()
		t.ProductCount = 0
		return t
	})
}

// Exists reports resource.ErrNotFound for ids the service cannot find.
func Exists[K Spec](svc *Service[K]) func(ctx context.Context, id string) error {
	return func(ctx context.Context, id string) error {
		_, err := svc.Get(ctx, id)
		return err
	}
}
