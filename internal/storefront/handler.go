package storefront

import (
	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"

	"github.com/wichananm65/pet-shop-admin/internal/logger"
	"github.com/wichananm65/pet-shop-admin/internal/product"
)

type Handler struct {
	products *product.Service
}

func NewHandler(products *product.Service) *Handler {
	return &Handler{products: products}
}

func (h *Handler) RegisterPublicRoutes(r fiber.Router) {
	r.Get("/storefront/products", h.listProducts)
}

func FilterFromQuery(c *fiber.Ctx) Filter {
	return Filter{
		Term:        c.Query("q"),
		CategoryID:  c.Query("category_id"),
		PetTypeID:   c.Query("pet_type_id"),
		BrandID:     c.Query("brand_id"),
		PriceBucket: c.Query("price"),
		InStockOnly: cast.ToBool(c.Query("in_stock")),
		Sort:        c.Query("sort"),
	}
}

func (h *Handler) listProducts(c *fiber.Ctx) error {
	f := FilterFromQuery(c)
	if f.PriceBucket != "" {
		if _, ok := Buckets[f.PriceBucket]; !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown price bucket"})
		}
	}
	switch f.Sort {
	case "", SortPriceAsc, SortPriceDesc, SortRating, SortNewest:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown sort"})
	}

	all, err := h.products.List(c.UserContext())
	if err != nil {
		logger.WithRequest(c).WithError(err).Error("storefront list failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	items := Apply(all, f)
	return c.JSON(fiber.Map{"products": items, "count": len(items)})
}
