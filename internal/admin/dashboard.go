package admin

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wichananm65/pet-shop-admin/internal/logger"
)

// Counter is one dashboard tile. *Page satisfies it.
type Counter interface {
	Path() string
	Title() string
	Count(ctx context.Context) (int, error)
}

type tile struct {
	Title string
	Path  string
	Count int
}

type Dashboard struct {
	sections []Counter
}

func NewDashboard(sections ...Counter) *Dashboard {
	return &Dashboard{sections: sections}
}

func (d *Dashboard) Register(r fiber.Router) {
	r.Get("/", d.show)
}

// show loads every count concurrently. The services coalesce concurrent
// misses, so a cold dashboard costs one query per table.
func (d *Dashboard) show(c *fiber.Ctx) error {
	tiles := make([]tile, len(d.sections))
	g, ctx := errgroup.WithContext(c.UserContext())
	for i, s := range d.sections {
		g.Go(func() error {
			n, err := s.Count(ctx)
			if err != nil {
				return fmt.Errorf("count %s: %w", s.Title(), err)
			}
			tiles[i] = tile{Title: s.Title(), Path: s.Path(), Count: n}
			return nil
		})
	}

	view := fiber.Map{"Title": "Dashboard", "Tiles": tiles, "Notice": c.Query("notice")}
	status := fiber.StatusOK
	if err := g.Wait(); err != nil {
		logger.WithRequest(c).WithError(err).Error("dashboard counts failed")
		view["Error"] = "could not load all counts"
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).Render("dashboard", view, "layout")
}
