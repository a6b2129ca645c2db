package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jmoiron/sqlx"

	"github.com/wichananm65/pet-shop-admin/internal/admin"
	"github.com/wichananm65/pet-shop-admin/internal/auth"
	"github.com/wichananm65/pet-shop-admin/internal/config"
	"github.com/wichananm65/pet-shop-admin/internal/logger"
	"github.com/wichananm65/pet-shop-admin/internal/media"
	"github.com/wichananm65/pet-shop-admin/internal/product"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
	"github.com/wichananm65/pet-shop-admin/internal/store"
	"github.com/wichananm65/pet-shop-admin/internal/storefront"
	"github.com/wichananm65/pet-shop-admin/internal/taxonomy"
	"github.com/wichananm65/pet-shop-admin/internal/user"
)

// Services are the per-table services shared by the API and the admin pages,
// so both read through the same cache.
type Services struct {
	Brands     *taxonomy.Service[taxonomy.BrandKind]
	Categories *taxonomy.Service[taxonomy.CategoryKind]
	PetTypes   *taxonomy.Service[taxonomy.PetTypeKind]
	Products   *product.Service
	Users      *user.Service
}

func NewServices(db *sqlx.DB, ttl time.Duration) *Services {
	s := &Services{
		Brands:     taxonomy.NewService[taxonomy.BrandKind](taxonomy.NewSQLRepository[taxonomy.BrandKind](db), store.NewSlice[taxonomy.Brand](ttl)),
		Categories: taxonomy.NewService[taxonomy.CategoryKind](taxonomy.NewSQLRepository[taxonomy.CategoryKind](db), store.NewSlice[taxonomy.Category](ttl)),
		PetTypes:   taxonomy.NewService[taxonomy.PetTypeKind](taxonomy.NewSQLRepository[taxonomy.PetTypeKind](db), store.NewSlice[taxonomy.PetType](ttl)),
		Users:      user.NewService(user.NewSQLRepository(db), store.NewSlice[user.User](ttl)),
	}
	s.Products = product.NewService(product.NewSQLRepository(db), store.NewSlice[product.Product](ttl), product.References{
		Category: taxonomy.Exists(s.Categories),
		Brand:    taxonomy.Exists(s.Brands),
		PetType:  taxonomy.Exists(s.PetTypes),
	})
	return s
}

// invalidator is a service whose cached list can be dropped.
type invalidator interface{ Invalidate() }

// invalidateAfter drops the given caches after any successful write under the
// mounted path. Products embed taxonomy names and taxonomies count products,
// so a write to one side leaves the other side's cache stale.
func invalidateAfter(targets ...invalidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet && c.Method() != fiber.MethodHead && c.Response().StatusCode() < fiber.StatusBadRequest {
			for _, t := range targets {
				t.Invalidate()
			}
		}
		return err
	}
}

// crossInvalidation mounts invalidateAfter on r for product and taxonomy paths.
func (s *Services) crossInvalidation(r fiber.Router) {
	r.Use("/"+product.Names.Path, invalidateAfter(s.Brands, s.Categories, s.PetTypes))
	for _, path := range []string{
		taxonomy.KindOf[taxonomy.BrandKind]().Path,
		taxonomy.KindOf[taxonomy.CategoryKind]().Path,
		taxonomy.KindOf[taxonomy.PetTypeKind]().Path,
	} {
		r.Use("/"+path, invalidateAfter(s.Products))
	}
}

// New wires every route onto a fresh fiber app. The bootstrap admin account
// is created or promoted when ADMIN_USER_ID is set.
func New(ctx context.Context, cfg config.Config, db *sqlx.DB, uploader media.Uploader) (*fiber.App, error) {
	svc := NewServices(db, cfg.CacheTTL())
	if cfg.AdminUserID != "" {
		if _, err := user.EnsureAdmin(ctx, svc.Users, cfg.AdminUserID); err != nil {
			return nil, fmt.Errorf("ensure admin %q: %w", cfg.AdminUserID, err)
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      "pet-shop-admin",
		BodyLimit:    cfg.BodyLimit(),
		Views:        admin.NewViews(),
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware())
	app.Use(helmet.New(helmet.Config{
		CrossOriginEmbedderPolicy: "unsafe-none",
		CrossOriginResourcePolicy: "cross-origin",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins(),
		AllowMethods:  "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, If-Match",
		ExposeHeaders: "ETag",
	}))
	app.Use(timeout(cfg.RequestTimeout()))

	app.Get("/healthz", health(db))
	if cfg.CloudinaryURL == "" && cfg.UploadDir != "" {
		app.Static("/uploads", cfg.UploadDir)
	}

	checker := user.NewAdminChecker(svc.Users)
	guards := []fiber.Handler{auth.Bearer(cfg.JWTSecret), auth.RequireAdmin(checker)}

	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        cfg.RateLimitMax,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
		},
	}))

	brands := taxonomy.NewHandler(svc.Brands)
	categories := taxonomy.NewHandler(svc.Categories)
	petTypes := taxonomy.NewHandler(svc.PetTypes)
	products := product.NewHandler(svc.Products)

	storefront.NewHandler(svc.Products).RegisterPublicRoutes(api)
	brands.RegisterPublicRoutes(api)
	categories.RegisterPublicRoutes(api)
	petTypes.RegisterPublicRoutes(api)
	products.RegisterPublicRoutes(api)

	svc.crossInvalidation(api)
	brands.RegisterProtectedRoutes(api, guards...)
	categories.RegisterProtectedRoutes(api, guards...)
	petTypes.RegisterProtectedRoutes(api, guards...)
	products.RegisterProtectedRoutes(api, guards...)
	user.NewHandler(svc.Users).RegisterAllProtected(api, guards...)
	if uploader != nil {
		media.NewHandler(uploader).RegisterProtectedRoutes(api, guards...)
	}

	session := auth.NewSession(auth.NewIssuer(cfg.JWTSecret, cfg.SessionTTL()), checker, cfg.AdminCookie, cfg.AdminCookieSecure)
	admin.NewLogin(session, cfg.AdminUserID, cfg.AdminPasswordHash).Register(app)

	pages := app.Group("/admin", session.Gate())
	brandPage := admin.NewPage(svc.Brands, admin.TaxonomyDescriptor[taxonomy.BrandKind](), uploader)
	categoryPage := admin.NewPage(svc.Categories, admin.TaxonomyDescriptor[taxonomy.CategoryKind](), uploader)
	petTypePage := admin.NewPage(svc.PetTypes, admin.TaxonomyDescriptor[taxonomy.PetTypeKind](), uploader)
	productPage := admin.NewPage(svc.Products, admin.ProductDescriptor(admin.ProductChoices{
		Categories: admin.ChoicesOf(svc.Categories),
		Brands:     admin.ChoicesOf(svc.Brands),
		PetTypes:   admin.ChoicesOf(svc.PetTypes),
	}), uploader)
	userPage := admin.NewPage(svc.Users, admin.UserDescriptor(), uploader)

	admin.NewDashboard(brandPage, categoryPage, petTypePage, productPage, userPage).Register(pages)
	svc.crossInvalidation(pages)
	brandPage.Register(pages)
	categoryPage.Register(pages)
	petTypePage.Register(pages)
	productPage.Register(pages)
	userPage.Register(pages)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/admin", fiber.StatusFound)
	})
	return app, nil
}

// timeout bounds every repository call made while serving the request.
func timeout(d time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if d <= 0 {
			return c.Next()
		}
		ctx, cancel := context.WithTimeout(c.UserContext(), d)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func health(db *sqlx.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			logger.WithRequest(c).WithError(err).Warn("health check failed")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := resource.StatusFor(err)
	msg := "internal server error"
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		msg = fe.Message
	case code < fiber.StatusInternalServerError:
		msg = err.Error()
	}
	if code >= fiber.StatusInternalServerError {
		logger.WithRequest(c).WithError(err).Error("request failed")
	}
	if strings.HasPrefix(c.Path(), "/api") {
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
	return c.Status(code).SendString(msg)
}
