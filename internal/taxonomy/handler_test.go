package taxonomy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/pet-shop-admin/internal/database/databasetest"
	"github.com/wichananm65/pet-shop-admin/internal/resource"
	"github.com/wichananm65/pet-shop-admin/internal/store"
)

func requireUser(c *fiber.Ctx) error {
	if c.Get("X-User-ID") == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}
	return c.Next()
}

func makeApp[K Spec](t *testing.T, repo resource.Repository[Taxonomy[K]]) (*fiber.App, *store.Slice[Taxonomy[K]]) {
	t.Helper()
	cache := store.NewSlice[Taxonomy[K]](time.Minute)
	h := NewHandler(NewService[K](repo, cache))
	app := fiber.New()
	api := app.Group("/api")
	h.RegisterPublicRoutes(api)
	h.RegisterProtectedRoutes(api, requireUser)
	return app, cache
}

func send(t *testing.T, app *fiber.App, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "admin")
	resp, err := app.Test(req)
	require.NoError(t, err)
	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp, out
}

func brandNames(body map[string]any) []string {
	var out []string
	for _, b := range body["brands"].([]any) {
		out = append(out, b.(map[string]any)["name"].(string))
	}
	return out
}

func TestBrandLifecycle(t *testing.T) {
	app, cache := makeApp[BrandKind](t, NewSQLRepository[BrandKind](databasetest.Open(t)))

	_, body := send(t, app, "GET", "/api/brands", "")
	assert.Empty(t, body["brands"])

	resp, body := send(t, app, "POST", "/api/brands", `{"name":"Acme","logo_url":"https://img.test/acme.png"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	acme := body["brand"].(map[string]any)
	assert.Equal(t, "https://img.test/acme.png", acme["logo_url"])
	assert.Equal(t, float64(0), acme["product_count"])

	resp, _ = send(t, app, "POST", "/api/brands", `{"name":"Zeta"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	_, body = send(t, app, "GET", "/api/brands", "")
	assert.Equal(t, []string{"Acme", "Zeta"}, brandNames(body))
	assert.Equal(t, 2, cache.Count())

	resp, _ = send(t, app, "DELETE", "/api/brands", `{"id":"`+acme["id"].(string)+`"}`)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, body = send(t, app, "GET", "/api/brands", "")
	assert.Equal(t, []string{"Zeta"}, brandNames(body))
	assert.Equal(t, 1, cache.Count())
}

func TestCategoryRequiresImageOnCreate(t *testing.T) {
	app, _ := makeApp[CategoryKind](t, NewSQLRepository[CategoryKind](databasetest.Open(t)))

	resp, body := send(t, app, "POST", "/api/categories", `{"name":"Food"}`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "is required", body["fields"].(map[string]any)["image_url"])

	resp, body = send(t, app, "POST", "/api/categories", `{"name":"Food","image_url":"/uploads/food.png"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	id := body["category"].(map[string]any)["id"].(string)

	resp, _ = send(t, app, "PUT", "/api/categories/"+id, `{"name":"Dry food"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestCategoryDeleteBlockedWhenReferenced(t *testing.T) {
	db := databasetest.Open(t)
	app, _ := makeApp[CategoryKind](t, NewSQLRepository[CategoryKind](db))

	_, body := send(t, app, "POST", "/api/categories", `{"name":"Food","image_url":"/uploads/food.png"}`)
	id := body["category"].(map[string]any)["id"].(string)
	_, err := db.ExecContext(context.Background(),
		`INSERT INTO products (id, name, price, category_id, created_at) VALUES ('p1', 'Kibble', 29.99, ?, '2026-01-01T00:00:00.000000Z')`, id)
	require.NoError(t, err)

	resp, body := send(t, app, "DELETE", "/api/categories/"+id, "")
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Contains(t, body["error"], "used by 1 products")

	_, body = send(t, app, "GET", "/api/categories", "")
	assert.Len(t, body["categories"], 1)
}

func TestCategoryCreateIgnoresClientID(t *testing.T) {
	app, _ := makeApp[CategoryKind](t, NewSQLRepository[CategoryKind](databasetest.Open(t)))

	resp, body := send(t, app, "POST", "/api/categories", `{"id":"c-custom","name":"Toys"}`)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["fields"], "image_url")

	resp, body = send(t, app, "POST", "/api/categories", `{"id":"c-custom","name":"Toys","image_url":"https://img.test/toys.png"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	created := body["category"].(map[string]any)
	assert.NotEqual(t, "c-custom", created["id"])

	resp, _ = send(t, app, "PUT", "/api/categories/"+created["id"].(string), `{"name":"Toys and Games"}`)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestPetTypeRoutesUseDashedPath(t *testing.T) {
	app, _ := makeApp[PetTypeKind](t, NewSQLRepository[PetTypeKind](databasetest.Open(t)))

	resp, body := send(t, app, "POST", "/api/pet-types", `{"name":"Dogs"}`)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Dogs", body["pet_type"].(map[string]any)["name"])

	_, body = send(t, app, "GET", "/api/pet-types", "")
	assert.Len(t, body["pet_types"], 1)
}

func TestMarshalUsesKindImageKey(t *testing.T) {
	b, err := json.Marshal(Brand{ID: "b1", Name: "Acme", ImageURL: strPtr("x.png")})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"logo_url":"x.png"`)
	assert.NotContains(t, string(b), "image_url")

	var c Category
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Food","logo_url":"y.png","product_count":9}`), &c))
	assert.Equal(t, "y.png", c.Image())
	assert.Equal(t, 0, c.ProductCount)
}
