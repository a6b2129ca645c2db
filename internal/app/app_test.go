package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wichananm65/pet-shop-admin/internal/auth"
	"github.com/wichananm65/pet-shop-admin/internal/config"
	"github.com/wichananm65/pet-shop-admin/internal/database/databasetest"
	"github.com/wichananm65/pet-shop-admin/internal/media"
)

const testSecret = "test-secret"

func makeApp(t *testing.T) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)

	cfg := config.Config{
		DatabaseURL:           ":memory:",
		DBDriver:              "sqlite",
		JWTSecret:             testSecret,
		AdminUserID:           "admin-1",
		AdminPasswordHash:     hash,
		AdminCookie:           "admin_session",
		SessionHours:          1,
		UploadDir:             dir,
		CacheTTLSeconds:       30,
		RequestTimeoutSeconds: 5,
		CORSOrigins:           "*",
		RateLimitMax:          1000,
		BodyLimitMB:           1,
	}
	uploader, err := media.NewLocal(dir, "/uploads")
	require.NoError(t, err)

	app, err := New(context.Background(), cfg, databasetest.Open(t), uploader)
	require.NoError(t, err)
	return app
}

func tokenFor(t *testing.T, sub string) string {
	t.Helper()
	tok, err := auth.NewIssuer(testSecret, time.Hour).Issue(sub)
	require.NoError(t, err)
	return tok
}

func doJSON(t *testing.T, app *fiber.App, method, path, body, token string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	out := map[string]any{}
	b, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(b, &out)
	return resp, out
}

func TestHealthz(t *testing.T) {
	app := makeApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/healthz", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestAPIWritesNeedAdmin(t *testing.T) {
	app := makeApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/api/brands", `{"name":"Acme"}`, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/brands", `{"name":"Acme"}`, tokenFor(t, "shopper-9"))
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/api/brands", `{"name":"Acme"}`, tokenFor(t, "admin-1"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	brand := body["brand"].(map[string]any)
	assert.Equal(t, "Acme", brand["name"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/brands", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Len(t, body["brands"], 1)
}

func TestUsersAreAdminOnly(t *testing.T) {
	app := makeApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/api/users", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+tokenFor(t, "admin-1"))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var users []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&users))
	require.Len(t, users, 1)
	assert.Equal(t, "admin-1", users[0]["id"])
	assert.Equal(t, true, users[0]["is_admin"])
}

func TestCatalogFlow(t *testing.T) {
	app := makeApp(t)
	admin := tokenFor(t, "admin-1")

	resp, body := doJSON(t, app, http.MethodPost, "/api/categories", `{"name":"Food"}`, admin)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["fields"], "image_url")

	resp, body = doJSON(t, app, http.MethodPost, "/api/categories", `{"name":"Food","image_url":"https://cdn.example.com/food.png"}`, admin)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	categoryID := body["category"].(map[string]any)["id"].(string)

	resp, body = doJSON(t, app, http.MethodPost, "/api/products",
		`{"name":"Chicken Kibble","price":"19.99","quantity":"5","category_id":"`+categoryID+`"}`, admin)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	productID := body["product"].(map[string]any)["id"].(string)

	resp, body = doJSON(t, app, http.MethodGet, "/api/storefront/products?in_stock=1&q=kibble", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["count"])
	listed := body["products"].([]any)[0].(map[string]any)
	assert.Equal(t, "19.99", listed["price"])
	assert.Equal(t, "Food", listed["category_name"])

	resp, body = doJSON(t, app, http.MethodGet, "/api/categories", "", "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["categories"].([]any)[0].(map[string]any)["product_count"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/categories/"+categoryID, "", admin)
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/products/"+productID, "", admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/api/categories/"+categoryID, "", admin)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestBrandRenameReachesStorefront(t *testing.T) {
	app := makeApp(t)
	admin := tokenFor(t, "admin-1")

	resp, body := doJSON(t, app, http.MethodPost, "/api/brands", `{"name":"Acme"}`, admin)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
	brandID := body["brand"].(map[string]any)["id"].(string)

	resp, _ = doJSON(t, app, http.MethodPost, "/api/products", `{"name":"Rope Toy","price":"4.50","quantity":2,"brand_id":"`+brandID+`"}`, admin)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	_, body = doJSON(t, app, http.MethodGet, "/api/storefront/products?q=acme", "", "")
	require.Equal(t, float64(1), body["count"])

	resp, _ = doJSON(t, app, http.MethodPut, "/api/brands/"+brandID, `{"name":"Zenith"}`, admin)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, body = doJSON(t, app, http.MethodGet, "/api/storefront/products?q=zenith", "", "")
	assert.Equal(t, float64(1), body["count"])
	_, body = doJSON(t, app, http.MethodGet, "/api/storefront/products?q=acme", "", "")
	assert.Equal(t, float64(0), body["count"])
}

func TestAdminPagesBehindLogin(t *testing.T) {
	app := makeApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/admin/brands", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fadmin%2Fbrands", resp.Header.Get("Location"))

	form := url.Values{"password": {"s3cret"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	cookies := resp.Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "Dashboard")
	assert.Contains(t, string(b), "<strong>1</strong>Users")
}

func TestUnknownAPIRouteIsJSON(t *testing.T) {
	app := makeApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/api/nope", "", "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}
