package logger

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureJSON(t *testing.T, name string) *bytes.Buffer {
	t.Helper()
	require.NoError(t, Init(LogConfig{Level: "debug", Format: "json"}))
	buf := &bytes.Buffer{}
	GetLogger(name).SetOutput(buf)
	t.Cleanup(func() { _ = Init(DefaultConfig()) })
	return buf
}

func TestGetLoggerIsCached(t *testing.T) {
	require.NoError(t, Init(DefaultConfig()))
	assert.Same(t, GetLogger("app"), App())
	assert.NotSame(t, App(), AuditLogger())
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Init(LogConfig{Level: "chatty"}))
}

func TestFileFor(t *testing.T) {
	assert.Equal(t, "logs/app.log", fileFor("logs/app.log", "app"))
	assert.Equal(t, "logs/app.audit.log", fileFor("logs/app.log", "audit"))
}

func TestAuditCarriesRequestContext(t *testing.T) {
	buf := captureJSON(t, "audit")

	app := fiber.New()
	app.Use(requestid.New())
	app.Post("/brands", func(c *fiber.Ctx) error {
		c.Locals(ActorKey, "u-1")
		Audit(c, "brand.create", logrus.Fields{"id": "b-1"})
		return c.SendStatus(fiber.StatusCreated)
	})

	resp, err := app.Test(httptest.NewRequest("POST", "/brands", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "brand.create", line["action"])
	assert.Equal(t, "u-1", line["actor_id"])
	assert.Equal(t, "b-1", line["id"])
	assert.Equal(t, "/brands", line["path"])
	assert.NotEmpty(t, line["request_id"])
}

func TestMiddlewareLogsStatus(t *testing.T) {
	buf := captureJSON(t, "access")

	app := fiber.New()
	app.Use(Middleware())
	app.Get("/missing", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNotFound)
	})

	_, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, float64(404), line["status"])
	assert.Equal(t, "warning", line["level"])
}
