package logger

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// RequestIDKey is where the requestid middleware stores the id.
const RequestIDKey = "requestid"

// WithRequest returns an app log entry carrying the request context.
func WithRequest(c *fiber.Ctx) *logrus.Entry {
	return App().WithFields(requestFields(c))
}

func requestFields(c *fiber.Ctx) logrus.Fields {
	fields := logrus.Fields{
		"method": c.Method(),
		"path":   c.Path(),
		"ip":     c.IP(),
	}
	if id, ok := c.Locals(RequestIDKey).(string); ok && id != "" {
		fields["request_id"] = id
	}
	return fields
}

// Middleware writes one access line per request.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}
		entry := Access().WithFields(requestFields(c)).WithFields(logrus.Fields{
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
		})
		switch {
		case status >= 500:
			entry.Error("request")
		case status >= 400:
			entry.Warn("request")
		default:
			entry.Info("request")
		}
		return err
	}
}
