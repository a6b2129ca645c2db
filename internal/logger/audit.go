package logger

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// ActorKey is the Locals key holding the authenticated user id.
const ActorKey = "actor_id"

func AuditLogger() *logrus.Logger { return GetLogger("audit") }

// Audit records an admin mutation such as "brand.create".
func Audit(c *fiber.Ctx, action string, details logrus.Fields) {
	fields := requestFields(c)
	fields["action"] = action
	fields["user_agent"] = c.Get(fiber.HeaderUserAgent)
	if actor, ok := c.Locals(ActorKey).(string); ok {
		fields["actor_id"] = actor
	}
	for k, v := range details {
		fields[k] = v
	}
	AuditLogger().WithFields(fields).Info("audit")
}
