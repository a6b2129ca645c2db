package admin

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/wichananm65/pet-shop-admin/internal/auth"
	"github.com/wichananm65/pet-shop-admin/internal/logger"
)

// Login is the single-account sign in for the back office. The account id and
// bcrypt hash come from configuration.
type Login struct {
	session *auth.Session
	adminID string
	hash    string
}

func NewLogin(session *auth.Session, adminID, passwordHash string) *Login {
	return &Login{session: session, adminID: adminID, hash: passwordHash}
}

func (l *Login) Register(r fiber.Router) {
	r.Get(auth.LoginPath, l.form)
	r.Post(auth.LoginPath, l.submit)
	r.Post("/logout", l.logout)
}

func (l *Login) form(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{"Title": "Sign in", "Next": c.Query("next")})
}

func (l *Login) submit(c *fiber.Ctx) error {
	next := c.FormValue("next")
	if l.hash == "" || l.adminID == "" || !auth.CheckPassword(l.hash, c.FormValue("password")) {
		logger.Audit(c, "admin.login_failed", nil)
		return c.Status(fiber.StatusUnauthorized).Render("login", fiber.Map{
			"Title": "Sign in",
			"Next":  next,
			"Error": "wrong password",
		})
	}
	if err := l.session.Start(c, l.adminID); err != nil {
		return err
	}
	c.Locals(logger.ActorKey, l.adminID)
	logger.Audit(c, "admin.login", logrus.Fields{"user_id": l.adminID})
	return c.Redirect(auth.SafeNext(next), fiber.StatusSeeOther)
}

func (l *Login) logout(c *fiber.Ctx) error {
	l.session.End(c)
	logger.Audit(c, "admin.logout", nil)
	return c.Redirect(auth.LoginPath, fiber.StatusSeeOther)
}
