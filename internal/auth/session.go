package auth

import (
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/wichananm65/pet-shop-admin/internal/logger"
)

const LoginPath = "/login"

// Session manages the admin cookie used by the server-rendered pages.
type Session struct {
	issuer *Issuer
	lookup AdminLookup
	cookie string
	secure bool
	ttl    time.Duration
}

func NewSession(issuer *Issuer, lookup AdminLookup, cookie string, secure bool) *Session {
	return &Session{issuer: issuer, lookup: lookup, cookie: cookie, secure: secure, ttl: issuer.ttl}
}

// Start signs a token for subject and sets it as the session cookie.
func (s *Session) Start(c *fiber.Ctx, subject string) error {
	tok, err := s.issuer.Issue(subject)
	if err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     s.cookie,
		Value:    tok,
		Path:     "/",
		Expires:  time.Now().Add(s.ttl),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return nil
}

func (s *Session) End(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.cookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Gate protects /admin pages: no or bad cookie redirects to the login page,
// a valid cookie for a non-admin answers 403.
func (s *Session) Gate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := c.Cookies(s.cookie)
		if raw == "" {
			return c.Redirect(loginURL(c), fiber.StatusSeeOther)
		}
		sub, err := s.issuer.Verify(raw)
		if err != nil {
			logger.WithRequest(c).WithError(err).Info("admin session rejected")
			s.End(c)
			return c.Redirect(loginURL(c), fiber.StatusSeeOther)
		}
		ok, err := s.lookup.IsAdmin(c.UserContext(), sub)
		if err != nil {
			return err
		}
		if !ok {
			return c.Status(fiber.StatusForbidden).SendString("admin access required")
		}
		c.Locals(logger.ActorKey, sub)
		return c.Next()
	}
}

// loginURL carries the requested page as ?next= so login can return to it.
// Only GETs are replayed; a form post lands on the dashboard instead.
func loginURL(c *fiber.Ctx) string {
	if c.Method() != fiber.MethodGet {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"next": {c.OriginalURL()}}.Encode()
}

// SafeNext keeps post-login redirects on this site.
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/admin") || strings.HasPrefix(next, "//") {
		return "/admin"
	}
	return next
}
