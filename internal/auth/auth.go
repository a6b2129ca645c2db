package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/wichananm65/pet-shop-admin/internal/logger"
)

// TokenKey is where the bearer middleware stores the parsed *jwt.Token.
const TokenKey = "user"

var ErrNoSubject = errors.New("token has no subject")

// AdminLookup reports whether a user id carries the admin flag.
type AdminLookup interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// Bearer verifies an HS256 Authorization header and stores the token in Locals.
func Bearer(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:    []byte(secret),
		SigningMethod: "HS256",
		ContextKey:    TokenKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or invalid token"})
		},
	})
}

// Subject returns the user id from the token placed in Locals by Bearer.
// Tokens issued by older clients carry user_id instead of sub.
func Subject(c *fiber.Ctx) (string, error) {
	tok, ok := c.Locals(TokenKey).(*jwt.Token)
	if !ok || tok == nil {
		return "", fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	return subjectOf(claims)
}

func subjectOf(claims jwt.MapClaims) (string, error) {
	for _, key := range []string{"sub", "user_id"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v, nil
			}
		case float64:
			return fmt.Sprintf("%.0f", v), nil
		}
	}
	return "", ErrNoSubject
}

// RequireAdmin must run after Bearer. It answers 401 without a subject and 403
// when the subject is not an admin user.
func RequireAdmin(lookup AdminLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sub, err := Subject(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing or invalid token"})
		}
		ok, err := lookup.IsAdmin(c.UserContext(), sub)
		if err != nil {
			logger.WithRequest(c).WithError(err).Error("admin lookup failed")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
		}
		if !ok {
			logger.WithRequest(c).WithField("user_id", sub).Warn("non-admin attempted a protected action")
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "admin access required"})
		}
		c.Locals(logger.ActorKey, sub)
		return c.Next()
	}
}

// Issuer signs session tokens for the admin login.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(subject string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses a token signed by the same secret and returns its subject.
func (i *Issuer) Verify(raw string) (string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	return subjectOf(claims)
}

// CheckPassword compares against a bcrypt hash. An empty hash never matches.
func CheckPassword(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
