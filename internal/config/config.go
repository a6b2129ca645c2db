package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr string `env:"PET_SHOP_ADDR" envDefault:":8080"`

	DatabaseURL string `env:"DATABASE_URL"`
	DBDriver    string `env:"DB_DRIVER" envDefault:"pgx"`

	JWTSecret         string `env:"JWT_SECRET"`
	AdminUserID       string `env:"ADMIN_USER_ID"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	AdminCookie       string `env:"ADMIN_COOKIE" envDefault:"admin_session"`
	AdminCookieSecure bool   `env:"ADMIN_COOKIE_SECURE" envDefault:"false"`
	SessionHours      int    `env:"SESSION_HOURS" envDefault:"12"`

	CloudinaryURL string `env:"CLOUDINARY_URL"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"./uploads"`

	CacheTTLSeconds       int    `env:"CACHE_TTL_SECONDS" envDefault:"30"`
	RequestTimeoutSeconds int    `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"10"`
	CORSOrigins           string `env:"CORS_ORIGINS" envDefault:"*"`
	RateLimitMax          int    `env:"RATE_LIMIT_MAX" envDefault:"120"`
	BodyLimitMB           int    `env:"BODY_LIMIT_MB" envDefault:"8"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
	LogFile   string `env:"LOG_FILE"`
}

var supportedDrivers = map[string]bool{
	"pgx":      true,
	"postgres": true,
	"mysql":    true,
	"sqlite":   true,
}

// Load reads .env (when present) and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if !supportedDrivers[c.DBDriver] {
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver))
	}
	if c.BodyLimitMB <= 0 {
		errs = append(errs, errors.New("BODY_LIMIT_MB must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c Config) SessionTTL() time.Duration {
	if c.SessionHours <= 0 {
		return 12 * time.Hour
	}
	return time.Duration(c.SessionHours) * time.Hour
}

func (c Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}

// AllowOrigins normalizes the comma separated list for the cors middleware.
func (c Config) AllowOrigins() string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}
