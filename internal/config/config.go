// Package config loads and validates all environment variables at startup.
// Every other package receives typed values; nothing reads os.Getenv directly.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/mail"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port           string        `env:"PORT"            envDefault:"8080"`
	Env            string        `env:"ENV"             envDefault:"development"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// ── Database ──────────────────────────────────────────────────────────────
	// DBDriver is "postgres" or "sqlite". DatabaseURL is a postgres:// DSN
	// or a SQLite path such as file:leads.db.
	DBDriver      string `env:"DB_DRIVER"       envDefault:"postgres"`
	DatabaseURL   string `env:"DATABASE_URL"`
	DBAutoMigrate bool   `env:"DB_AUTO_MIGRATE" envDefault:"false"`
	// GrantsSeedFile is an optional JSON file of discounts and referrals
	// imported at startup.
	GrantsSeedFile string `env:"GRANTS_SEED_FILE"`

	// ── Resend ────────────────────────────────────────────────────────────────
	ResendAPIKey  string `env:"RESEND_API_KEY"`
	EmailFromAddr string `env:"EMAIL_FROM_ADDR" envDefault:"onboarding@resend.dev"`
	EmailFromName string `env:"EMAIL_FROM_NAME" envDefault:"Furniture Taxi"`
	AdminEmail    string `env:"ADMIN_EMAIL"`
	SupportEmail  string `env:"SUPPORT_EMAIL"   envDefault:"service@furnituretaxi.site"`

	// ── Quote widget ──────────────────────────────────────────────────────────
	WidgetBaseURL string `env:"WIDGET_BASE_URL" envDefault:"https://chalk-leads-app-production.up.railway.app/api/widget"`
	WidgetKey     string `env:"WIDGET_KEY"`

	// ── Background work ───────────────────────────────────────────────────────
	EventTimeout    time.Duration `env:"EVENT_TIMEOUT"    envDefault:"10s"`
	SessionTTL      time.Duration `env:"SESSION_TTL"      envDefault:"12h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"20s"`
}

// Load reads all environment variables and returns a validated Config.
// It automatically loads a .env file from the working directory when present,
// so plain `go run ./cmd/api` works in development without any wrapper.
// Real environment variables always take precedence over .env values.
func Load() (*Config, error) {
	return load(".env")
}

func load(dotEnvPath string) (*Config, error) {
	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(dotEnvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read %s: %w", dotEnvPath, err)
	}

	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("config: parse env: %w", err)
	}

	return c, c.validate()
}

func (c *Config) validate() error {
	var errs []error

	required := []struct{ name, val string }{
		{"DATABASE_URL", c.DatabaseURL},
		{"RESEND_API_KEY", c.ResendAPIKey},
		{"WIDGET_KEY", c.WidgetKey},
		{"ADMIN_EMAIL", c.AdminEmail},
	}
	for _, r := range required {
		if r.val == "" {
			errs = append(errs, fmt.Errorf("missing required env var: %s", r.name))
		}
	}

	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver))
	}

	if c.AdminEmail != "" {
		if _, err := mail.ParseAddress(c.AdminEmail); err != nil {
			errs = append(errs, fmt.Errorf("ADMIN_EMAIL is not a valid address: %w", err))
		}
	}

	durations := []struct {
		name string
		val  time.Duration
	}{
		{"REQUEST_TIMEOUT", c.RequestTimeout},
		{"EVENT_TIMEOUT", c.EventTimeout},
		{"SESSION_TTL", c.SessionTTL},
		{"SHUTDOWN_TIMEOUT", c.ShutdownTimeout},
	}
	for _, d := range durations {
		if d.val <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", d.name))
		}
	}

	return errors.Join(errs...)
}
