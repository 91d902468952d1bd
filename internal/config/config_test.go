package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKeys = []string{
	"PORT", "ENV", "CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT",
	"DB_DRIVER", "DATABASE_URL", "DB_AUTO_MIGRATE", "GRANTS_SEED_FILE",
	"RESEND_API_KEY", "EMAIL_FROM_ADDR", "EMAIL_FROM_NAME", "ADMIN_EMAIL", "SUPPORT_EMAIL",
	"WIDGET_BASE_URL", "WIDGET_KEY",
	"EVENT_TIMEOUT", "SESSION_TTL", "SHUTDOWN_TIMEOUT",
}

// clearEnv unsets every variable the config reads; t.Setenv restores the
// previous values when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/leads")
	t.Setenv("RESEND_API_KEY", "re_test")
	t.Setenv("WIDGET_KEY", "widget-key")
	t.Setenv("ADMIN_EMAIL", "admin@example.com")
}

func missingDotEnv(t *testing.T) string {
	return filepath.Join(t.TempDir(), ".env")
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := load(missingDotEnv(t))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.False(t, cfg.DBAutoMigrate)
	assert.Equal(t, "Furniture Taxi", cfg.EmailFromName)
	assert.Equal(t, "service@furnituretaxi.site", cfg.SupportEmail)
	assert.Equal(t, "https://chalk-leads-app-production.up.railway.app/api/widget", cfg.WidgetBaseURL)
	assert.Equal(t, 10*time.Second, cfg.EventTimeout)
	assert.Equal(t, 12*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 20*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_AUTO_MIGRATE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("EVENT_TIMEOUT", "3s")

	cfg, err := load(missingDotEnv(t))
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.True(t, cfg.DBAutoMigrate)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 3*time.Second, cfg.EventTimeout)
}

func TestLoad_ReportsEveryMissingRequiredVar(t *testing.T) {
	clearEnv(t)

	_, err := load(missingDotEnv(t))
	require.Error(t, err)
	for _, name := range []string{"DATABASE_URL", "RESEND_API_KEY", "WIDGET_KEY", "ADMIN_EMAIL"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("DB_DRIVER", "mysql")

	_, err := load(missingDotEnv(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_DRIVER")
}

func TestLoad_RejectsMalformedAdminEmail(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("ADMIN_EMAIL", "not-an-address")

	_, err := load(missingDotEnv(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_EMAIL")
}

func TestLoad_DotEnvNeverOverridesRealEnv(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("PORT", "9000")

	path := filepath.Join(t.TempDir(), ".env")
	content := "PORT=7000\nEMAIL_FROM_NAME=\"Taxi Dev\"\n# comment\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "Taxi Dev", cfg.EmailFromName)
}
