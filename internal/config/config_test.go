package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimal = `
cms:
  base_url: "https://cms.example.org"
admin:
  jwt_secret: "secret"
  session_secret: "session"
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.CMS.Timeout)
	assert.Equal(t, 100, cfg.CMS.MaxListSize)
	assert.Equal(t, 3, cfg.CMS.BlogPageSize)
	assert.Equal(t, 12, cfg.CMS.NoticePageSize)
	assert.Equal(t, "cms", cfg.Registrations.Backend)
	assert.Equal(t, "memory", cfg.Registrations.Storage)
	assert.Equal(t, "st-rita-registrations", cfg.Registrations.Key)
	assert.Equal(t, 12*time.Hour, cfg.Admin.TokenTTL)
	assert.Equal(t, "*/15 * * * *", cfg.Jobs.EventSnapshot)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CMS_BASE_URL", "https://strapi.parish.org")
	t.Setenv("REGISTRATIONS_BACKEND", "local")
	t.Setenv("REGISTRATIONS_STORAGE", "redis")
	t.Setenv("HTTP_ALLOW_ORIGINS", "https://a.org,https://b.org")

	cfg, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "https://strapi.parish.org", cfg.CMS.BaseURL)
	assert.Equal(t, "local", cfg.Registrations.Backend)
	assert.Equal(t, "redis", cfg.Registrations.Storage)
	assert.Equal(t, []string{"https://a.org", "https://b.org"}, cfg.HTTP.AllowOrigins)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "cms base url required",
			body: "admin:\n  jwt_secret: s\n  session_secret: s\n",
		},
		{
			name: "unknown backend",
			body: minimal + "registrations:\n  backend: \"paper\"\n",
		},
		{
			name: "ledger without dsn",
			body: minimal + "registrations:\n  backend: \"ledger\"\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestMustLoadPath_Panics(t *testing.T) {
	assert.Panics(t, func() { MustLoadPath("/nonexistent/config.yaml") })
}
