package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("METADATA_BASE_URL", "http://meta.local")
	t.Setenv("REFRESH_INTERVAL", "15m")
	t.Setenv("REFRESH_ATTEMPTS", "5")
	t.Setenv("DETAIL_WORKERS", "8")
	t.Setenv("ENRICH_ARTWORK", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://meta.local", cfg.Metadata.BaseURL)
	assert.Equal(t, 15*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, 5, cfg.Refresh.Attempts)
	assert.Equal(t, 8, cfg.Refresh.DetailWorkers)
	assert.True(t, cfg.Refresh.EnrichArtwork)
	// untouched defaults
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.Refresh.RetryDelay)
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
http_addr: ":9090"
metadata:
  base_url: "http://from-file"
  country: "PT"
refresh:
  interval: 2h
  retry_delay: 10s
email:
  smtp_host: smtp.local
  recipient: ops@example.com
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("METADATA_BASE_URL", "http://from-env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "http://from-env", cfg.Metadata.BaseURL)
	assert.Equal(t, "PT", cfg.Metadata.Country)
	assert.Equal(t, 2*time.Hour, cfg.Refresh.Interval)
	assert.Equal(t, 10*time.Second, cfg.Refresh.RetryDelay)
	assert.True(t, cfg.Email.Enabled())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("METADATA_BASE_URL", "http://meta.local")
	t.Setenv("REFRESH_ATTEMPTS", "three")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REFRESH_ATTEMPTS")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "METADATA_BASE_URL")

	cfg.Metadata.BaseURL = "http://meta.local"
	require.NoError(t, cfg.Validate())

	cfg.Refresh.Attempts = 0
	cfg.Refresh.DetailWorkers = -1
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attempts")
	assert.Contains(t, err.Error(), "workers")
}

func TestLoadZeroRateLimitMeansUnlimited(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("METADATA_BASE_URL", "http://meta.local")
	t.Setenv("METADATA_RATE_LIMIT", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.Metadata.RateLimit)

	cfg.Metadata.RateLimit = -1
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestEmailUsername(t *testing.T) {
	e := EmailConfig{SenderEmail: "catalog@example.com"}
	assert.Equal(t, "catalog@example.com", e.Username())

	e.SMTPUsername = "api"
	assert.Equal(t, "api", e.Username())
}

func TestLoadEmailUsernameFromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("METADATA_BASE_URL", "http://meta.local")
	t.Setenv("EMAIL_SENDER", "catalog@example.com")
	t.Setenv("EMAIL_USERNAME", "relay-user")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "relay-user", cfg.Email.Username())
}

func TestEmailEnabled(t *testing.T) {
	assert.False(t, EmailConfig{}.Enabled())
	assert.False(t, EmailConfig{SMTPHost: "smtp.local"}.Enabled())
	assert.True(t, EmailConfig{SMTPHost: "smtp.local", RecipientEmail: "a@b.c"}.Enabled())
}
