package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("PICKS_BACKEND_API_KEY", "")
	t.Setenv("NEXT_PUBLIC_FB_PIXEL_ID", "")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingRequired)
	assert.Contains(t, err.Error(), "NEXT_PUBLIC_FB_PIXEL_ID")
	assert.Contains(t, err.Error(), "PICKS_BACKEND_API_KEY")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
http:
  address: ":9000"
upstream:
  api_key: from-file
  webapp_bff_url: http://bff.local
  timeout_seconds: 3
tracking:
  fb_pixel_id: pixel-file
kafka:
  brokers: ["k1:9092"]
  repricing_topic: rp
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("PICKS_BACKEND_API_KEY", "from-env")
	t.Setenv("NEXT_PUBLIC_FB_PIXEL_ID", "")
	t.Setenv("DECISION_ENGINE_BASE_URL", "http://de.local")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTP.Address)
	assert.Equal(t, "from-env", cfg.Upstream.APIKey)
	assert.Equal(t, "pixel-file", cfg.Tracking.FBPixelID)
	assert.Equal(t, "http://de.local", cfg.Upstream.DecisionEngineURL)
	assert.Equal(t, "http://bff.local", cfg.Upstream.WebappBFFURL)
	assert.Equal(t, "https://frontend-repricing-email-import.onrender.com", cfg.Upstream.GmailImportURL)
	assert.Equal(t, int64(3), int64(cfg.Upstream.Timeout().Seconds()))
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, []string{"en", "es"}, cfg.Locale.Supported)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "rp", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=rp sslmode=disable", d.DSN())
	assert.True(t, d.Enabled())

	d = DatabaseConfig{URL: "postgres://x"}
	assert.Equal(t, "postgres://x", d.DSN())
}

func TestLoad_SkipsValidationAndFillsZeroes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
upstream:
  timeout_seconds: 0
worker:
  retention_sweep_minutes: 0
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))
	t.Setenv("PICKS_BACKEND_API_KEY", "")
	t.Setenv("NEXT_PUBLIC_FB_PIXEL_ID", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 15, cfg.Upstream.TimeoutSeconds)
	assert.Equal(t, 60, cfg.Worker.RetentionSweepMinutes)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingRequired)
}
