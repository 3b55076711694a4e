package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
version: "1.0"
mode: dev
listen: ":8080"
jwt_secret: "s3cret"
database:
  host: db.internal
  port: 3307
  user: biblio
  password: pw
  dbname: biblio
loans:
  duration_days: 21
  sweep_interval_minutes: 30
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Mode)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "db.internal", cfg.DB.Host)
	assert.Equal(t, 3307, cfg.DB.Port)
	assert.Equal(t, 21, cfg.Loans.DurationDays)
	assert.Equal(t, 30, cfg.Loans.SweepIntervalMinutes)
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
mode: dev
database:
  host: localhost
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Listen)
	assert.Equal(t, 14, cfg.Loans.DurationDays)
	assert.Zero(t, cfg.Loans.SweepIntervalMinutes)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := writeConfig(t, "mode: [unterminated")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
