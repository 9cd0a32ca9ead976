package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFrom_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultHourlyRate, cfg.DefaultHourlyRate)
	assert.Equal(t, DefaultDaysBack, cfg.DaysBack)
	assert.Equal(t, DefaultCurrency, cfg.Currency)
	assert.False(t, cfg.IncludeUnassociated)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFrom_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `default_hourly_rate: 175.50
days_back: 14
include_unassociated: true
currency: EUR
calendar:
  ics: /tmp/calendar.ics
matching:
  proximity_window: 80
  id_length: 16
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfigFrom(path)
	require.NoError(t, err)

	assert.Equal(t, 175.50, cfg.DefaultHourlyRate)
	assert.Equal(t, 14, cfg.DaysBack)
	assert.True(t, cfg.IncludeUnassociated)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, "/tmp/calendar.ics", cfg.Calendar.ICS)
	assert.Equal(t, 80, cfg.Matching.ProximityWindow)
	assert.Equal(t, 16, cfg.Matching.IDLength)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigFrom_EnvOverrides(t *testing.T) {
	t.Setenv("DEFAULT_HOURLY_RATE", "300")
	t.Setenv("MINV_DAYS_BACK", "30")
	t.Setenv("MINV_CURRENCY", "GBP")
	t.Setenv("MINV_INCLUDE_UNASSOCIATED", "true")

	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 300.0, cfg.DefaultHourlyRate)
	assert.Equal(t, 30, cfg.DaysBack)
	assert.Equal(t, "gbp", cfg.Currency)
	assert.True(t, cfg.IncludeUnassociated)
}

func TestLoadConfigFrom_MinvEnvWinsOverLegacy(t *testing.T) {
	t.Setenv("MINV_DAYS_BACK", "30")
	t.Setenv("DAYS_BACK", "3")

	cfg, err := LoadConfigFrom(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.DaysBack)
}

func TestLoadConfigFrom_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("days_back: -1\n"), 0o600))

	_, err := LoadConfigFrom(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "days_back")
}
