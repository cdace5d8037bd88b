package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sgerami52009-hash/wizardai/scheduler"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8090", cfg.HTTP.ListenAddress)
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	raw := `{
		"scheduler": {"max_skip_ahead": 2},
		"telemetry": {"ring_size": 200, "optimize_keep": 50},
		"http": {"listen_address": ":9999"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scheduler.MaxSkipAhead)
	assert.Equal(t, 200, cfg.Telemetry.RingSize)
	assert.Equal(t, ":9999", cfg.HTTP.ListenAddress)

	// Untouched fields keep their defaults.
	assert.Equal(t, scheduler.DefaultConfig().TickInterval, cfg.Scheduler.TickInterval)
	assert.Equal(t, Default().HTTP.ReadTimeout, cfg.HTTP.ReadTimeout)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid.json")
	raw := `{"telemetry": {"ring_size": -1}}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	_, err := Load(path)
	assert.ErrorContains(t, err, "telemetry")
}

func TestValidateHTTPSection(t *testing.T) {
	cfg := Default()
	cfg.HTTP.ListenAddress = ""
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.HTTP.WriteTimeout = 0
	assert.Error(t, cfg.Validate())
}
