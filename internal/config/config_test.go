package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.Server.Addr)
	assert.Equal(t, 20000, cfg.Defaults.Simulations)
	assert.Equal(t, "call", cfg.Defaults.OptionKind)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
log_level = "debug"

[server]
addr = ":8080"
read_timeout = "5s"

[defaults]
spot = 50.0
simulations = 1000
option_kind = "put"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 50.0, cfg.Defaults.Spot)
	assert.Equal(t, 1000, cfg.Defaults.Simulations)
	assert.Equal(t, "put", cfg.Defaults.OptionKind)
	// Untouched fields keep their defaults.
	assert.Equal(t, 0.2, cfg.Defaults.Volatility)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\naddr=???"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OPTIONLAB_ADDR", ":9999")
	t.Setenv("OPTIONLAB_LOG_LEVEL", "warn")
	t.Setenv("OPTIONLAB_SIMULATIONS", "5000")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 5000, cfg.Defaults.Simulations)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Defaults.Spot = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Defaults.OptionKind = "straddle"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Server.Addr = ""
	assert.Error(t, cfg.Validate())
}
