package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, toml string, overrides map[string]any) *Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if toml != "" {
		require.NoError(t, os.WriteFile(path, []byte(toml), 0o600))
	}
	cfg, err := Load(Options{
		Path:       path,
		EnvFile:    filepath.Join(dir, "missing.env"),
		SkipSystem: true,
		Overrides:  overrides,
	})
	if toml == "" {
		require.Error(t, err)
		return nil
	}
	require.NoError(t, err)
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:3001/api/menu", cfg.API.BaseURL)
	assert.Equal(t, ":5174", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 290, cfg.View.TruncateAt)
	assert.InDelta(t, 0.1, cfg.View.VisibilityThreshold, 1e-9)
	assert.Equal(t, "owner", cfg.Owner.Param)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.NotEmpty(t, cfg.Server.Footer)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	cfg := load(t, `
[api]
base_url = "https://menu.example/api/menu"

[view]
truncate_at = 120
`, nil)

	assert.Equal(t, "https://menu.example/api/menu", cfg.API.BaseURL)
	assert.Equal(t, 120, cfg.View.TruncateAt)
	assert.Equal(t, ":5174", cfg.Server.Addr)
	assert.Equal(t, filepath.Join(cfg.Dir, "menuboard.log"), cfg.Log.File)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MENUBOARD_SERVER_ADDR", ":9999")
	t.Setenv("MENU_SECRET", "from-env")

	cfg := load(t, `
[server]
addr = ":8000"
`, nil)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "from-env", cfg.API.Secret)
}

func TestLoad_OverridesWin(t *testing.T) {
	t.Setenv("MENUBOARD_OUTPUT_FORMAT", "table")

	cfg := load(t, `
[output]
format = "text"
`, map[string]any{"output.format": "json"})

	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("MENUBOARD_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MENUBOARD_LOG_LEVEL") })

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(""), 0o600))

	cfg, err := Load(Options{Path: path, EnvFile: envFile, SkipSystem: true})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	load(t, "", nil)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api/menu" }},
		{"zero truncate", func(c *Config) { c.View.TruncateAt = 0 }},
		{"threshold above one", func(c *Config) { c.View.VisibilityThreshold = 1.5 }},
		{"empty owner param", func(c *Config) { c.Owner.Param = "" }},
		{"unknown output", func(c *Config) { c.Output.Format = "yaml" }},
		{"unknown log level", func(c *Config) { c.Log.Level = "trace" }},
		{"sampling rate", func(c *Config) { c.Telemetry.SamplingRate = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "logs/x.log"), expandPath("~/logs/x.log"))
	assert.Equal(t, "/var/log/x.log", expandPath("/var/log/x.log"))
}
