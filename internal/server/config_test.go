package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), config)
	require.NoError(t, config.Validate())
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.hcl")
	content := `
server {
  address    = "0.0.0.0"
  port       = 9090
  log_level  = "debug"
  rate_limit = 10
}

simulation {
  max_iterations = 50000
  workers        = 4
}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", config.Server.Address)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "debug", config.Server.LogLevel)
	assert.Equal(t, 10.0, config.Server.RateLimit)
	assert.Equal(t, 50000, config.Simulation.MaxIterations)
	assert.Equal(t, 4, config.Simulation.Workers)
	// Unset values fall back to defaults.
	assert.Equal(t, DefaultConfig().Server.RateBurst, config.Server.RateBurst)
	assert.Equal(t, "0.0.0.0:9090", config.ListenAddress())
}

func TestLoadConfig_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.hcl")
	require.NoError(t, os.WriteFile(path, []byte("server {"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too low", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }},
		{"negative rate burst", func(c *Config) { c.Server.RateBurst = -1 }},
		{"zero max iterations", func(c *Config) { c.Simulation.MaxIterations = 0 }},
		{"negative workers", func(c *Config) { c.Simulation.Workers = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}
