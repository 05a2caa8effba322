package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete server configuration
type Config struct {
	Server     Settings           `hcl:"server,block"`
	Simulation SimulationSettings `hcl:"simulation,block"`
}

// Settings contains server-level configuration
type Settings struct {
	Address   string  `hcl:"address,optional"`
	Port      int     `hcl:"port,optional"`
	LogLevel  string  `hcl:"log_level,optional"`
	RateLimit float64 `hcl:"rate_limit,optional"` // simulation requests per second
	RateBurst int     `hcl:"rate_burst,optional"`
}

// SimulationSettings bounds what a single API request may ask for.
type SimulationSettings struct {
	MaxIterations int `hcl:"max_iterations,optional"`
	Workers       int `hcl:"workers,optional"`
}

// DefaultConfig returns default server configuration
func DefaultConfig() *Config {
	return &Config{
		Server: Settings{
			Address:   "localhost",
			Port:      8080,
			LogLevel:  "info",
			RateLimit: 2,
			RateBurst: 5,
		},
		Simulation: SimulationSettings{
			MaxIterations: 200_000,
		},
	}
}

// LoadConfig loads server configuration from an HCL file. A missing file
// yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	// Apply defaults for missing values
	defaults := DefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = defaults.Server.Address
	}
	if config.Server.Port == 0 {
		config.Server.Port = defaults.Server.Port
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Server.RateLimit == 0 {
		config.Server.RateLimit = defaults.Server.RateLimit
	}
	if config.Server.RateBurst == 0 {
		config.Server.RateBurst = defaults.Server.RateBurst
	}
	if config.Simulation.MaxIterations == 0 {
		config.Simulation.MaxIterations = defaults.Simulation.MaxIterations
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative: %f", c.Server.RateLimit)
	}
	if c.Server.RateBurst < 0 {
		return fmt.Errorf("rate burst must be non-negative: %d", c.Server.RateBurst)
	}
	if c.Simulation.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be positive: %d", c.Simulation.MaxIterations)
	}
	if c.Simulation.Workers < 0 {
		return fmt.Errorf("workers must be non-negative: %d", c.Simulation.Workers)
	}
	return nil
}

// ListenAddress returns the full listen address
func (c *Config) ListenAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
