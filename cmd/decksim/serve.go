package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/lox/decksim/cmd/decksim/shared"
	"github.com/lox/decksim/internal/server"
)

// ServeCmd runs the HTTP API server
type ServeCmd struct {
	Config string `kong:"default='decksim.hcl',help='Path to the HCL configuration file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	// Environment overrides are loaded before the config file is read.
	_ = godotenv.Load()

	logger := shared.SetupLogger(c.Debug || os.Getenv("DECKSIM_DEBUG") == "1")

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}
	if addr := os.Getenv("DECKSIM_ADDRESS"); addr != "" {
		cfg.Server.Address = addr
	}
	if port := os.Getenv("DECKSIM_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			logger.Warn("Ignoring invalid DECKSIM_PORT", "value", port)
		} else {
			cfg.Server.Port = p
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	s := server.NewServer(cfg, logger)

	logger.Info("Starting decksim server",
		"addr", cfg.ListenAddress(),
		"rate_limit", cfg.Server.RateLimit,
		"max_iterations", cfg.Simulation.MaxIterations)

	ctx := shared.SetupSignalHandlerWithLogger(logger)

	serverErr := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-serverErr:
		return err
	}
}
