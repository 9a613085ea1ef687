package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/tradebook/internal/backend"
	"github.com/ziadkadry99/tradebook/internal/config"
	"github.com/ziadkadry99/tradebook/internal/logging"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `tradebook init` to create a config file", err)
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the config.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log.Level, string(cfg.Log.Format))
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

// newBackendClient creates the anon backend client shared by all requests.
func newBackendClient(cfg *config.Config, logger *zap.Logger) (*backend.Client, error) {
	client, err := backend.New(cfg.Backend.URL, cfg.Backend.AnonKey, backend.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("creating backend client: %w", err)
	}
	return client, nil
}
