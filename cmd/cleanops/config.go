package main

import (
	"fmt"

	"github.com/jonathan/cleanops/internal/config"
	"github.com/jonathan/cleanops/internal/logging"
	"go.uber.org/zap"
)

// loadConfig layers the environment over the optional --config file over the
// built-in defaults, then validates the result.
func loadConfig() (*config.Config, error) {
	env, err := config.FromEnv()
	if err != nil {
		return nil, err
	}

	merged := *env
	if configPath != "" {
		file, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		merged = env.MergeWithDefaults(*file)
	}

	cfg := merged.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func requireDatabaseURL(cfg *config.Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	return nil
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}
