package main

import (
	"fmt"
	"log/slog"

	"github.com/docvecdev/docvec"
	"github.com/docvecdev/docvec/internal/config"
	"github.com/docvecdev/docvec/internal/log"
)

// newClient loads configuration and builds a docvec client plus its logger.
func newClient(envFile string) (*docvec.Client, *slog.Logger, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return nil, nil, err
	}

	logger := log.NewLogger(cfg)

	client, err := docvec.NewFromConfig(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("create client: %w", err)
	}
	return client, logger, nil
}

// loadConfigWithLogger loads configuration and builds just the logger, for
// commands that construct the client themselves.
func loadConfigWithLogger(envFile string) (config.AppConfig, *slog.Logger, error) {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, nil, err
	}
	return cfg, log.NewLogger(cfg), nil
}
