package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/docvecdev/docvec"
	"github.com/docvecdev/docvec/infrastructure/api"
)

func startCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server, exposing the MCP endpoint at /mcp, a read-only
libraries API under /api/v1, and a health probe at /healthz.

Configuration is loaded in the following order (later sources override
earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables:
  DOCVEC_HOST          Server host to bind to (default: 0.0.0.0)
  DOCVEC_PORT          Server port to listen on (default: 8080)
  DOCVEC_DATA_DIR      Data directory (default: ~/.docvec)
  DOCVEC_DB_URL        Database URL (default: sqlite:///{data_dir}/docvec.db)
  DOCVEC_LOG_LEVEL     Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  DOCVEC_LOG_FORMAT    Log format: pretty, json (default: pretty)
  DOCVEC_PROVIDER      Embedding provider: openai, gemini (default: openai)
  OPENAI_API_KEY       OpenAI API key (embedding and extraction)
  GEMINI_API_KEY       Gemini API key (embedding only)
  GITHUB_TOKEN         GitHub API token (raises the rate limit)`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStart(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runStart(envFile, host string, port int) error {
	cfg, logger, err := loadConfigWithLogger(envFile)
	if err != nil {
		return err
	}

	addr := cfg.Addr()
	if host != "" || port != 0 {
		if host == "" {
			host = cfg.Host()
		}
		if port == 0 {
			port = cfg.Port()
		}
		addr = fmt.Sprintf("%s:%d", host, port)
	}

	client, err := docvec.NewFromConfig(cfg, logger)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer closeClient(client, logger)

	server := api.NewServer(addr, client.Search, client.Libraries, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down server")
		cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	}()

	logger.Info("starting docvec",
		slog.String("version", version),
		slog.String("addr", addr),
		slog.String("data_dir", cfg.DataDir()),
	)
	if err := server.Start(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
