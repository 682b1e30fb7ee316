package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/docvecdev/docvec/internal/mcp"
)

func stdioCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "stdio",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This is the transport AI assistants use to call the get-library-docs and
list-libraries tools. Logging goes to stderr; stdout carries the protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStdio(envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runStdio(envFile string) error {
	client, logger, err := newClient(envFile)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	logger.Info("starting MCP server on stdio", slog.String("version", version))

	mcpServer := mcp.NewServer(client.Search, client.Libraries, logger)
	if err := mcpServer.ServeStdio(); err != nil {
		return fmt.Errorf("mcp server error: %w", err)
	}
	return nil
}
