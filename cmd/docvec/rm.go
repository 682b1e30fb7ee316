package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func rmCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "rm <owner/repo>",
		Short: "Remove an indexed library",
		Long:  `Remove a library from the index, deleting its snippets and vectors.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRm(cmd, envFile, args[0])
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runRm(cmd *cobra.Command, envFile, name string) error {
	client, logger, err := newClient(envFile)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	if err := client.Libraries.Remove(cmd.Context(), name); err != nil {
		return fmt.Errorf("rm %s: %w", name, err)
	}

	fmt.Printf("Removed %s\n", name)
	return nil
}
