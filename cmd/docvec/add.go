package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/docvecdev/docvec"
	"github.com/docvecdev/docvec/application/service"
)

const timeRound = 100 * time.Millisecond

func addCmd() *cobra.Command {
	var (
		envFile string
		branch  string
		tag     string
		folders []string
	)

	cmd := &cobra.Command{
		Use:   "add <owner/repo>",
		Short: "Index a library's documentation",
		Long: `Index a GitHub repository's documentation as searchable snippets.

Fetches the repository's markdown files, extracts code snippets with an
LLM, embeds them, and stores metadata plus vectors locally. Re-adding a
library replaces its previous index.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := branch
			if tag != "" {
				ref = tag
			}
			return runAdd(cmd, envFile, args[0], ref, folders)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch to index (default: default branch)")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag to index (default: default branch)")
	cmd.Flags().StringSliceVar(&folders, "folders", nil, "Restrict indexing to these folders")
	cmd.MarkFlagsMutuallyExclusive("branch", "tag")

	return cmd
}

func runAdd(cmd *cobra.Command, envFile, name, ref string, folders []string) error {
	client, logger, err := newClient(envFile)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	if client.Ingest == nil {
		return docvec.ErrNoIngest
	}

	var opts []service.AddOption
	if ref != "" {
		opts = append(opts, service.WithRef(ref))
	}
	if len(folders) > 0 {
		opts = append(opts, service.WithFolders(folders...))
	}

	summary, err := client.Ingest.Add(cmd.Context(), name, opts...)
	if err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}

	fmt.Printf("Indexed %s @ %.12s\n", summary.LibraryName(), summary.CommitSHA())
	fmt.Printf("  files:    %d (%d failed)\n", summary.FileCount(), summary.FailedFiles())
	fmt.Printf("  snippets: %d (%d dropped)\n", summary.SnippetCount(), summary.DroppedSnippets())
	fmt.Printf("  model:    %s/%s (%d -> %d dims)\n",
		summary.Provider(), summary.Model(), summary.EmbeddingDim(), summary.CanonicalDim())
	fmt.Printf("  vectors:  %d\n", summary.Stats().VectorCount())
	fmt.Printf("  took:     %s\n", summary.Duration().Round(timeRound))
	return nil
}

func closeClient(client *docvec.Client, logger *slog.Logger) {
	if err := client.Close(); err != nil {
		logger.Error("failed to close client", slog.Any("error", err))
	}
}
