package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/docvecdev/docvec/application/service"
	"github.com/docvecdev/docvec/domain/snippet"
)

func getCmd() *cobra.Command {
	var (
		envFile       string
		limit         int
		crossProvider bool
	)

	cmd := &cobra.Command{
		Use:   "get <owner/repo> [topic]",
		Short: "Retrieve documentation snippets for a topic",
		Long: `Retrieve an indexed library's code snippets ranked by relevance to a
topic, best match first. Without a topic, snippets are listed in the
order they were indexed.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := ""
			if len(args) == 2 {
				topic = args[1]
			}
			return runGet(cmd, envFile, args[0], topic, limit, crossProvider)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().IntVarP(&limit, "limit", "k", 0, "Maximum number of snippets to return")
	cmd.Flags().BoolVar(&crossProvider, "cross-provider", false, "Include snippets indexed with any embedding provider")

	return cmd
}

func runGet(cmd *cobra.Command, envFile, name, topic string, limit int, crossProvider bool) error {
	client, logger, err := newClient(envFile)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	if topic == "" {
		snippets, err := client.Search.Browse(cmd.Context(), name, limit)
		if err != nil {
			return fmt.Errorf("get %s: %w", name, err)
		}
		if len(snippets) == 0 {
			fmt.Printf("No snippets indexed for %s.\n", name)
			return nil
		}
		for i, sn := range snippets {
			if i > 0 {
				fmt.Println()
			}
			printSnippet(sn, -1)
		}
		return nil
	}

	var opts []service.SearchOption
	if limit > 0 {
		opts = append(opts, service.WithLimit(limit))
	}
	if crossProvider {
		opts = append(opts, service.WithCrossProvider(true))
	}

	scored, err := client.Search.Query(cmd.Context(), name, topic, opts...)
	if err != nil {
		return fmt.Errorf("get %s: %w", name, err)
	}

	if len(scored) == 0 {
		fmt.Printf("No snippets found in %s for %q.\n", name, topic)
		return nil
	}

	for i, sc := range scored {
		if i > 0 {
			fmt.Println()
		}
		printSnippet(sc.Snippet(), sc.Similarity())
	}
	return nil
}

// printSnippet writes one snippet to stdout. A negative score means the
// snippet was browsed, not ranked, and no score is shown.
func printSnippet(sn snippet.Snippet, score float64) {
	if score < 0 {
		fmt.Printf("%s  (%s)\n", sn.Title(), sn.Path())
	} else {
		fmt.Printf("%s  (%s, score %.3f)\n", sn.Title(), sn.Path(), score)
	}
	if sn.Description() != "" {
		fmt.Printf("  %s\n", sn.Description())
	}
	fmt.Printf("```%s\n%s\n```\n", sn.Language(), sn.Content())
}
