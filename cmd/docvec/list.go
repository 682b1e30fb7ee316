package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func listCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List indexed libraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, envFile)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}

func runList(cmd *cobra.Command, envFile string) error {
	client, logger, err := newClient(envFile)
	if err != nil {
		return err
	}
	defer closeClient(client, logger)

	libs, err := client.Libraries.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("list libraries: %w", err)
	}

	if len(libs) == 0 {
		fmt.Println("No libraries indexed. Run 'docvec add <owner/repo>' to index one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LIBRARY\tCOMMIT\tFILES\tSNIPPETS\tINDEXED")
	for _, lib := range libs {
		fmt.Fprintf(w, "%s\t%.12s\t%d\t%d\t%s\n",
			lib.Name(),
			lib.CommitSHA(),
			lib.FileCount(),
			lib.SnippetCount(),
			lib.CreatedAt().Format("2006-01-02"),
		)
	}
	return w.Flush()
}
