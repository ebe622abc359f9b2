package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repowiki/agent/internal/repoindex"
)

// indexCmd (re)builds the persistent full-text index for the configured
// repository without running the agent loop (spec.md §4.1).
func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the repository's full-text index",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			configureLogging(verbose)

			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}

			idx, err := repoindex.Open(repoindex.DefaultDBPath(cfg.RepoRoot))
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer idx.Close()

			stats, err := idx.IndexRepository(cmd.Context(), cfg.RepoRoot)
			if err != nil {
				return fmt.Errorf("index repository: %w", err)
			}

			fmt.Printf("Indexed %d file(s), skipped %d.\n", stats.Indexed, stats.Skipped)
			return nil
		},
	}
}
