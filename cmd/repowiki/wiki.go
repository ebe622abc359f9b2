package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/repowiki/agent/internal/agentloop"
	"github.com/repowiki/agent/internal/provider"
)

// wikiPageTopics is the fixed set of wiki-page template prompts (spec.md
// §1: "Wiki-page template prompts" are out of scope beyond their
// interface — one question per page, answered through the same Agent
// Loop as `ask`).
var wikiPageTopics = []struct {
	slug     string
	question string
}{
	{"overview", "Give a high-level overview of what this repository does and how it is organized."},
	{"architecture", "Describe the main components of this repository and how they interact."},
	{"getting-started", "Explain how a new contributor would build, run, and test this repository."},
}

// wikiCmd generates a small set of wiki pages by running the Agent Loop
// once per fixed topic and writing each verified answer to its own
// markdown file (spec.md §1 "Wiki-page template prompts").
func wikiCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "wiki",
		Short: "Generate a small set of citation-backed wiki pages for the repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			configureLogging(verbose)

			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}

			p, err := provider.CreateProvider(cfg.Provider, apiKeyFromEnv(cfg), cfg.BaseURL, cfg.Model)
			if err != nil {
				return fmt.Errorf("construct provider: %w", err)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			for _, page := range wikiPageTopics {
				result, err := agentloop.Run(cmd.Context(), agentloop.Config{
					RepoRoot:    cfg.RepoRoot,
					Question:    page.question,
					Provider:    p,
					Budgets:     cfg.Budgets,
					Temperature: cfg.Temperature,
					MaxTokens:   cfg.MaxTokens,
				})
				if err != nil {
					return fmt.Errorf("page %s: %w", page.slug, err)
				}

				path := filepath.Join(outDir, page.slug+".md")
				if err := os.WriteFile(path, []byte(result.AnswerMarkdown), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}

				status := "verified"
				if !result.Verified {
					status = "unverified: " + result.Error
				}
				fmt.Printf("%s -> %s (%s)\n", page.slug, path, status)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&outDir, "out", "wiki", "Output directory for generated wiki pages")
	return cmd
}
