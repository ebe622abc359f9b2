// Command repowiki is the CLI front-end for the agentic code-question
// answerer (spec.md §1: "out of scope ... specified only at their
// interface"). It wires config, a provider, and internal/agentloop
// together; argument parsing follows the teacher's cobra root-command
// shape (cmd/dcode/main.go) without the TUI/spinner/rendering layer that
// is explicitly out of scope here.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/repowiki/agent/internal/config"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:           "repowiki",
		Short:         "Ask verified, citation-backed questions about a repository",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("provider", "p", "", "LLM provider (anthropic, openai, ollama, or any OpenAI-compatible server name)")
	rootCmd.PersistentFlags().StringP("model", "m", "", "Model name")
	rootCmd.PersistentFlags().String("base-url", "", "Base URL for ollama/OpenAI-compatible providers")
	rootCmd.PersistentFlags().String("repo", ".", "Repository root to operate on")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable debug logging")

	rootCmd.AddCommand(
		askCmd(),
		wikiCmd(),
		indexCmd(),
		toolsCmd(),
		versionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func configureLogging(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

// loadRunConfig layers config.Load() with the flags common to every
// subcommand that drives a run (spec.md §6: provider API keys/base URLs
// are consumed by provider adapters, not the core).
func loadRunConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if v, _ := cmd.Flags().GetString("provider"); v != "" {
		cfg.Provider = v
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Model = v
	}
	if v, _ := cmd.Flags().GetString("base-url"); v != "" {
		cfg.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("repo"); v != "" {
		cfg.RepoRoot = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Provider {
	case "anthropic", "openai", "ollama":
	default:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("provider %q is treated as an OpenAI-compatible server and needs --base-url", cfg.Provider)
		}
	}
	return cfg, nil
}

func apiKeyFromEnv(cfg *config.Config) string {
	if envVar := config.APIKeyEnvVar(cfg.Provider); envVar != "" {
		return os.Getenv(envVar)
	}
	return ""
}
