package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/repowiki/agent/internal/agentloop"
	"github.com/repowiki/agent/internal/provider"
)

// askCmd answers one question about the configured repository via the
// Agent Loop (spec.md §1 component C5), printing the verified markdown
// answer and, with --steps, the step log JSON (spec.md §6).
func askCmd() *cobra.Command {
	var showSteps bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a citation-verified question about the repository",
		Args:  cobra.ExactArgs(1),
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

			result, err := agentloop.Run(cmd.Context(), agentloop.Config{
				RepoRoot:    cfg.RepoRoot,
				Question:    args[0],
				Provider:    p,
				Budgets:     cfg.Budgets,
				Temperature: cfg.Temperature,
				MaxTokens:   cfg.MaxTokens,
			})
			if err != nil {
				return err
			}

			fmt.Println(result.AnswerMarkdown)
			if result.Error != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n(incomplete: %s)\n", result.Error)
			}

			if showSteps {
				stepsJSON, err := json.MarshalIndent(stepLogView(result.Steps), "", "  ")
				if err != nil {
					return fmt.Errorf("marshal step log: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(string(stepsJSON)))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&showSteps, "steps", false, "Print the step log as JSON after the answer")
	return cmd
}

// stepLogEntry mirrors the JSON shape spec.md §6 names for the --steps
// output path.
type stepLogEntry struct {
	StepNo              int      `json:"stepNo"`
	ToolName            string   `json:"toolName,omitempty"`
	ToolInput           string   `json:"toolInput,omitempty"`
	ToolOutputSummary   string   `json:"toolOutputSummary,omitempty"`
	ModelMessageSummary string   `json:"modelMessageSummary,omitempty"`
	ElapsedMs           int64    `json:"elapsedMs"`
	IsDone              bool     `json:"isDone"`
	VerifierPassed      *bool    `json:"verifierPassed,omitempty"`
	VerifierErrors      []string `json:"verifierErrors,omitempty"`
}

func stepLogView(steps []agentloop.Step) []stepLogEntry {
	out := make([]stepLogEntry, len(steps))
	for i, s := range steps {
		out[i] = stepLogEntry{
			StepNo:              s.StepNo,
			ToolName:            s.ToolName,
			ToolInput:           s.ToolInputJSON,
			ToolOutputSummary:   s.OutputSummaryHead,
			ModelMessageSummary: s.ModelMessageSummary,
			ElapsedMs:           s.ElapsedMillis,
			IsDone:              s.IsDone,
			VerifierPassed:      s.VerifierPassed,
			VerifierErrors:      s.VerifierErrors,
		}
	}
	return out
}
