// Package agentloop implements the Agent Loop (C5): the step-bounded state
// machine that alternates LLM turns with tool-execution turns, maintains a
// conversation transcript, detects termination via the DONE sentinel, and
// repairs answers that fail source verification. Adapted from the
// teacher's session/prompt turn-loop shape (internal/session/session.go's
// message/part accounting), generalized from DCode's general-purpose
// tool-calling turn into the narrower, verification-gated loop spec.md §4.5
// describes.
package agentloop

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/repowiki/agent/internal/config"
	"github.com/repowiki/agent/internal/promptspec"
	"github.com/repowiki/agent/internal/provider"
	"github.com/repowiki/agent/internal/repoindex"
	"github.com/repowiki/agent/internal/tool"
	"github.com/repowiki/agent/internal/verifier"
)

// Config is the Agent Loop's input (spec.md §4.5 "Inputs").
type Config struct {
	RepoRoot    string
	Question    string
	Provider    provider.LLMProvider
	Budgets     config.Budgets
	Temperature float64
	MaxTokens   int
}

// Result is the Agent Run Result (spec.md §3).
type Result struct {
	AnswerMarkdown    string
	Steps             []Step
	VerifiedCitations []verifier.Citation
	Verified          bool
	TotalMillis       int64
	Error             string
}

// Run drives one agent run to completion: it opens a fresh per-run
// repository index, indexes the tree, builds the tool registry, and
// iterates LLM/tool turns until a verified DONE answer, budget exhaustion,
// a provider error, or caller cancellation (spec.md §4.5, §5, §7).
func Run(ctx context.Context, cfg Config) (*Result, error) {
	started := time.Now()

	budgets := cfg.Budgets
	if budgets.MaxSteps <= 0 {
		budgets = config.DefaultBudgets()
	}

	idx, err := repoindex.Open(repoindex.DefaultDBPath(cfg.RepoRoot))
	if err != nil {
		return nil, fmt.Errorf("agentloop: open index: %w", err)
	}
	defer idx.Close() // Index exclusively owns the DB handle; closed exactly once on teardown.

	if _, err := idx.IndexRepository(ctx, cfg.RepoRoot); err != nil {
		return nil, fmt.Errorf("agentloop: index repository: %w", err)
	}

	registry := tool.NewRegistry()
	if err := tool.RegisterAll(registry, budgets.MaxExcerptLines); err != nil {
		return nil, fmt.Errorf("agentloop: register tools: %w", err)
	}

	toolCtx := &tool.ToolContext{RepoRoot: cfg.RepoRoot, Index: idx}

	l := &loopState{
		cfg:      cfg,
		budgets:  budgets,
		registry: registry,
		toolCtx:  toolCtx,
	}

	systemPrompt := promptspec.Build(registry.ToolSchemas(), budgets.MaxSteps, budgets.MaxExcerptLines)
	l.transcript = []provider.ChatMessage{
		{Role: provider.RoleSystem, Content: systemPrompt},
		{Role: provider.RoleUser, Content: cfg.Question},
	}

	result := l.run(ctx)
	result.TotalMillis = time.Since(started).Milliseconds()
	return result, nil
}

// loopState carries the Agent Loop's run-scoped state (spec.md §4.5
// "State"): the transcript, the step log, the current step counter, and
// the crumbs of evidence gathered for the forced-termination fallback.
type loopState struct {
	cfg      Config
	budgets  config.Budgets
	registry *tool.Registry
	toolCtx  *tool.ToolContext

	transcript       []provider.ChatMessage
	steps            []Step
	stepNo           int
	gatheredEvidence []string
}

func (l *loopState) run(ctx context.Context) *Result {
	for l.stepNo < l.budgets.MaxSteps {
		if err := ctx.Err(); err != nil {
			return l.terminateWithError("cancelled: " + err.Error())
		}

		l.stepNo++
		stepStart := time.Now()

		resp, err := l.cfg.Provider.Chat(ctx, provider.ChatRequest{
			Messages:    l.transcript,
			Tools:       l.registry.ToolSchemas(),
			ToolChoice:  "auto",
			Temperature: l.cfg.Temperature,
			MaxTokens:   l.cfg.MaxTokens,
		})
		if err != nil {
			l.steps = append(l.steps, Step{
				StepNo:              l.stepNo,
				ModelMessageSummary: "provider error: " + err.Error(),
				ElapsedMillis:       time.Since(stepStart).Milliseconds(),
			})
			log.Error().Err(err).Int("step", l.stepNo).Msg("agent loop: provider error")
			return l.terminateWithError(err.Error())
		}

		switch {
		case len(resp.ToolInvocations) > 0:
			l.runTools(ctx, resp)
			continue

		case isDoneContent(resp.AssistantText):
			if done, final := l.handleDone(resp.AssistantText, stepStart); done {
				return final
			}
			continue

		default:
			l.steps = append(l.steps, Step{
				StepNo:              l.stepNo,
				ModelMessageSummary: headClip(resp.AssistantText, stepLogHeadChars),
				ElapsedMillis:       time.Since(stepStart).Milliseconds(),
			})
			l.transcript = append(l.transcript, provider.ChatMessage{
				Role:    provider.RoleAssistant,
				Content: resp.AssistantText,
			})
		}
	}

	return l.forcedTermination(ctx)
}

// runTools dispatches one step's tool invocations through the registry, in
// emission order and serially (spec.md §5): parallel tool execution is
// disallowed so each result may depend deterministically on the previous.
func (l *loopState) runTools(ctx context.Context, resp *provider.ChatResponse) {
	l.transcript = append(l.transcript, provider.ChatMessage{
		Role:            provider.RoleAssistant,
		Content:         resp.AssistantText,
		ToolInvocations: resp.ToolInvocations,
	})

	for i, inv := range resp.ToolInvocations {
		if i > 0 {
			// Cancellation is observed between sequential tool invocations
			// within a step, not mid-handler (spec.md §5).
			if err := ctx.Err(); err != nil {
				break
			}
		}

		callStart := time.Now()
		result := l.registry.ExecuteCall(ctx, l.toolCtx, inv.Name, inv.ArgumentsJSON)
		truncated := truncateToolOutput(result.OutputSummary, l.budgets.MaxToolOutputChars)

		l.transcript = append(l.transcript, provider.ChatMessage{
			Role:       provider.RoleTool,
			Content:    truncated,
			ToolCallID: inv.ID,
		})

		if result.Success {
			l.gatheredEvidence = append(l.gatheredEvidence, fmt.Sprintf("%s(%s) -> %s", inv.Name, headClip(inv.ArgumentsJSON, 120), headClip(truncated, 200)))
		}

		l.steps = append(l.steps, Step{
			StepNo:            l.stepNo,
			ToolName:          inv.Name,
			ToolInputJSON:     inv.ArgumentsJSON,
			OutputSummaryHead: headClip(truncated, stepLogHeadChars),
			ElapsedMillis:     time.Since(callStart).Milliseconds(),
		})

		log.Debug().Str("tool", inv.Name).Int("step", l.stepNo).Bool("success", result.Success).Msg("agent loop: tool dispatched")
	}
}

// handleDone classifies a DONE response: it extracts the candidate answer,
// verifies it against the filesystem, and either finalizes the run or
// appends a repair iteration (spec.md §4.4, §4.5). The returned bool
// reports whether the run is finished.
func (l *loopState) handleDone(content string, stepStart time.Time) (bool, *Result) {
	answer := extractAnswer(content)
	vr := verifier.Verify(l.cfg.RepoRoot, answer)
	passed := vr.Valid

	l.steps = append(l.steps, Step{
		StepNo:              l.stepNo,
		ModelMessageSummary: headClip(answer, stepLogHeadChars),
		ElapsedMillis:       time.Since(stepStart).Milliseconds(),
		IsDone:              true,
		VerifierPassed:      &passed,
		VerifierErrors:      vr.Errors,
	})

	if vr.Valid {
		return true, &Result{
			AnswerMarkdown:    answer,
			Steps:             l.steps,
			VerifiedCitations: vr.Citations,
			Verified:          true,
		}
	}

	// Repair: the rejected reply stays in the transcript as an assistant
	// turn, followed by a repair prompt enumerating what failed
	// (spec.md §4.4 "Repair prompt").
	l.transcript = append(l.transcript,
		provider.ChatMessage{Role: provider.RoleAssistant, Content: content},
		provider.ChatMessage{Role: provider.RoleUser, Content: verifier.RepairPrompt(vr.Errors)},
	)
	return false, nil
}

// forcedTermination runs the final best-effort LLM call once the step
// budget is exhausted without a verified DONE answer (spec.md §4.5).
func (l *loopState) forcedTermination(ctx context.Context) *Result {
	l.stepNo++
	stepStart := time.Now()

	resp, err := l.cfg.Provider.Chat(ctx, provider.ChatRequest{
		Messages:    append(l.transcript, provider.ChatMessage{Role: provider.RoleUser, Content: promptspec.TerminationPrompt(l.gatheredEvidence)}),
		Tools:       nil,
		ToolChoice:  "none",
		Temperature: l.cfg.Temperature,
		MaxTokens:   l.cfg.MaxTokens,
	})

	const maxStepsError = "Max steps exceeded"

	if err != nil {
		l.steps = append(l.steps, Step{
			StepNo:              l.stepNo,
			ModelMessageSummary: "provider error during forced termination: " + err.Error(),
			ElapsedMillis:       time.Since(stepStart).Milliseconds(),
			IsDone:              true,
		})
		return &Result{
			AnswerMarkdown: fallbackAnswer(l.gatheredEvidence),
			Steps:          l.steps,
			Verified:       false,
			Error:          maxStepsError,
		}
	}

	candidate := resp.AssistantText
	if isDoneContent(candidate) {
		candidate = extractAnswer(candidate)
	}
	vr := verifier.Verify(l.cfg.RepoRoot, candidate)
	passed := vr.Valid

	l.steps = append(l.steps, Step{
		StepNo:              l.stepNo,
		ModelMessageSummary: headClip(candidate, stepLogHeadChars),
		ElapsedMillis:       time.Since(stepStart).Milliseconds(),
		IsDone:              true,
		VerifierPassed:      &passed,
		VerifierErrors:      vr.Errors,
	})

	answer := candidate
	if !vr.Valid {
		answer = fallbackAnswer(l.gatheredEvidence)
	}

	return &Result{
		AnswerMarkdown:    answer,
		Steps:             l.steps,
		VerifiedCitations: vr.Citations,
		Verified:          vr.Valid,
		Error:             maxStepsError,
	}
}

func (l *loopState) terminateWithError(message string) *Result {
	return &Result{
		AnswerMarkdown: fallbackAnswer(l.gatheredEvidence),
		Steps:          l.steps,
		Verified:       false,
		Error:          message,
	}
}

// isDoneContent implements the canonical DONE-detection rule this
// implementation chose among the two the spec documents as an open
// question (spec.md §9): a leading "DONE" marker, optionally after
// whitespace. The forgiving "any content with a ## Sources and a backtick"
// fallback is deliberately not honored — see DESIGN.md for the rationale.
func isDoneContent(content string) bool {
	return strings.HasPrefix(strings.TrimSpace(content), "DONE")
}

// extractAnswer strips the DONE marker and surrounding whitespace, leaving
// the candidate final-answer markdown (spec.md §4.5).
func extractAnswer(content string) string {
	trimmed := strings.TrimLeft(content, " \t\n\r")
	trimmed = strings.TrimPrefix(trimmed, "DONE")
	return strings.TrimLeft(trimmed, " \t\n\r")
}

// fallbackAnswer synthesizes a best-effort answer from gathered evidence
// when no verified citation could be produced (spec.md §4.5, §8 scenario 4):
// its Sources section carries the literal "(No verified sources available)"
// marker rather than fabricated citations.
func fallbackAnswer(evidence []string) string {
	var b strings.Builder
	b.WriteString("I was unable to produce a fully verified answer within the step budget.\n\n")
	if len(evidence) == 0 {
		b.WriteString("No evidence was gathered during this run.\n")
	} else {
		b.WriteString("Evidence gathered:\n")
		for _, e := range evidence {
			b.WriteString("- ")
			b.WriteString(e)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n## Sources\n(No verified sources available)\n")
	return b.String()
}
