// Package promptspec builds the Agent Loop's system prompt: the stable
// contract that tells the model which tools exist, what budgets bound the
// run, and how a final answer must be shaped (spec.md §6). Adapted from the
// teacher's agent.GetSystemPrompt/buildPromptWithContext pattern
// (internal/agent/agent.go): a fixed base template with the tool list and
// budgets substituted via fmt.Sprintf, rather than a templating engine.
package promptspec

import (
	"fmt"
	"strings"

	"github.com/repowiki/agent/internal/tool"
)

const basePromptTemplate = `You are a code-question answering agent. You answer questions about the
repository at the given root by using the tools below to search and read
its files. Every factual claim in your final answer must be backed by a
citation to a real file and line range in this repository.

## Tools

%s

## Budgets

- You have at most %d steps (LLM turns) to answer. Use them efficiently:
  prefer search_chunks or get_repo_summary to orient yourself before reading
  individual files with get_excerpt.
- get_excerpt returns at most %d lines per call; request a narrower range
  if you only need part of a file.

## Finishing

When you are ready to give your final answer, respond with a message whose
content begins with the literal word "DONE" (optionally after leading
whitespace), followed by your answer in Markdown. Do not call any tools in
the same message as DONE.

Your answer must end with a section starting exactly with "## Sources"
followed by one citation per line, each of the form:

- ` + "`<repo-relative path>`" + `:<startLine>-<endLine>

At least one citation is required. Every citation must point to a file and
line range that actually exists in the repository; invalid citations will
be rejected and you will be asked to correct them.

### Worked example

DONE

The retry helper waits with exponential backoff before re-issuing the
request.

## Sources
- ` + "`internal/provider/base.go`" + `:42-58
`

// Build renders the system prompt for one agent run, enumerating schemas
// in registration order and substituting the run's budgets.
func Build(schemas []tool.ToolSchema, maxSteps, maxExcerptLines int) string {
	var toolLines strings.Builder
	for _, s := range schemas {
		fmt.Fprintf(&toolLines, "- **%s** — %s\n", s.Name, s.Description)
	}
	return fmt.Sprintf(basePromptTemplate, strings.TrimRight(toolLines.String(), "\n"), maxSteps, maxExcerptLines)
}

// TerminationPrompt is the final forced-termination user message, listing
// the evidence gathered so far and asking for a best-effort answer
// (spec.md §4.5).
func TerminationPrompt(gatheredEvidence []string) string {
	var b strings.Builder
	b.WriteString("You have used your entire step budget. Based only on the evidence you have already gathered, give your best final answer now.\n\n")
	if len(gatheredEvidence) == 0 {
		b.WriteString("You gathered no evidence. If you cannot cite a real file and line range, say so plainly.\n")
	} else {
		b.WriteString("Evidence gathered so far:\n")
		for _, e := range gatheredEvidence {
			b.WriteString("- ")
			b.WriteString(e)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nRespond with DONE followed by your answer and a `## Sources` section if you can still support it with real citations.")
	return b.String()
}
