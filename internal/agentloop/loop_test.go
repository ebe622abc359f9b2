package agentloop

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repowiki/agent/internal/config"
	"github.com/repowiki/agent/internal/provider"
)

// scriptedProvider replays a fixed sequence of responses, one per Chat
// call, mirroring the literal "Provider script" scenarios in spec.md §8.
type scriptedProvider struct {
	responses []provider.ChatResponse
	calls     int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(ctx context.Context, req provider.ChatRequest) (*provider.ChatResponse, error) {
	if p.calls >= len(p.responses) {
		return &provider.ChatResponse{AssistantText: "DONE\n\nOut of script.\n\n## Sources\n- `foo.ts`:1-1"}, nil
	}
	resp := p.responses[p.calls]
	p.calls++
	return &resp, nil
}

func writeRepoFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func tenLineFile() string {
	s := ""
	for i := 1; i <= 10; i++ {
		s += fmt.Sprintf("line %d\n", i)
	}
	return s
}

// TestHappyPath mirrors spec.md §8 scenario 1: one get_excerpt call
// followed by a DONE answer with a single valid citation.
func TestHappyPath(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "foo.ts", tenLineFile())

	p := &scriptedProvider{responses: []provider.ChatResponse{
		{
			ToolInvocations: []provider.ToolInvocation{
				{ID: "call-1", Name: "get_excerpt", ArgumentsJSON: `{"path":"foo.ts","startLine":1,"endLine":5}`},
			},
			FinishReason: provider.FinishToolCalls,
		},
		{
			AssistantText: "DONE\n\nAnswer.\n\n## Sources\n- `foo.ts`:1-5",
			FinishReason:  provider.FinishStop,
		},
	}}

	res, err := Run(context.Background(), Config{
		RepoRoot: root,
		Question: "What does foo.ts do?",
		Provider: p,
		Budgets:  config.DefaultBudgets(),
	})
	require.NoError(t, err)
	require.True(t, res.Verified)
	require.Len(t, res.VerifiedCitations, 1)
	require.Equal(t, "foo.ts", res.VerifiedCitations[0].Path)
	require.Equal(t, 1, res.VerifiedCitations[0].StartLine)
	require.Equal(t, 5, res.VerifiedCitations[0].EndLine)
	require.Len(t, res.Steps, 2)
}

// TestRepairThenSuccess mirrors spec.md §8 scenario 2: a first DONE answer
// citing a missing file fails verification and triggers a repair
// iteration before a second DONE answer succeeds.
func TestRepairThenSuccess(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "foo.ts", "line 1\nline 2\nline 3\n")

	p := &scriptedProvider{responses: []provider.ChatResponse{
		{
			ToolInvocations: []provider.ToolInvocation{
				{ID: "call-1", Name: "search_chunks", ArgumentsJSON: `{"query":"x","topK":1}`},
			},
			FinishReason: provider.FinishToolCalls,
		},
		{
			AssistantText: "DONE\n\nAnswer.\n\n## Sources\n- `missing.ts`:1-2",
			FinishReason:  provider.FinishStop,
		},
		{
			ToolInvocations: []provider.ToolInvocation{
				{ID: "call-2", Name: "get_excerpt", ArgumentsJSON: `{"path":"foo.ts","startLine":1,"endLine":3}`},
			},
			FinishReason: provider.FinishToolCalls,
		},
		{
			AssistantText: "DONE\n\nAnswer.\n\n## Sources\n- `foo.ts`:1-3",
			FinishReason:  provider.FinishStop,
		},
	}}

	res, err := Run(context.Background(), Config{
		RepoRoot: root,
		Question: "What does foo.ts do?",
		Provider: p,
		Budgets:  config.DefaultBudgets(),
	})
	require.NoError(t, err)
	require.True(t, res.Verified)
	require.Len(t, res.Steps, 4)

	sawFailedVerify := false
	for _, s := range res.Steps {
		if s.VerifierPassed != nil && !*s.VerifierPassed {
			sawFailedVerify = true
		}
	}
	require.True(t, sawFailedVerify)
}

// TestStepExhaustion mirrors spec.md §8 scenario 4: the provider never
// emits DONE, so the loop exhausts maxSteps=2 and falls back.
func TestStepExhaustion(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "foo.ts", tenLineFile())

	p := &scriptedProvider{responses: []provider.ChatResponse{
		{AssistantText: "Still thinking...", FinishReason: provider.FinishStop},
		{AssistantText: "Still thinking some more...", FinishReason: provider.FinishStop},
		{AssistantText: "Here is my best guess, no sources.", FinishReason: provider.FinishStop},
	}}

	budgets := config.DefaultBudgets()
	budgets.MaxSteps = 2

	res, err := Run(context.Background(), Config{
		RepoRoot: root,
		Question: "What does foo.ts do?",
		Provider: p,
		Budgets:  budgets,
	})
	require.NoError(t, err)
	require.False(t, res.Verified)
	require.Equal(t, "Max steps exceeded", res.Error)
	require.Contains(t, res.AnswerMarkdown, "## Sources")
	require.Contains(t, res.AnswerMarkdown, "(No verified sources available)")
	require.LessOrEqual(t, len(res.Steps), budgets.MaxSteps+1)
}

// TestUnknownToolDoesNotTerminate mirrors spec.md §8 scenario 5.
func TestUnknownToolDoesNotTerminate(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "foo.ts", tenLineFile())

	p := &scriptedProvider{responses: []provider.ChatResponse{
		{
			ToolInvocations: []provider.ToolInvocation{
				{ID: "call-1", Name: "frobnicate", ArgumentsJSON: `{}`},
			},
			FinishReason: provider.FinishToolCalls,
		},
		{
			AssistantText: "DONE\n\nAnswer.\n\n## Sources\n- `foo.ts`:1-1",
			FinishReason:  provider.FinishStop,
		},
	}}

	res, err := Run(context.Background(), Config{
		RepoRoot: root,
		Question: "q",
		Provider: p,
		Budgets:  config.DefaultBudgets(),
	})
	require.NoError(t, err)
	require.True(t, res.Verified)
}

// TestPathEscapeCitationRejected mirrors spec.md §8 scenario 3: a citation
// outside the repository root fails verification without reading the
// escaped path.
func TestPathEscapeCitationRejected(t *testing.T) {
	root := t.TempDir()
	writeRepoFile(t, root, "foo.ts", tenLineFile())

	p := &scriptedProvider{responses: []provider.ChatResponse{
		{AssistantText: "DONE\n\nAnswer.\n\n## Sources\n- `../etc/passwd`:1-1", FinishReason: provider.FinishStop},
		{AssistantText: "DONE\n\nAnswer.\n\n## Sources\n- `foo.ts`:1-1", FinishReason: provider.FinishStop},
	}}

	res, err := Run(context.Background(), Config{
		RepoRoot: root,
		Question: "q",
		Provider: p,
		Budgets:  config.DefaultBudgets(),
	})
	require.NoError(t, err)
	require.True(t, res.Verified)
	require.Len(t, res.VerifiedCitations, 1)
	require.Equal(t, "foo.ts", res.VerifiedCitations[0].Path)
}
