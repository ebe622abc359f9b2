package tool

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/repowiki/agent/internal/repoindex"
)

func newTestToolContext(t *testing.T) *ToolContext {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"hi\")\n}\n"), 0o644))

	idx, err := repoindex.Open(filepath.Join(root, ".repo-wiki", "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })

	_, err = idx.IndexRepository(context.Background(), root)
	require.NoError(t, err)

	return &ToolContext{RepoRoot: root, Index: idx}
}

func TestExecuteCallUnknownTool(t *testing.T) {
	r := NewRegistry()
	tc := newTestToolContext(t)

	result := r.ExecuteCall(context.Background(), tc, "does_not_exist", "{}")
	require.False(t, result.Success)
	require.Contains(t, result.OutputSummary, "Unknown tool")
}

func TestExecuteCallValidatesArguments(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterAll(r, 120))
	tc := newTestToolContext(t)

	result := r.ExecuteCall(context.Background(), tc, "search_chunks", "{}")
	require.False(t, result.Success)
	require.Contains(t, result.OutputSummary, "Validation failed")
}

func TestExecuteCallGetExcerptRejectsEscape(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterAll(r, 120))
	tc := newTestToolContext(t)

	result := r.ExecuteCall(context.Background(), tc, "get_excerpt", `{"path":"../../etc/passwd","startLine":1,"endLine":5}`)
	require.False(t, result.Success)
	require.Contains(t, result.OutputSummary, "not inside the repository")
}

func TestExecuteCallGetExcerptReturnsHeader(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterAll(r, 120))
	tc := newTestToolContext(t)

	result := r.ExecuteCall(context.Background(), tc, "get_excerpt", `{"path":"main.go","startLine":1,"endLine":3}`)
	require.True(t, result.Success)
	require.Contains(t, result.OutputSummary, "File: main.go (lines 1-3 of")
}

func TestToolSchemasEnumeratesAllTools(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterAll(r, 120))

	names := r.Names()
	require.ElementsMatch(t, []string{
		"search_chunks", "get_excerpt", "list_files", "graph_neighbors", "get_repo_summary",
	}, names)
	require.Len(t, r.ToolSchemas(), 5)
}
