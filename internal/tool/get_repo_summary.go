package tool

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/repowiki/agent/internal/repoindex"
)

// GetRepoSummaryDef is the get_repo_summary tool descriptor (spec.md §4.3):
// a cheap, index-only overview of language distribution and top-level
// directory structure, intended to orient the model early in a run before
// it spends its step budget on search_chunks calls.
func GetRepoSummaryDef() *ToolDef {
	return &ToolDef{
		Name:           "get_repo_summary",
		Description:    "Summarize the indexed repository: file and line counts, language breakdown, and top-level directories.",
		ArgumentSchema: map[string]interface{}{"type": "object", "additionalProperties": false},
		Execute:        executeGetRepoSummary,
	}
}

func executeGetRepoSummary(ctx context.Context, tc *ToolContext, args map[string]interface{}) (*ToolResult, error) {
	paths, err := tc.Index.ListFiles(ctx, "", "")
	if err != nil {
		return nil, fmt.Errorf("get_repo_summary: %w", err)
	}

	languageCounts := map[string]int{}
	topDirCounts := map[string]int{}
	totalLines := 0
	for _, p := range paths {
		languageCounts[repoindex.DetectLanguage(p)]++
		if dir := path.Dir(p); dir != "." {
			topDirCounts[strings.SplitN(dir, "/", 2)[0]]++
		}

		row, found, err := tc.Index.ReadFile(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("get_repo_summary: %w", err)
		}
		if found {
			totalLines += strings.Count(row.Content, "\n") + 1
		}
	}

	languages := rankCounts(languageCounts)
	topDirs := rankCounts(topDirCounts)
	if len(topDirs) > 10 {
		topDirs = topDirs[:10]
	}

	name := filepath.Base(tc.RepoRoot)

	var b strings.Builder
	fmt.Fprintf(&b, "Repository: %s\n", name)
	fmt.Fprintf(&b, "Files: %d, Lines: %d\n", len(paths), totalLines)
	b.WriteString("Languages:\n")
	for _, c := range languages {
		fmt.Fprintf(&b, "- %s: %d\n", c.name, c.n)
	}
	b.WriteString("Top-level directories:\n")
	for _, c := range topDirs {
		fmt.Fprintf(&b, "- %s: %d file(s)\n", c.name, c.n)
	}

	topDirNames := make([]string, len(topDirs))
	for i, c := range topDirs {
		topDirNames[i] = c.name
	}

	return &ToolResult{
		Success: true,
		Data: map[string]interface{}{
			"name":           name,
			"totalFiles":     len(paths),
			"totalLines":     totalLines,
			"languages":      languageCounts,
			"topDirectories": topDirNames,
		},
		OutputSummary: b.String(),
	}, nil
}

type countEntry struct {
	name string
	n    int
}

func rankCounts(m map[string]int) []countEntry {
	out := make([]countEntry, 0, len(m))
	for name, n := range m {
		out = append(out, countEntry{name, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].n != out[j].n {
			return out[i].n > out[j].n
		}
		return out[i].name < out[j].name
	})
	return out
}
