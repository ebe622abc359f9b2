package tool

import (
	"context"
	"fmt"
	"strings"
)

// ListFilesDef is the list_files tool descriptor (spec.md §4.3): lists
// indexed paths matching a glob pattern, capped at limit, with the
// outputSummary showing the first 20 and summarizing any remainder.
func ListFilesDef() *ToolDef {
	return &ToolDef{
		Name:        "list_files",
		Description: "List indexed file paths matching a glob pattern over the whole repository-relative path. '*' matches any run of characters including '/', '?' matches one character, and '**' behaves like '*'.",
		ArgumentSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"glob": map[string]interface{}{
					"type":        "string",
					"description": "Glob pattern, e.g. \"*.go\" (any .go file at any depth) or \"internal/*.go\".",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of matching paths to collect.",
					"minimum":     1,
					"maximum":     1000,
					"default":     100,
				},
			},
			"required":             []interface{}{"glob"},
			"additionalProperties": false,
		},
		Execute: executeListFiles,
	}
}

const listFilesSummaryHead = 20

func executeListFiles(ctx context.Context, tc *ToolContext, args map[string]interface{}) (*ToolResult, error) {
	glob, _ := args["glob"].(string)
	limit := 100
	if v, ok := args["limit"].(float64); ok && v > 0 {
		limit = int(v)
	}

	paths, err := tc.Index.ListFiles(ctx, "", glob)
	if err != nil {
		return nil, fmt.Errorf("list_files: %w", err)
	}
	if len(paths) > limit {
		paths = paths[:limit]
	}

	if len(paths) == 0 {
		return &ToolResult{Success: true, Data: paths, OutputSummary: "No matching files."}, nil
	}

	shown := paths
	remainder := 0
	if len(paths) > listFilesSummaryHead {
		shown = paths[:listFilesSummaryHead]
		remainder = len(paths) - listFilesSummaryHead
	}

	var b strings.Builder
	for _, p := range shown {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	if remainder > 0 {
		fmt.Fprintf(&b, "... and %d more file(s)\n", remainder)
	}

	return &ToolResult{Success: true, Data: paths, OutputSummary: b.String()}, nil
}
