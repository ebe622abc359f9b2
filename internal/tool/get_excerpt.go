package tool

import (
	"context"
	"fmt"
	"strings"
)

// GetExcerptDef is the get_excerpt tool descriptor (spec.md §4.3): returns a
// line-numbered excerpt of a single indexed file, clamped to the
// repository-relative path and to the file's actual line count.
func GetExcerptDef(maxExcerptLines int) *ToolDef {
	return &ToolDef{
		Name:        "get_excerpt",
		Description: "Return a line-numbered excerpt of an indexed file between startLine and endLine.",
		ArgumentSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Repository-relative file path.",
				},
				"startLine": map[string]interface{}{
					"type":        "integer",
					"description": "1-based first line to include.",
					"minimum":     1,
				},
				"endLine": map[string]interface{}{
					"type":        "integer",
					"description": "1-based last line to include.",
					"minimum":     1,
				},
			},
			"required":             []interface{}{"path", "startLine", "endLine"},
			"additionalProperties": false,
		},
		Execute: makeExecuteGetExcerpt(maxExcerptLines),
	}
}

func makeExecuteGetExcerpt(maxExcerptLines int) Handler {
	return func(ctx context.Context, tc *ToolContext, args map[string]interface{}) (*ToolResult, error) {
		path, _ := args["path"].(string)
		startArg, _ := args["startLine"].(float64)
		endArg, _ := args["endLine"].(float64)
		start := int(startArg)
		end := int(endArg)

		if _, ok := resolveContained(tc.RepoRoot, path); !ok {
			return &ToolResult{Success: false, Error: "path escapes repository root", OutputSummary: fmt.Sprintf("Path %q is not inside the repository.", path)}, nil
		}

		row, found, err := tc.Index.ReadFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("get_excerpt: %w", err)
		}
		if !found {
			return &ToolResult{Success: false, Error: "file not indexed", OutputSummary: fmt.Sprintf("File %q is not in the index.", path)}, nil
		}

		lines := strings.Split(row.Content, "\n")
		lineCount := len(lines)

		if start < 1 {
			start = 1
		}
		if end < start {
			end = start
		}
		if end > lineCount {
			end = lineCount
		}
		if start > lineCount {
			start = lineCount
		}
		if end-start+1 > maxExcerptLines {
			end = start + maxExcerptLines - 1
			if end > lineCount {
				end = lineCount
			}
		}

		var b strings.Builder
		fmt.Fprintf(&b, "File: %s (lines %d-%d of %d)\n", path, start, end, lineCount)
		for i := start; i <= end; i++ {
			fmt.Fprintf(&b, "%d: %s\n", i, lines[i-1])
		}

		return &ToolResult{
			Success:       true,
			Data:          map[string]interface{}{"path": path, "startLine": start, "endLine": end, "lineCount": lineCount},
			OutputSummary: b.String(),
		}, nil
	}
}
