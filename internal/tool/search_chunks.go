package tool

import (
	"context"
	"fmt"
	"strings"
)

// SearchChunksDef is the search_chunks tool descriptor (spec.md §4.3): a
// full-text search over the indexed repository returning a ranked list of
// snippets, each citable by path and line range.
func SearchChunksDef() *ToolDef {
	return &ToolDef{
		Name:        "search_chunks",
		Description: "Full-text search the indexed repository and return ranked snippets with file paths and line ranges.",
		ArgumentSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free-text search query.",
					"minLength":   1,
				},
				"topK": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return.",
					"minimum":     1,
					"maximum":     50,
					"default":     10,
				},
			},
			"required":             []interface{}{"query"},
			"additionalProperties": false,
		},
		Execute: executeSearchChunks,
	}
}

func executeSearchChunks(ctx context.Context, tc *ToolContext, args map[string]interface{}) (*ToolResult, error) {
	query, _ := args["query"].(string)
	topK := 10
	if v, ok := args["topK"].(float64); ok && v > 0 {
		topK = int(v)
	}

	hits, err := tc.Index.Search(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("search_chunks: %w", err)
	}

	if len(hits) == 0 {
		return &ToolResult{Success: true, Data: hits, OutputSummary: "No matches found."}, nil
	}

	var b strings.Builder
	for i, h := range hits {
		fmt.Fprintf(&b, "[%d] %s:%d-%d (score: %.3f)\n", i+1, h.Path, h.StartLine, h.EndLine, h.Score)
	}

	return &ToolResult{Success: true, Data: hits, OutputSummary: b.String()}, nil
}
