package tool

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/repowiki/agent/internal/repoindex"
)

// importPatterns maps a detected language to the regular expression used to
// extract import/require targets from source text, adapted from the
// teacher's per-language pattern tables in codesearch.go (getDefinitionPatterns
// / mapLanguageToRgType), narrowed to import-statement extraction only.
var importPatterns = map[string]*regexp.Regexp{
	"Go":         regexp.MustCompile(`(?m)^\s*(?:_ |\w+ )?"([^"]+)"`),
	"TypeScript": regexp.MustCompile(`(?m)(?:import|from|require\()\s*['"]([^'"]+)['"]`),
	"JavaScript": regexp.MustCompile(`(?m)(?:import|from|require\()\s*['"]([^'"]+)['"]`),
	"Python":     regexp.MustCompile(`(?m)^\s*(?:from|import)\s+([\w.]+)`),
	"Java":       regexp.MustCompile(`(?m)^\s*import\s+(?:static\s+)?([\w.]+)\s*;`),
	"Rust":       regexp.MustCompile(`(?m)^\s*use\s+([\w:]+)`),
	"C":          regexp.MustCompile(`(?m)^\s*#include\s*[<"]([^>"]+)[>"]`),
	"C++":        regexp.MustCompile(`(?m)^\s*#include\s*[<"]([^>"]+)[>"]`),
}

// neighbor is one entry of graph_neighbors' result (spec.md §4.3): a
// relative import that resolves to an indexed file is reported as a file
// neighbor with relation "imports"; anything else is reported as a module
// neighbor by its raw import target.
type neighbor struct {
	Type     string `json:"type"`
	Path     string `json:"path,omitempty"`
	Module   string `json:"module,omitempty"`
	Relation string `json:"relation,omitempty"`
	Depth    int    `json:"depth,omitempty"`
}

// GraphNeighborsDef is the graph_neighbors tool descriptor (spec.md §4.3):
// scans an indexed file for import statements and reports each target,
// resolved against the index where possible. The "depth" argument is
// accepted but any value is treated as 1 (spec.md §9: the source behavior
// this was distilled from never honors depth>1 either).
func GraphNeighborsDef() *ToolDef {
	return &ToolDef{
		Name:        "graph_neighbors",
		Description: "Return the import targets of an indexed file; targets that resolve to other indexed files are flagged as file neighbors.",
		ArgumentSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"nodeId": map[string]interface{}{
					"type":        "string",
					"description": "Repository-relative path of the file to inspect.",
				},
				"depth": map[string]interface{}{
					"type":        "integer",
					"description": "Accepted for forward compatibility; any value is treated as 1.",
					"minimum":     1,
					"maximum":     5,
					"default":     1,
				},
			},
			"required":             []interface{}{"nodeId"},
			"additionalProperties": false,
		},
		Execute: executeGraphNeighbors,
	}
}

func executeGraphNeighbors(ctx context.Context, tc *ToolContext, args map[string]interface{}) (*ToolResult, error) {
	nodeID, _ := args["nodeId"].(string)

	if _, ok := resolveContained(tc.RepoRoot, nodeID); !ok {
		return &ToolResult{Success: false, Error: "path escapes repository root", OutputSummary: fmt.Sprintf("Path %q is not inside the repository.", nodeID)}, nil
	}

	row, found, err := tc.Index.ReadFile(ctx, nodeID)
	if err != nil {
		return nil, fmt.Errorf("graph_neighbors: %w", err)
	}
	if !found {
		return &ToolResult{Success: true, Data: []neighbor{}, OutputSummary: fmt.Sprintf("%q does not resolve to an indexed file; no neighbors.", nodeID)}, nil
	}

	lang := repoindex.DetectLanguage(nodeID)
	pattern, ok := importPatterns[lang]
	if !ok {
		return &ToolResult{Success: true, Data: []neighbor{}, OutputSummary: fmt.Sprintf("Language %s has no import extraction rule; no neighbors found.", lang)}, nil
	}

	matches := pattern.FindAllStringSubmatch(row.Content, -1)
	seen := map[string]bool{}
	dir := path.Dir(nodeID)
	var neighbors []neighbor
	for _, m := range matches {
		target := m[1]
		if seen[target] {
			continue
		}
		seen[target] = true

		if strings.HasPrefix(target, ".") {
			if resolved := resolveImportCandidate(ctx, tc, dir, lang, target); resolved != "" {
				neighbors = append(neighbors, neighbor{Type: "file", Path: resolved, Relation: "imports", Depth: 1})
				continue
			}
		}
		neighbors = append(neighbors, neighbor{Type: "module", Module: target})
	}

	if len(neighbors) == 0 {
		return &ToolResult{Success: true, Data: neighbors, OutputSummary: "No neighbors found."}, nil
	}

	var b strings.Builder
	for _, n := range neighbors {
		if n.Type == "file" {
			fmt.Fprintf(&b, "- [file] %s (imports)\n", n.Path)
		} else {
			fmt.Fprintf(&b, "- [module] %s\n", n.Module)
		}
	}
	return &ToolResult{Success: true, Data: neighbors, OutputSummary: b.String()}, nil
}

// resolveImportCandidate tries a handful of relative-path spellings for an
// import target and returns the first that matches an indexed file.
func resolveImportCandidate(ctx context.Context, tc *ToolContext, fromDir, lang, target string) string {
	joined := path.Clean(path.Join(fromDir, target))
	candidates := []string{joined}
	switch lang {
	case "TypeScript", "JavaScript":
		for _, ext := range []string{".ts", ".tsx", ".js", ".jsx"} {
			candidates = append(candidates, joined+ext)
		}
	case "Python":
		candidates = append(candidates, joined+".py")
	}

	for _, c := range candidates {
		if _, found, err := tc.Index.ReadFile(ctx, c); err == nil && found {
			return c
		}
	}
	return ""
}
