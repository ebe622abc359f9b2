package verifier

import (
	"path/filepath"
	"strings"
)

// resolveContained mirrors the Tool Handlers' containment check (spec.md
// §4.3, §4.4): a citation's path must canonicalize to a descendant of the
// repository root regardless of symlink topology. Duplicated rather than
// imported from internal/tool because the verifier enforces this invariant
// independently of any tool call, against the raw path text in a markdown
// citation. Grounded on the teacher's permission.IsExternalPath
// (internal/permission/ruleset.go).
func resolveContained(root, candidate string) (string, bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", false
	}
	joined := candidate
	if !filepath.IsAbs(candidate) {
		joined = filepath.Join(absRoot, candidate)
	}
	absCandidate, err := filepath.Abs(joined)
	if err != nil {
		return "", false
	}

	rel, err := filepath.Rel(absRoot, absCandidate)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return absCandidate, true
}
