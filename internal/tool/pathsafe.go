package tool

import (
	"path/filepath"
	"strings"
)

// resolveContained canonicalizes candidate relative to root and requires the
// result to be a descendant of root, defending against "../" escapes
// regardless of symlink topology (spec.md §4.3, §8). Grounded on the
// teacher's permission.IsExternalPath (internal/permission/ruleset.go),
// generalized here to also return the resolved absolute path.
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
