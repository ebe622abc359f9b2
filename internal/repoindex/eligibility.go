package repoindex

import (
	"path/filepath"
	"strings"
)

// skipDirNames are directories excluded from indexing regardless of depth,
// in addition to any directory whose name starts with "." (spec.md §4.1).
var skipDirNames = map[string]bool{
	"node_modules": true,
	"dist":         true,
	".git":         true,
	".next":        true,
	".nuxt":        true,
	"coverage":     true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
}

// eligibleExtensions is the canonical closed set of text/code extensions
// from spec.md §4.1.
var eligibleExtensions = map[string]bool{
	".ts":   true,
	".tsx":  true,
	".js":   true,
	".jsx":  true,
	".py":   true,
	".rs":   true,
	".go":   true,
	".java": true,
	".c":    true,
	".cpp":  true,
	".h":    true,
	".hpp":  true,
	".md":   true,
	".json": true,
	".yaml": true,
	".yml":  true,
	".toml": true,
}

// skipDirectory reports whether a directory with this base name should not
// be descended into.
func skipDirectory(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return skipDirNames[name]
}

// eligibleFile reports whether a file's extension is in the indexable set.
func eligibleFile(path string) bool {
	return eligibleExtensions[strings.ToLower(filepath.Ext(path))]
}

// languageForExtension is the extension→language table used by
// get_repo_summary, adapted from the teacher's inferLanguage table
// (internal/tool/tool.go) and narrowed to exactly the indexable extension
// set.
var languageForExtension = map[string]string{
	".go":    "Go",
	".ts":    "TypeScript",
	".tsx":   "TypeScript",
	".js":    "JavaScript",
	".jsx":   "JavaScript",
	".py":    "Python",
	".rs":    "Rust",
	".java":  "Java",
	".c":     "C",
	".h":     "C",
	".cpp":   "C++",
	".hpp":   "C++",
	".md":    "Markdown",
	".json":  "JSON",
	".yaml":  "YAML",
	".yml":   "YAML",
	".toml":  "TOML",
}

// DetectLanguage maps a file path's extension to a human-readable language
// name, used by get_repo_summary. Exported for use by the tool package.
func DetectLanguage(path string) string {
	if lang, ok := languageForExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return "Other"
}
