// Package verifier implements the Source Verifier (C4): it extracts
// citations from the `## Sources` section of a markdown answer and checks
// each one against the filesystem under a strict containment policy,
// producing repair diagnostics the Agent Loop feeds back to the model.
package verifier

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Citation is an immutable (path, startLine, endLine) triple asserting that
// a claim in the answer is backed by that range of that file (spec.md §3).
type Citation struct {
	Path      string
	StartLine int
	EndLine   int
}

// Result is the verifier's output (spec.md §4.4): Valid holds only when
// every citation passed and at least one citation was found.
type Result struct {
	Valid     bool
	Citations []Citation
	Errors    []string
}

var sourcesHeaderPattern = regexp.MustCompile(`(?im)^##\s*Sources\s*$`)
var nextHeaderPattern = regexp.MustCompile(`(?m)^##[^#]`)
var citationLinePattern = regexp.MustCompile("(?m)^[ \t]*[-*][ \t]*`([^`]+)`:(-?\\d+)-(-?\\d+)[ \t]*$")

// Verify parses answerMarkdown's `## Sources` section and, when repoRoot is
// non-empty, checks each structurally-valid citation against the
// filesystem (spec.md §4.4). Passing an empty repoRoot performs
// markdown-only structural validation without touching disk.
func Verify(repoRoot, answerMarkdown string) Result {
	section, found := extractSourcesSection(answerMarkdown)
	if !found {
		return Result{Valid: false, Errors: []string{"Missing Sources section"}}
	}

	matches := citationLinePattern.FindAllStringSubmatch(section, -1)

	var citations []Citation
	var errs []string
	for _, m := range matches {
		path := m[1]
		startLine, startErr := strconv.Atoi(m[2])
		endLine, endErr := strconv.Atoi(m[3])
		if startErr != nil || endErr != nil || startLine < 1 || endLine < startLine {
			errs = append(errs, fmt.Sprintf("malformed citation `%s`:%s-%s", path, m[2], m[3]))
			continue
		}

		if repoRoot != "" {
			if err := verifyAgainstFilesystem(repoRoot, path, startLine, endLine); err != nil {
				errs = append(errs, err.Error())
				continue
			}
		}

		citations = append(citations, Citation{Path: path, StartLine: startLine, EndLine: endLine})
	}

	return Result{
		Valid:     len(errs) == 0 && len(citations) > 0,
		Citations: citations,
		Errors:    errs,
	}
}

func verifyAgainstFilesystem(repoRoot, relPath string, startLine, endLine int) error {
	abs, ok := resolveContained(repoRoot, relPath)
	if !ok {
		return fmt.Errorf("citation `%s` is outside repository", relPath)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("citation `%s` does not exist", relPath)
	}

	lineCount := strings.Count(string(content), "\n") + 1
	if startLine > lineCount || endLine > lineCount {
		return fmt.Errorf("citation `%s`:%d-%d exceeds file length (%d lines)", relPath, startLine, endLine, lineCount)
	}
	return nil
}

// extractSourcesSection locates the first "## Sources" header (case
// insensitive) and returns everything through the next "##" header or
// end-of-text (spec.md §4.4).
func extractSourcesSection(markdown string) (string, bool) {
	loc := sourcesHeaderPattern.FindStringIndex(markdown)
	if loc == nil {
		return "", false
	}
	rest := markdown[loc[1]:]
	if next := nextHeaderPattern.FindStringIndex(rest); next != nil {
		return rest[:next[0]], true
	}
	return rest, true
}

// RepairPrompt renders the user-facing repair message the Agent Loop sends
// after a failed verification (spec.md §4.4, §4.5): it enumerates the
// errors and instructs the model to keep using tools before re-emitting.
func RepairPrompt(errs []string) string {
	var b strings.Builder
	b.WriteString("Your answer's citations failed verification:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e)
		b.WriteString("\n")
	}
	b.WriteString("\nUse the available tools to find correct evidence, then re-emit your full answer with a corrected `## Sources` section.")
	return b.String()
}
