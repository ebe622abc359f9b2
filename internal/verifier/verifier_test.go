package verifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeVerifierFixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	content := "line1\nline2\nline3\nline4\nline5\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "foo.ts"), []byte(content), 0o644))
	return root
}

func TestVerifyHappyPath(t *testing.T) {
	root := writeVerifierFixture(t)
	answer := "Answer.\n\n## Sources\n- `foo.ts`:1-5\n"

	result := Verify(root, answer)
	require.True(t, result.Valid)
	require.Equal(t, []Citation{{Path: "foo.ts", StartLine: 1, EndLine: 5}}, result.Citations)
	require.Empty(t, result.Errors)
}

func TestVerifyMissingSourcesSection(t *testing.T) {
	root := writeVerifierFixture(t)
	result := Verify(root, "Just an answer with no sources.")
	require.False(t, result.Valid)
	require.Contains(t, result.Errors, "Missing Sources section")
}

func TestVerifyNonexistentFile(t *testing.T) {
	root := writeVerifierFixture(t)
	answer := "Answer.\n\n## Sources\n- `missing.ts`:1-2\n"

	result := Verify(root, answer)
	require.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
}

func TestVerifyLineRangeExceedsFile(t *testing.T) {
	root := writeVerifierFixture(t)
	answer := "Answer.\n\n## Sources\n- `foo.ts`:1-50\n"

	result := Verify(root, answer)
	require.False(t, result.Valid)
	require.Contains(t, result.Errors[0], "exceeds file length")
}

func TestVerifyPathEscapeRejected(t *testing.T) {
	root := writeVerifierFixture(t)
	answer := "Answer.\n\n## Sources\n- `../../etc/passwd`:1-2\n"

	result := Verify(root, answer)
	require.False(t, result.Valid)
	require.Contains(t, result.Errors[0], "outside repository")
}

func TestVerifyStructurallyInvalidLineRange(t *testing.T) {
	root := writeVerifierFixture(t)
	answer := "Answer.\n\n## Sources\n- `foo.ts`:5-1\n"

	result := Verify(root, answer)
	require.False(t, result.Valid)
	require.Contains(t, result.Errors[0], "malformed citation")
}

func TestVerifyStopsAtNextHeader(t *testing.T) {
	root := writeVerifierFixture(t)
	answer := "## Sources\n- `foo.ts`:1-2\n\n## Notes\n- `foo.ts`:999-1000\n"

	result := Verify(root, answer)
	require.True(t, result.Valid)
	require.Len(t, result.Citations, 1)
}

func TestVerifyMarkdownOnlyRoundTrip(t *testing.T) {
	answer := "Answer.\n\n## Sources\n- `foo.ts`:1-5\n- `bar/baz.go`:10-12\n"

	result := Verify("", answer)
	require.True(t, result.Valid)
	require.Equal(t, []Citation{
		{Path: "foo.ts", StartLine: 1, EndLine: 5},
		{Path: "bar/baz.go", StartLine: 10, EndLine: 12},
	}, result.Citations)
}

func TestRepairPromptEnumeratesErrors(t *testing.T) {
	prompt := RepairPrompt([]string{"citation `x.go` does not exist"})
	require.Contains(t, prompt, "citation `x.go` does not exist")
	require.Contains(t, prompt, "Use the available tools")
}
