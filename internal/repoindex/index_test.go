package repoindex

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()

	files := map[string]string{
		"foo.go":                "package foo\n\nfunc Foo() {\n\tbar()\n}\n",
		"bar.go":                "package foo\n\nfunc bar() {\n\t// bar does nothing\n}\n",
		"README.md":             "# Example\n\nThis is an example repository about widgets.\n",
		"node_modules/vendor.js": "console.log('should not be indexed')",
		".git/HEAD":             "ref: refs/heads/main",
	}
	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	}
	return root
}

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "index.db")
	idx, err := Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexRepositorySkipsIneligiblePaths(t *testing.T) {
	root := writeTestRepo(t)
	idx := openTestIndex(t)

	stats, err := idx.IndexRepository(context.Background(), root)
	require.NoError(t, err)
	require.Equal(t, 3, stats.Indexed) // foo.go, bar.go, README.md

	_, ok, err := idx.ReadFile(context.Background(), "node_modules/vendor.js")
	require.NoError(t, err)
	require.False(t, ok)

	row, ok, err := idx.ReadFile(context.Background(), "foo.go")
	require.NoError(t, err)
	require.True(t, ok)
	require.Contains(t, row.Content, "func Foo")
}

func TestSearchRanksByRelevance(t *testing.T) {
	root := writeTestRepo(t)
	idx := openTestIndex(t)
	_, err := idx.IndexRepository(context.Background(), root)
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), "widgets", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "README.md", hits[0].Path)
	require.GreaterOrEqual(t, hits[0].StartLine, 1)
	require.LessOrEqual(t, hits[0].EndLine, 3)
}

func TestSearchWithOnlyStopCharactersReturnsNoHits(t *testing.T) {
	root := writeTestRepo(t)
	idx := openTestIndex(t)
	_, err := idx.IndexRepository(context.Background(), root)
	require.NoError(t, err)

	hits, err := idx.Search(context.Background(), `"   " '`, 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestListFilesPrefixAndGlob(t *testing.T) {
	root := writeTestRepo(t)
	idx := openTestIndex(t)
	_, err := idx.IndexRepository(context.Background(), root)
	require.NoError(t, err)

	paths, err := idx.ListFiles(context.Background(), "", "*.go")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"foo.go", "bar.go"}, paths)
}
