// Package repoindex is the Repository Index (C1): a persistent full-text
// index of a repository's eligible files backed by SQLite + FTS5, adapted
// from the sqlite-vec memory backend pattern (sqlitevec.Backend) and the
// FTS5-with-sync-triggers schema used for tool search indexes in the wider
// example pack.
package repoindex

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite" // pure-Go driver
)

// Row is one indexed file (spec.md §3 "Index Row").
type Row struct {
	Path               string
	Content            string
	LastModifiedMillis int64
}

// SearchHit is one ranked result from Search.
type SearchHit struct {
	Path      string
	Score     float64
	Snippet   string
	StartLine int
	EndLine   int
}

// Stats is indexRepository's return value.
type Stats struct {
	Indexed int
	Skipped int
}

// Index owns the backing SQLite connection for one agent run. The Tool
// Registry exclusively owns descriptors; Index exclusively owns the
// database handle, closed exactly once on run teardown (spec.md §3
// "Ownership").
type Index struct {
	db *sql.DB
}

// DefaultDBPath returns the conventional index location for a repository
// root (spec.md §6): "<repoRoot>/.repo-wiki/index.db".
func DefaultDBPath(repoRoot string) string {
	return filepath.Join(repoRoot, ".repo-wiki", "index.db")
}

// Open creates or opens the index database at dbPath, creating its parent
// directory on demand, and ensures the schema exists.
func Open(dbPath string) (*Index, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index database: %w", err)
	}

	idx := &Index{db: db}
	if err := idx.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL UNIQUE,
		content TEXT NOT NULL,
		last_modified_millis INTEGER NOT NULL
	);

	CREATE VIRTUAL TABLE IF NOT EXISTS files_fts USING fts5(
		path,
		content,
		content='files',
		content_rowid='id',
		tokenize='porter unicode61'
	);

	CREATE TRIGGER IF NOT EXISTS files_ai AFTER INSERT ON files BEGIN
		INSERT INTO files_fts(rowid, path, content) VALUES (new.id, new.path, new.content);
	END;

	CREATE TRIGGER IF NOT EXISTS files_ad AFTER DELETE ON files BEGIN
		INSERT INTO files_fts(files_fts, rowid, path, content) VALUES ('delete', old.id, old.path, old.content);
	END;

	CREATE TRIGGER IF NOT EXISTS files_au AFTER UPDATE ON files BEGIN
		INSERT INTO files_fts(files_fts, rowid, path, content) VALUES ('delete', old.id, old.path, old.content);
		INSERT INTO files_fts(rowid, path, content) VALUES (new.id, new.path, new.content);
	END;
	`
	_, err := idx.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

// Close releases the database handle. Called exactly once on run teardown.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// IndexRepository walks repoRoot, transactionally upserting eligible files.
// Read errors are counted as skipped, never fatal (spec.md §4.1).
func (idx *Index) IndexRepository(ctx context.Context, repoRoot string) (Stats, error) {
	var stats Stats

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin index transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (path, content, last_modified_millis) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET content = excluded.content, last_modified_millis = excluded.last_modified_millis
	`)
	if err != nil {
		return stats, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	walkErr := filepath.WalkDir(repoRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			stats.Skipped++
			return nil
		}
		if d.IsDir() {
			if path != repoRoot && skipDirectory(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !eligibleFile(path) {
			return nil
		}

		rel, err := filepath.Rel(repoRoot, path)
		if err != nil {
			stats.Skipped++
			return nil
		}
		rel = filepath.ToSlash(rel)

		info, err := d.Info()
		if err != nil {
			stats.Skipped++
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			stats.Skipped++
			return nil
		}

		if _, err := stmt.ExecContext(ctx, rel, string(content), info.ModTime().UnixMilli()); err != nil {
			return fmt.Errorf("upsert %s: %w", rel, err)
		}
		stats.Indexed++
		return nil
	})
	if walkErr != nil {
		return stats, walkErr
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit index transaction: %w", err)
	}

	log.Info().Int("indexed", stats.Indexed).Int("skipped", stats.Skipped).Str("repo_root", repoRoot).Msg("repository indexed")
	return stats, nil
}

// ReadFile returns the indexed row for path, or ok=false if absent.
func (idx *Index) ReadFile(ctx context.Context, path string) (Row, bool, error) {
	var row Row
	err := idx.db.QueryRowContext(ctx, `SELECT path, content, last_modified_millis FROM files WHERE path = ?`, path).
		Scan(&row.Path, &row.Content, &row.LastModifiedMillis)
	if err == sql.ErrNoRows {
		return Row{}, false, nil
	}
	if err != nil {
		return Row{}, false, fmt.Errorf("read file %s: %w", path, err)
	}
	return row, true, nil
}

// ListFiles returns indexed paths beginning with directoryPrefix, optionally
// further filtered by a glob pattern (spec.md §4.1).
func (idx *Index) ListFiles(ctx context.Context, directoryPrefix, globPattern string) ([]string, error) {
	rows, err := idx.db.QueryContext(ctx, `SELECT path FROM files WHERE path LIKE ? ESCAPE '\' ORDER BY path`, escapeLikePrefix(directoryPrefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var out []string
	var matcher *likeMatcher
	if globPattern != "" {
		matcher = newLikeMatcher(globPattern)
	}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scan path: %w", err)
		}
		if matcher != nil && !matcher.match(path) {
			continue
		}
		out = append(out, path)
	}
	return out, rows.Err()
}

func escapeLikePrefix(prefix string) string {
	r := strings.NewReplacer("%", "\\%", "_", "\\_")
	return r.Replace(prefix)
}

// likeMatcher applies the *→%, ?→_ trailing-match translation spec.md §4.1
// describes for listFiles' glob filter.
type likeMatcher struct {
	suffix string
}

func newLikeMatcher(glob string) *likeMatcher {
	pattern := strings.NewReplacer("*", "%", "?", "_").Replace(glob)
	return &likeMatcher{suffix: pattern}
}

func (m *likeMatcher) match(path string) bool {
	return sqlLikeMatch(path, m.suffix)
}

// sqlLikeMatch implements the same % / _ semantics SQL's LIKE uses, in Go,
// so ListFiles can filter without a second query round-trip per file.
func sqlLikeMatch(s, pattern string) bool {
	return likeMatchRunes([]rune(s), []rune(pattern))
}

func likeMatchRunes(s, p []rune) bool {
	if len(p) == 0 {
		return len(s) == 0
	}
	switch p[0] {
	case '%':
		if likeMatchRunes(s, p[1:]) {
			return true
		}
		for i := 0; i < len(s); i++ {
			if likeMatchRunes(s[i+1:], p[1:]) {
				return true
			}
		}
		return false
	case '_':
		if len(s) == 0 {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	default:
		if len(s) == 0 || s[0] != p[0] {
			return false
		}
		return likeMatchRunes(s[1:], p[1:])
	}
}
