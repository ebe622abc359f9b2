package repoindex

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Search tokenizes query on whitespace, drops empty tokens and stray quote
// characters, combines tokens with logical OR (each token quoted to
// suppress FTS5 operator metacharacters), and ranks hits by BM25 relevance
// (spec.md §4.1). A query with no usable tokens returns zero hits without
// touching the database — matching the boundary behavior in spec.md §8
// that a search over stop characters alone succeeds with no results.
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]SearchHit, error) {
	ftsQuery := buildFTSQuery(query)
	if ftsQuery == "" {
		return nil, nil
	}
	if topK <= 0 {
		topK = 10
	}

	rows, err := idx.db.QueryContext(ctx, `
		SELECT f.path, f.content, bm25(files_fts) AS raw_score
		FROM files_fts
		JOIN files f ON f.id = files_fts.rowid
		WHERE files_fts MATCH ?
		ORDER BY raw_score ASC
		LIMIT ?
	`, ftsQuery, topK)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	defer rows.Close()

	terms := queryTerms(query)
	var hits []SearchHit
	for rows.Next() {
		var path, content string
		var rawScore float64
		if err := rows.Scan(&path, &content, &rawScore); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}

		lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")
		focus := focusLine(lines, terms)
		start := focus - 5
		if start < 1 {
			start = 1
		}
		end := focus + 15
		if end > len(lines) {
			end = len(lines)
		}

		hits = append(hits, SearchHit{
			Path:      path,
			Score:     math.Abs(rawScore),
			Snippet:   strings.Join(lines[start-1:end], "\n"),
			StartLine: start,
			EndLine:   end,
		})
	}
	return hits, rows.Err()
}

// buildFTSQuery turns free-form user text into an FTS5 MATCH expression of
// quoted terms joined by OR.
func buildFTSQuery(query string) string {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return ""
	}
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, "") + `"`
	}
	return strings.Join(quoted, " OR ")
}

// queryTerms tokenizes on whitespace and strips stray quote characters,
// dropping tokens that become empty.
func queryTerms(query string) []string {
	var terms []string
	for _, field := range strings.Fields(query) {
		token := strings.Trim(field, "\"'`")
		if token == "" {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// focusLine selects the line with the highest case-folded occurrence count
// of any query term, ties resolved earliest-first (spec.md §4.1). If no
// term occurs anywhere (or there are no terms), line 1 is the focus.
func focusLine(lines []string, terms []string) int {
	if len(lines) == 0 {
		return 1
	}
	if len(terms) == 0 {
		return 1
	}

	lowerTerms := make([]string, len(terms))
	for i, t := range terms {
		lowerTerms[i] = strings.ToLower(t)
	}

	bestLine := 1
	bestCount := -1
	for i, line := range lines {
		lowerLine := strings.ToLower(line)
		count := 0
		for _, t := range lowerTerms {
			if t == "" {
				continue
			}
			count += strings.Count(lowerLine, t)
		}
		if count > bestCount {
			bestCount = count
			bestLine = i + 1
		}
	}
	return bestLine
}
