package catalog

import (
	"database/sql"
	"fmt"

	"github.com/quizbank/qbank/internal/sqlutil"
)

// DefaultSearchLimit caps search results when no limit is given.
const DefaultSearchLimit = 20

// SearchResult is one matching question.
type SearchResult struct {
	Subject   string  `json:"subject"`
	ChapterID string  `json:"chapter_id"`
	Chapter   string  `json:"chapter"`
	Position  int     `json:"position"`
	Snippet   string  `json:"snippet"`
	Rank      float64 `json:"rank"`
}

// Search runs a full-text query over question text, options and answers,
// best match first, restricted to subjects when any are given.
func (c *Catalog) Search(query string, subjects []string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	sqlQuery := `
		SELECT
			subject,
			chapter_id,
			chapter,
			position,
			snippet(fts_questions, 4, '»', '«', '...', 24) AS snippet,
			bm25(fts_questions) AS rank
		FROM fts_questions
		WHERE fts_questions MATCH ?`
	args := []any{BuildFTSQuery(query)}
	if len(subjects) > 0 {
		placeholders, subjectArgs := sqlutil.InClauseArgs(subjects)
		sqlQuery += ` AND subject IN (` + placeholders + `)`
		args = append(args, subjectArgs...)
	}
	sqlQuery += ` ORDER BY rank LIMIT ?`
	args = append(args, limit)

	rows, err := c.db.Query(sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return sqlutil.ScanRows(rows, func(rows *sql.Rows) (SearchResult, error) {
		var r SearchResult
		err := rows.Scan(&r.Subject, &r.ChapterID, &r.Chapter, &r.Position, &r.Snippet, &r.Rank)
		return r, err
	})
}

// SubjectStats holds per-subject counts.
type SubjectStats struct {
	Subject   string `json:"subject"`
	Chapters  int    `json:"chapters"`
	Questions int    `json:"questions"`
}

// Stats contains catalog statistics.
type Stats struct {
	Subjects   int            `json:"subjects"`
	Chapters   int            `json:"chapters"`
	Questions  int            `json:"questions"`
	PerSubject []SubjectStats `json:"per_subject"`
}

// Stats returns counts of cataloged subjects, chapters and questions.
func (c *Catalog) Stats() (*Stats, error) {
	rows, err := c.db.Query(`
		SELECT subject, COUNT(*), COALESCE(SUM(question_count), 0)
		FROM chapters
		GROUP BY subject
		ORDER BY subject
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &Stats{PerSubject: []SubjectStats{}}
	for rows.Next() {
		var s SubjectStats
		if err := rows.Scan(&s.Subject, &s.Chapters, &s.Questions); err != nil {
			return nil, err
		}
		stats.PerSubject = append(stats.PerSubject, s)
		stats.Subjects++
		stats.Chapters += s.Chapters
		stats.Questions += s.Questions
	}
	return stats, rows.Err()
}
