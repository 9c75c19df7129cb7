package db

import "strings"

// Search returns records whose title, summary or keywords contain term,
// ignoring case, newest first and without transcripts. The term is matched
// literally: LIKE wildcards in it are escaped. SQLite folds case for ASCII
// letters only.
func (s *Store) Search(term string) ([]VideoRecord, error) {
	pattern := "%" + escapeLike(term) + "%"

	rows, err := s.db.Query(`
		SELECT `+listColumns+`
		FROM videos
		WHERE title LIKE ? ESCAPE '\'
		   OR summary LIKE ? ESCAPE '\'
		   OR keywords LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, rowid DESC
	`, pattern, pattern, pattern)
	if err != nil {
		return nil, &StoreError{Op: "search", Err: err}
	}
	return scanRecords(rows, "search")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
