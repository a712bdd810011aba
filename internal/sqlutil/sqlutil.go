// Package sqlutil has small helpers for database/sql queries.
package sqlutil

import (
	"database/sql"
	"strings"
)

// InClauseArgs returns "?, ?, ..." for items and the matching args. An empty
// list yields "NULL" so that `IN (NULL)` matches nothing.
func InClauseArgs(items []string) (placeholders string, args []any) {
	if len(items) == 0 {
		return "NULL", nil
	}
	args = make([]any, len(items))
	for i, item := range items {
		args[i] = item
	}
	return strings.TrimSuffix(strings.Repeat("?, ", len(items)), ", "), args
}

// ScanRows collects every row with scan and closes rows.
func ScanRows[T any](rows *sql.Rows, scan func(*sql.Rows) (T, error)) ([]T, error) {
	defer rows.Close()

	var out []T
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, rows.Err()
}
