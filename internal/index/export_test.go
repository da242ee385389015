package index

import "database/sql"

// ExecForTest runs a raw statement against the index database.
func (s *Store) ExecForTest(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(query, args...)
}
