package index

import (
	"context"
	"fmt"
	"strings"

	"promptindex/internal/extract"
	"promptindex/internal/textutil"
)

// DefaultLimit bounds Search when Query.Limit is not positive.
const DefaultLimit = 50

func (q Query) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if key := textutil.SearchKey(q.Text); key != "" {
		clauses = append(clauses, `search_text LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(key))
	}
	if key := textutil.SearchKey(q.Model); key != "" {
		clauses = append(clauses, `model_key LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(key))
	}
	if key := textutil.SearchKey(q.Sampler); key != "" {
		clauses = append(clauses, `sampler_key LIKE ? ESCAPE '\'`)
		args = append(args, containsPattern(key))
	}
	if key := textutil.SearchKey(q.Lora); key != "" {
		clauses = append(clauses, `EXISTS (SELECT 1 FROM record_loras l WHERE l.record_id = records.id AND l.name_key LIKE ? ESCAPE '\')`)
		args = append(args, containsPattern(key))
	}
	if q.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, string(q.Source))
	}
	if q.MetadataOnly {
		clauses = append(clauses, "has_metadata = 1")
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Search returns entries matching q, newest file first.
func (s *Store) Search(ctx context.Context, q Query) ([]*Entry, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where, args := q.where()
	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM records"+where+" ORDER BY modified_at DESC, id DESC LIMIT ? OFFSET ?",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan record: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := s.attachLoras(ctx, entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of entries matching q, ignoring Limit and Offset.
func (s *Store) Count(ctx context.Context, q Query) (int, error) {
	where, args := q.where()
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM records"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return count, nil
}

// Prompts returns the positive prompt of every entry that has metadata and
// a resolved prompt, keyed by entry identifier.
func (s *Store) Prompts(ctx context.Context) (map[int64]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, prompt FROM records WHERE has_metadata = 1 AND prompt <> ? AND prompt <> ''",
		extract.NA,
	)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()

	prompts := make(map[int64]string)
	for rows.Next() {
		var (
			id     int64
			prompt string
		)
		if err := rows.Scan(&id, &prompt); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts[id] = prompt
	}
	return prompts, rows.Err()
}
