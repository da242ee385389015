package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"promptindex/internal/extract"
)

const topCountLimit = 5

// Stats summarizes the index.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{BySource: make(map[extract.Source]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT source, has_metadata, COUNT(1) FROM records GROUP BY source, has_metadata`)
	if err != nil {
		return stats, fmt.Errorf("index stats: %w", err)
	}
	for rows.Next() {
		var (
			source      string
			hasMetadata int
			count       int
		)
		if err := rows.Scan(&source, &hasMetadata, &count); err != nil {
			rows.Close()
			return stats, err
		}
		stats.Total += count
		if hasMetadata != 0 {
			stats.WithMetadata += count
		} else {
			stats.WithoutMetadata += count
		}
		stats.BySource[extract.Source(source)] += count
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return stats, err
	}
	rows.Close()

	if stats.TopModels, err = s.topCounts(ctx,
		"SELECT model, COUNT(1) AS n FROM records WHERE model IS NOT NULL AND model <> '' GROUP BY model ORDER BY n DESC, model LIMIT ?"); err != nil {
		return stats, err
	}
	if stats.TopSamplers, err = s.topCounts(ctx,
		"SELECT sampler, COUNT(1) AS n FROM records WHERE has_metadata = 1 AND sampler <> '"+extract.NA+"' GROUP BY sampler ORDER BY n DESC, sampler LIMIT ?"); err != nil {
		return stats, err
	}
	if stats.TopLoras, err = s.topCounts(ctx,
		"SELECT name, COUNT(DISTINCT record_id) AS n FROM record_loras GROUP BY name ORDER BY n DESC, name LIMIT ?"); err != nil {
		return stats, err
	}

	var last sql.NullString
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(updated_at) FROM records").Scan(&last); err != nil {
		return stats, fmt.Errorf("last indexed: %w", err)
	}
	if last.Valid {
		if t, err := parseTimeString(last.String); err == nil {
			stats.LastIndexedAt = t
		}
	}
	return stats, nil
}

func (s *Store) topCounts(ctx context.Context, query string) ([]Count, error) {
	rows, err := s.db.QueryContext(ctx, query, topCountLimit)
	if err != nil {
		return nil, fmt.Errorf("top counts: %w", err)
	}
	defer rows.Close()

	var counts []Count
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// Prune removes entries whose path keep rejects. It returns the removed
// paths in path order.
func (s *Store) Prune(ctx context.Context, keep func(path string) bool) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, path FROM records ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("list paths: %w", err)
	}
	type candidate struct {
		id   int64
		path string
	}
	var stale []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.path); err != nil {
			rows.Close()
			return nil, err
		}
		if !keep(c.path) {
			stale = append(stale, c)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	removed := make([]string, 0, len(stale))
	for _, c := range stale {
		ok, err := s.Delete(ctx, c.id)
		if err != nil {
			return removed, err
		}
		if ok {
			removed = append(removed, c.path)
		}
	}
	return removed, nil
}

// FileExists is the keep function for pruning entries whose file vanished.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Clear removes every entry and returns how many were removed.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	var removed int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM record_loras"); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM records")
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("clear index: %w", err)
	}
	return removed, nil
}

var expectedColumns = []string{
	"id",
	"path",
	"name",
	"source",
	"has_metadata",
	"size",
	"modified_at",
	"width",
	"height",
	"frame_rate",
	"duration",
	"prompt",
	"negative_prompt",
	"seed",
	"steps",
	"sampler",
	"scheduler",
	"cfg",
	"guidance",
	"model",
	"extra_json",
	"workflow",
	"search_text",
	"model_key",
	"sampler_key",
	"scan_id",
	"indexed_at",
	"updated_at",
}

// CheckHealth returns diagnostic information about the index database.
func (s *Store) CheckHealth(ctx context.Context) (DatabaseHealth, error) {
	health := DatabaseHealth{
		DBPath:        s.path,
		SchemaVersion: schemaVersion,
	}

	if s.path == "" {
		return health, errors.New("index database path is unknown")
	}

	info, err := os.Stat(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			health.DatabaseExists = false
			return health, nil
		}
		return health, fmt.Errorf("stat index database: %w", err)
	}
	if info.IsDir() {
		return health, fmt.Errorf("index database path %q is a directory", s.path)
	}
	health.DatabaseExists = true

	if s.db == nil {
		return health, errors.New("index database connection unavailable")
	}

	connCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(connCtx); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("ping index database: %w", err)
	}
	health.DatabaseReadable = true

	var tableName string
	row := s.db.QueryRowContext(connCtx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'records'")
	if err := row.Scan(&tableName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			health.Error = err.Error()
			return health, fmt.Errorf("query table info: %w", err)
		}
	} else {
		health.TableExists = true
	}

	if health.TableExists {
		columns, err := s.tableColumns(connCtx, "records")
		if err != nil {
			health.Error = err.Error()
			return health, err
		}
		health.ColumnsPresent = columns

		present := make(map[string]struct{}, len(columns))
		for _, col := range columns {
			present[col] = struct{}{}
		}
		for _, col := range expectedColumns {
			if _, ok := present[col]; !ok {
				health.MissingColumns = append(health.MissingColumns, col)
			}
		}

		row = s.db.QueryRowContext(connCtx, "SELECT COUNT(*) FROM records")
		if err := row.Scan(&health.TotalRecords); err != nil {
			health.Error = err.Error()
			return health, fmt.Errorf("count records: %w", err)
		}
	}

	row = s.db.QueryRowContext(connCtx, "PRAGMA integrity_check")
	var integrityResult string
	if err := row.Scan(&integrityResult); err != nil {
		health.Error = err.Error()
		return health, fmt.Errorf("integrity check: %w", err)
	}
	health.IntegrityCheck = strings.EqualFold(integrityResult, "ok")

	return health, nil
}

func (s *Store) tableColumns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return nil, fmt.Errorf("table info: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var (
			cid     int
			name    string
			typeStr string
			notNull int
			dflt    any
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typeStr, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info: %w", err)
	}
	return columns, nil
}
