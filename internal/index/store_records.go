package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"promptindex/internal/extract"
	"promptindex/internal/lora"
	"promptindex/internal/textutil"
)

const upsertRecordSQL = `INSERT INTO records (
    path, name, source, has_metadata, size, modified_at, width, height, frame_rate, duration,
    prompt, negative_prompt, seed, steps, sampler, scheduler, cfg, guidance, model,
    extra_json, workflow, search_text, model_key, sampler_key, scan_id, indexed_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
    name = excluded.name,
    source = excluded.source,
    has_metadata = excluded.has_metadata,
    size = excluded.size,
    modified_at = excluded.modified_at,
    width = excluded.width,
    height = excluded.height,
    frame_rate = excluded.frame_rate,
    duration = excluded.duration,
    prompt = excluded.prompt,
    negative_prompt = excluded.negative_prompt,
    seed = excluded.seed,
    steps = excluded.steps,
    sampler = excluded.sampler,
    scheduler = excluded.scheduler,
    cfg = excluded.cfg,
    guidance = excluded.guidance,
    model = excluded.model,
    extra_json = excluded.extra_json,
    workflow = excluded.workflow,
    search_text = excluded.search_text,
    model_key = excluded.model_key,
    sampler_key = excluded.sampler_key,
    scan_id = excluded.scan_id,
    updated_at = excluded.updated_at
RETURNING id`

// Upsert stores rec under its path, replacing any earlier record for the
// same path, and returns the row identifier. The identifier of an existing
// path is preserved.
func (s *Store) Upsert(ctx context.Context, rec extract.Record, scanID string) (int64, error) {
	if strings.TrimSpace(rec.Path) == "" {
		return 0, errors.New("upsert record: path is required")
	}

	var extraJSON any
	if len(rec.Extra) > 0 {
		encoded, err := json.Marshal(rec.Extra)
		if err != nil {
			return 0, fmt.Errorf("encode extra fields: %w", err)
		}
		extraJSON = string(encoded)
	}

	now := formatTime(s.now())
	prompt := textutil.Normalize(rec.Prompt)
	negative := textutil.Normalize(rec.NegativePrompt)
	normalized := rec
	normalized.Prompt = prompt
	normalized.NegativePrompt = negative

	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, upsertRecordSQL,
			rec.Path,
			rec.Name,
			string(rec.Source),
			boolToInt(rec.HasMetadata()),
			rec.Size,
			formatTime(rec.ModifiedAt),
			rec.Width,
			rec.Height,
			rec.FrameRate,
			rec.Duration,
			prompt,
			negative,
			rec.Seed,
			rec.Steps,
			rec.Sampler,
			rec.Scheduler,
			nullableStringPtr(rec.CFG),
			nullableStringPtr(rec.Guidance),
			nullableStringPtr(rec.Model),
			extraJSON,
			nullableStringPtr(rec.Workflow),
			searchText(normalized),
			optionalKey(rec.Model),
			textutil.SearchKey(rec.Sampler),
			nullableString(scanID),
			now,
			now,
		)
		if err := row.Scan(&id); err != nil {
			return fmt.Errorf("upsert record: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM record_loras WHERE record_id = ?", id); err != nil {
			return fmt.Errorf("clear loras: %w", err)
		}
		for i, entry := range rec.Loras {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO record_loras (record_id, position, name, name_key, strength_model, strength_clip) VALUES (?, ?, ?, ?, ?, ?)",
				id, i, entry.Name, textutil.SearchKey(entry.Name), entry.StrengthModel, nullableFloatPtr(entry.StrengthClip),
			); err != nil {
				return fmt.Errorf("insert lora %q: %w", entry.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetByID fetches an entry by identifier. It returns nil, nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	return s.getOne(ctx, "id = ?", id)
}

// GetByPath fetches the entry for an absolute file path. It returns nil, nil
// when absent.
func (s *Store) GetByPath(ctx context.Context, path string) (*Entry, error) {
	return s.getOne(ctx, "path = ?", path)
}

func (s *Store) getOne(ctx context.Context, where string, arg any) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM records WHERE "+where, arg)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if err := s.attachLoras(ctx, []*Entry{entry}); err != nil {
		return nil, err
	}
	return entry, nil
}

// Unchanged reports whether path is indexed with the given size and
// modification time.
func (s *Store) Unchanged(ctx context.Context, path string, size int64, modTime time.Time) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM records WHERE path = ? AND size = ? AND modified_at = ?",
		path, size, formatTime(modTime),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check unchanged: %w", err)
	}
	return count > 0, nil
}

// Delete removes the entry with id. It reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, id int64) (bool, error) {
	var removed int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM record_loras WHERE record_id = ?", id); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM records WHERE id = ?", id)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete record %d: %w", id, err)
	}
	return removed > 0, nil
}

// attachLoras loads LoRA lists for entries in one query.
func (s *Store) attachLoras(ctx context.Context, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}
	byID := make(map[int64]*Entry, len(entries))
	args := make([]any, 0, len(entries))
	for _, e := range entries {
		e.Record.Loras = []lora.Entry{}
		byID[e.ID] = e
		args = append(args, e.ID)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT record_id, name, strength_model, strength_clip FROM record_loras WHERE record_id IN ("+
			makePlaceholders(len(args))+") ORDER BY record_id, position",
		args...,
	)
	if err != nil {
		return fmt.Errorf("load loras: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			recordID int64
			entry    lora.Entry
			clip     sql.NullFloat64
		)
		if err := rows.Scan(&recordID, &entry.Name, &entry.StrengthModel, &clip); err != nil {
			return fmt.Errorf("scan lora: %w", err)
		}
		if clip.Valid {
			v := clip.Float64
			entry.StrengthClip = &v
		}
		if e, ok := byID[recordID]; ok {
			e.Record.Loras = append(e.Record.Loras, entry)
		}
	}
	return rows.Err()
}
