package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"promptindex/internal/extract"
	"promptindex/internal/textutil"
)

const recordColumns = "id, path, name, source, size, modified_at, width, height, frame_rate, duration, prompt, negative_prompt, seed, steps, sampler, scheduler, cfg, guidance, model, extra_json, workflow, scan_id, indexed_at, updated_at"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id          int64
		path        string
		name        string
		source      string
		size        int64
		modifiedRaw string
		width       int64
		height      int64
		frameRate   float64
		duration    float64
		rec         extract.Record
		cfg         sql.NullString
		guidance    sql.NullString
		model       sql.NullString
		extraJSON   sql.NullString
		workflow    sql.NullString
		scanID      sql.NullString
		indexedRaw  string
		updatedRaw  string
	)

	if err := scanner.Scan(
		&id,
		&path,
		&name,
		&source,
		&size,
		&modifiedRaw,
		&width,
		&height,
		&frameRate,
		&duration,
		&rec.Prompt,
		&rec.NegativePrompt,
		&rec.Seed,
		&rec.Steps,
		&rec.Sampler,
		&rec.Scheduler,
		&cfg,
		&guidance,
		&model,
		&extraJSON,
		&workflow,
		&scanID,
		&indexedRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec.Source = extract.Source(source)
	rec.Path = path
	rec.Name = name
	rec.Size = size
	rec.Width = width
	rec.Height = height
	rec.FrameRate = frameRate
	rec.Duration = duration
	rec.CFG = stringFromNull(cfg)
	rec.Guidance = stringFromNull(guidance)
	rec.Model = stringFromNull(model)
	rec.Workflow = stringFromNull(workflow)
	if extraJSON.Valid && extraJSON.String != "" {
		if err := json.Unmarshal([]byte(extraJSON.String), &rec.Extra); err != nil {
			return nil, err
		}
	}
	if modified, err := parseTimeString(modifiedRaw); err == nil {
		rec.ModifiedAt = modified
	}

	entry := &Entry{ID: id, Record: rec, ScanID: scanID.String}
	if indexed, err := parseTimeString(indexedRaw); err == nil {
		entry.IndexedAt = indexed
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		entry.UpdatedAt = updated
	}
	return entry, nil
}

func stringFromNull(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableStringPtr(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloatPtr(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching key anywhere. Use with
// ESCAPE '\'.
func containsPattern(key string) string {
	return "%" + likeEscaper.Replace(key) + "%"
}

// searchText is the folded text searched by Query.Text.
func searchText(rec extract.Record) string {
	parts := []string{rec.Prompt, rec.NegativePrompt}
	if rec.Model != nil {
		parts = append(parts, *rec.Model)
	}
	for _, l := range rec.Loras {
		parts = append(parts, l.Name)
	}
	return textutil.SearchKey(strings.Join(parts, "\n"))
}

func optionalKey(value *string) string {
	if value == nil {
		return ""
	}
	return textutil.SearchKey(*value)
}
