package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"promptindex/internal/extract"
	"promptindex/internal/index"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

func parseFormat(value string) (string, error) {
	switch format := strings.ToLower(strings.TrimSpace(value)); format {
	case "", formatTable:
		return formatTable, nil
	case formatJSON, formatYAML:
		return format, nil
	case "yml":
		return formatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want table, json, or yaml)", value)
	}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeYAML encodes v as YAML to the command's stdout.
func writeYAML(cmd *cobra.Command, v any) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func writeStructured(cmd *cobra.Command, format string, v any) error {
	if format == formatYAML {
		return writeYAML(cmd, v)
	}
	return writeJSON(cmd, v)
}

// entryView is the serialized form of an index entry.
type entryView struct {
	ID             int64 `json:"id" yaml:"id"`
	extract.Record `yaml:",inline"`
	HasMetadata    bool      `json:"hasMetadata" yaml:"hasMetadata"`
	ScanID         string    `json:"scanId" yaml:"scanId"`
	IndexedAt      time.Time `json:"indexedAt" yaml:"indexedAt"`
	UpdatedAt      time.Time `json:"updatedAt" yaml:"updatedAt"`
}

func newEntryView(entry *index.Entry) entryView {
	return entryView{
		ID:          entry.ID,
		Record:      entry.Record,
		HasMetadata: entry.HasMetadata(),
		ScanID:      entry.ScanID,
		IndexedAt:   entry.IndexedAt,
		UpdatedAt:   entry.UpdatedAt,
	}
}

func newEntryViews(entries []*index.Entry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, newEntryView(entry))
	}
	return views
}

var titleCaser = cases.Title(language.English)

var sourceLabels = map[extract.Source]string{
	extract.SourceComfyUI: "ComfyUI",
	extract.SourceA1111:   "A1111",
}

func sourceLabel(source extract.Source) string {
	if label, ok := sourceLabels[source]; ok {
		return label
	}
	if source == "" {
		return titleCaser.String(string(extract.SourceUnknown))
	}
	return titleCaser.String(string(source))
}

// recordFields lists a record's attributes as label/value rows.
func recordFields(rec extract.Record) [][]string {
	rows := [][]string{
		{"Name", rec.Name},
		{"Path", rec.Path},
		{"Source", sourceLabel(rec.Source)},
		{"Size", formatBytes(rec.Size)},
		{"Modified", formatTimestamp(rec.ModifiedAt)},
		{"Dimensions", formatDimensions(rec.Width, rec.Height)},
	}
	if rec.FrameRate > 0 {
		rows = append(rows, []string{"Frame rate", strconv.FormatFloat(rec.FrameRate, 'f', -1, 64)})
	}
	if rec.Duration > 0 {
		rows = append(rows, []string{"Duration", (time.Duration(rec.Duration * float64(time.Second))).Round(time.Millisecond).String()})
	}
	if !rec.HasMetadata() {
		return append(rows, []string{"Metadata", "none found"})
	}

	scaleLabel, scaleValue := rec.CFGOrGuidance()
	rows = append(rows,
		[]string{"Prompt", rec.Prompt},
		[]string{"Negative prompt", orDash(rec.NegativePrompt)},
		[]string{"Model", derefOr(rec.Model, extract.NA)},
		[]string{"Sampler", rec.Sampler},
		[]string{"Scheduler", rec.Scheduler},
		[]string{"Seed", rec.Seed},
		[]string{"Steps", rec.Steps},
		[]string{titleCaser.String(scaleLabel), scaleValue},
		[]string{"LoRAs", formatLoras(rec)},
	)
	for _, key := range sortedKeys(rec.Extra) {
		rows = append(rows, []string{key, rec.Extra[key]})
	}
	if rec.Workflow != nil {
		rows = append(rows, []string{"Workflow", fmt.Sprintf("%s (use export)", formatBytes(int64(len(*rec.Workflow))))})
	}
	return rows
}

func formatLoras(rec extract.Record) string {
	if len(rec.Loras) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(rec.Loras))
	for _, entry := range rec.Loras {
		part := fmt.Sprintf("%s (%s", entry.Name, formatStrength(entry.StrengthModel))
		if entry.StrengthClip != nil {
			part += " / clip " + formatStrength(*entry.StrengthClip)
		}
		parts = append(parts, part+")")
	}
	return strings.Join(parts, ", ")
}

func formatStrength(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDimensions(width, height int64) string {
	if width <= 0 || height <= 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", width, height)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func derefOr(value *string, fallback string) string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return fallback
	}
	return *value
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

// truncate shortens s to at most limit runes, collapsing whitespace.
func truncate(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-1]) + "…"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
