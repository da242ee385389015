package index

import (
	"time"

	"promptindex/internal/extract"
)

// Entry is one indexed file.
type Entry struct {
	ID        int64
	Record    extract.Record
	ScanID    string
	IndexedAt time.Time
	UpdatedAt time.Time
}

// HasMetadata reports whether extraction found a payload in the file.
func (e Entry) HasMetadata() bool {
	return e.Record.HasMetadata()
}

// Query filters a search. Text matches prompt, negative prompt, model, and
// LoRA names; Model, Sampler, and Lora are substring filters on those
// fields. All comparisons use folded search keys. Zero values match
// everything.
type Query struct {
	Text         string
	Model        string
	Sampler      string
	Lora         string
	Source       extract.Source
	MetadataOnly bool
	Limit        int
	Offset       int
}

// Count is a labelled tally used by Stats.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes the index contents.
type Stats struct {
	Total           int                    `json:"total"`
	WithMetadata    int                    `json:"withMetadata"`
	WithoutMetadata int                    `json:"withoutMetadata"`
	BySource        map[extract.Source]int `json:"bySource"`
	TopModels       []Count                `json:"topModels"`
	TopSamplers     []Count                `json:"topSamplers"`
	TopLoras        []Count                `json:"topLoras"`
	LastIndexedAt   time.Time              `json:"lastIndexedAt"`
}

// DatabaseHealth reports the state of the index database for diagnostics.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	TotalRecords     int
	IntegrityCheck   bool
	Error            string
}
