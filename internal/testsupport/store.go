package testsupport

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"promptindex/internal/config"
	"promptindex/internal/extract"
	"promptindex/internal/index"
	"promptindex/internal/lora"
)

// MustOpenStore opens an index.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *index.Store {
	t.Helper()

	store, err := index.Open(cfg)
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustUpsert stores rec and returns its identifier.
func MustUpsert(t testing.TB, store *index.Store, rec extract.Record) int64 {
	t.Helper()

	id, err := store.Upsert(context.Background(), rec, "test-scan")
	if err != nil {
		t.Fatalf("store.Upsert(%s): %v", rec.Path, err)
	}
	return id
}

// SampleRecord returns a fully populated graph-path record for path.
func SampleRecord(path, prompt string) extract.Record {
	cfg := "7"
	model := "sdxl_base.safetensors"
	workflow := `{"3":{"class_type":"KSampler","inputs":{}}}`
	return extract.Record{
		Source:         extract.SourceComfyUI,
		Name:           filepath.Base(path),
		Path:           path,
		Size:           1024,
		ModifiedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Width:          1024,
		Height:         768,
		Prompt:         prompt,
		NegativePrompt: "blurry",
		Seed:           "42",
		Steps:          "20",
		Sampler:        "euler",
		Scheduler:      "normal",
		CFG:            &cfg,
		Model:          &model,
		Loras:          []lora.Entry{{Name: "detail", StrengthModel: 0.8}},
		Workflow:       &workflow,
	}
}
