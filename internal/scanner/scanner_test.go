package scanner_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"promptindex/internal/config"
	"promptindex/internal/extract"
	"promptindex/internal/index"
	"promptindex/internal/logging"
	"promptindex/internal/media/probe"
	"promptindex/internal/scanner"
	"promptindex/internal/services"
	"promptindex/internal/testsupport"
)

const graphChunk = `{"3":{"class_type":"KSampler","inputs":{"seed":42,"steps":20,"cfg":7,"sampler_name":"euler","scheduler":"normal","positive":["6",0],"negative":["7",0],"model":["4",0]}},` +
	`"4":{"class_type":"CheckpointLoaderSimple","inputs":{"ckpt_name":"sdxl.safetensors"}},` +
	`"6":{"class_type":"CLIPTextEncode","inputs":{"text":"a red fox"}},` +
	`"7":{"class_type":"CLIPTextEncode","inputs":{"text":"blurry"}}}`

const parametersText = "castle on a hill\nNegative prompt: fog\nSteps: 30, Sampler: DPM++ 2M, CFG scale: 6.5, Seed: 7, Size: 512x512, Model: dreamshaper"

func newFixture(t *testing.T) (*config.Config, *index.Store, *scanner.Scanner, *bytes.Buffer) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	engine := extract.NewEngine(probe.New(probe.OptionsFromConfig(cfg)))

	var logs bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Level: "debug", Writer: &logs})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	return cfg, store, scanner.New(scanner.OptionsFromConfig(cfg), engine, store, logger), &logs
}

func writeLibrary(t *testing.T, lib string) {
	t.Helper()
	testsupport.WritePNG(t, filepath.Join(lib, "comfy.png"), 8, 8,
		testsupport.TextChunk{Keyword: "prompt", Text: graphChunk},
	)
	testsupport.WritePNG(t, filepath.Join(lib, "nested", "a1111.png"), 4, 4,
		testsupport.TextChunk{Keyword: "parameters", Text: parametersText},
	)
	testsupport.WritePNG(t, filepath.Join(lib, "plain.png"), 2, 2)
	testsupport.WriteFile(t, filepath.Join(lib, "broken.png"), 64)
	testsupport.WriteFile(t, filepath.Join(lib, "readme.txt"), 8)
	testsupport.WritePNG(t, filepath.Join(lib, ".thumbs", "skip.png"), 2, 2)
}

func TestRunIndexesLibrary(t *testing.T) {
	cfg, store, sc, logs := newFixture(t)
	lib := testsupport.LibraryDir(cfg)
	writeLibrary(t, lib)
	ctx := context.Background()

	summary, err := sc.Run(ctx, cfg.Paths.LibraryDirs, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.ScanID == "" {
		t.Fatal("expected scan id")
	}
	if summary.Discovered != 4 || summary.Indexed != 3 || summary.WithMetadata != 2 || summary.NoMetadata != 1 || summary.Failed != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.Failures) != 1 || filepath.Base(summary.Failures[0].Path) != "broken.png" {
		t.Fatalf("unexpected failures %+v", summary.Failures)
	}
	if !errors.Is(summary.Failures[0].Err, services.ErrValidation) {
		t.Fatalf("expected validation failure, got %v", summary.Failures[0].Err)
	}

	comfy, err := store.GetByPath(ctx, filepath.Join(lib, "comfy.png"))
	if err != nil || comfy == nil {
		t.Fatalf("comfy entry: %v %v", comfy, err)
	}
	if comfy.Record.Source != extract.SourceComfyUI || comfy.Record.Prompt != "a red fox" || comfy.ScanID != summary.ScanID {
		t.Fatalf("unexpected comfy record %+v", comfy.Record)
	}

	a1111, err := store.GetByPath(ctx, filepath.Join(lib, "nested", "a1111.png"))
	if err != nil || a1111 == nil {
		t.Fatalf("a1111 entry: %v %v", a1111, err)
	}
	if a1111.Record.Source != extract.SourceA1111 || a1111.Record.Sampler != "DPM++ 2M" || a1111.Record.Width != 4 {
		t.Fatalf("unexpected a1111 record %+v", a1111.Record)
	}

	plain, err := store.GetByPath(ctx, filepath.Join(lib, "plain.png"))
	if err != nil || plain == nil || plain.HasMetadata() {
		t.Fatalf("expected metadata-less plain entry, got %+v %v", plain, err)
	}

	output := logs.String()
	for _, want := range []string{`"msg":"scan complete"`, `"msg":"file skipped"`, `"event_type":"file_skipped"`, `"scan_id":"` + summary.ScanID + `"`, `"component":"scanner"`} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %s in logs:\n%s", want, output)
		}
	}
}

func TestRunIsIncremental(t *testing.T) {
	cfg, store, sc, _ := newFixture(t)
	lib := testsupport.LibraryDir(cfg)
	writeLibrary(t, lib)
	ctx := context.Background()

	if _, err := sc.Run(ctx, cfg.Paths.LibraryDirs, false); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	second, err := sc.Run(ctx, cfg.Paths.LibraryDirs, false)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if second.Unchanged != 3 || second.Indexed != 0 || second.Failed != 1 {
		t.Fatalf("unexpected incremental summary %+v", second)
	}

	forced, err := sc.Run(ctx, cfg.Paths.LibraryDirs, true)
	if err != nil {
		t.Fatalf("forced Run: %v", err)
	}
	if forced.Unchanged != 0 || forced.Indexed != 3 {
		t.Fatalf("unexpected forced summary %+v", forced)
	}

	entry, err := store.GetByPath(ctx, filepath.Join(lib, "comfy.png"))
	if err != nil || entry == nil || entry.ScanID != forced.ScanID {
		t.Fatalf("expected forced scan to restamp entry, got %+v %v", entry, err)
	}
	if count, _ := store.Count(ctx, index.Query{}); count != 3 {
		t.Fatalf("expected 3 rows after rescans, got %d", count)
	}
}

func TestRunRejectsConcurrentScan(t *testing.T) {
	cfg, _, sc, _ := newFixture(t)
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock: %v %v", ok, err)
	}
	defer lock.Unlock()

	_, err = sc.Run(context.Background(), cfg.Paths.LibraryDirs, false)
	if !errors.Is(err, scanner.ErrScanInProgress) {
		t.Fatalf("expected ErrScanInProgress, got %v", err)
	}
}

func TestRunRequiresRoots(t *testing.T) {
	_, _, sc, _ := newFixture(t)
	_, err := sc.Run(context.Background(), nil, false)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	cfg, _, sc, _ := newFixture(t)
	writeLibrary(t, testsupport.LibraryDir(cfg))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sc.Run(ctx, cfg.Paths.LibraryDirs, false); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type stubExtractor struct {
	err error
}

func (s stubExtractor) ExtractFile(_ context.Context, path string) (extract.Record, error) {
	return extract.Record{Path: path}, s.err
}

type failingIndex struct{}

func (failingIndex) Unchanged(context.Context, string, int64, time.Time) (bool, error) {
	return false, nil
}

func (failingIndex) Upsert(context.Context, extract.Record, string) (int64, error) {
	return 0, errors.New("disk full")
}

func TestRunCountsStoreFailures(t *testing.T) {
	root := t.TempDir()
	testsupport.WriteFile(t, filepath.Join(root, "a.png"), 1)
	testsupport.WriteFile(t, filepath.Join(root, "b.png"), 1)

	sc := scanner.New(scanner.Options{Workers: 3, Walk: scanner.WalkOptions{Extensions: []string{".png"}}},
		stubExtractor{}, failingIndex{}, nil)
	summary, err := sc.Run(context.Background(), []string{root}, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Failed != 2 || summary.Indexed != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if !strings.Contains(summary.Failures[0].Err.Error(), "disk full") {
		t.Fatalf("unexpected failure %v", summary.Failures[0].Err)
	}
	if _, statErr := os.Stat(filepath.Join(root, "index.lock")); statErr == nil {
		t.Fatal("no lock file expected without a lock path")
	}
}
