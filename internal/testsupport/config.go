package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"promptindex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The library directory is created; ffprobe is disabled unless an option
// enables it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.IndexDir = filepath.Join(base, "index")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.LibraryDirs = []string{filepath.Join(base, "library")}
	cfgVal.Scan.Workers = 2
	cfgVal.FFprobe.Enabled = false

	if err := os.MkdirAll(cfgVal.Paths.LibraryDirs[0], 0o755); err != nil {
		t.Fatalf("mkdir library dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWorkers overrides the scan worker count.
func WithWorkers(n int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scan.Workers = n
	}
}

// WithStubbedFFprobe writes a stub ffprobe that prints output and enables
// video inspection through it.
func WithStubbedFFprobe(output string) ConfigOption {
	return func(b *configBuilder) {
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		target := filepath.Join(binDir, "ffprobe")
		script := "#!/bin/sh\ncat <<'JSON'\n" + output + "\nJSON\n"
		if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
			b.t.Fatalf("write stub ffprobe: %v", err)
		}
		b.cfg.FFprobe.Enabled = true
		b.cfg.FFprobe.Binary = target
	}
}

// LibraryDir returns the first library directory of a generated config.
func LibraryDir(cfg *config.Config) string {
	return cfg.Paths.LibraryDirs[0]
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.IndexDir)
}
