package preflight

import (
	"context"

	"promptindex/internal/config"
)

// Result reports the outcome of a single preflight check. Optional results
// never fail a run.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	results := RunScan(ctx, cfg, cfg.Paths.LibraryDirs)
	return append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
}

// RunScan executes the checks a scan of roots depends on: a writable index
// directory, readable roots, and ffprobe when video inspection is enabled.
func RunScan(ctx context.Context, cfg *config.Config, roots []string) []Result {
	if cfg == nil {
		return nil
	}
	results := []Result{CheckDirectoryAccess("Index directory", cfg.Paths.IndexDir)}
	for _, dir := range roots {
		results = append(results, CheckReadableDirectory("Library directory", dir))
	}
	if cfg.FFprobe.Enabled {
		results = append(results, CheckFFprobe(ctx, cfg.FFprobe.Binary))
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
