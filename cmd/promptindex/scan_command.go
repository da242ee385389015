package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"promptindex/internal/config"
	"promptindex/internal/extract"
	"promptindex/internal/index"
	"promptindex/internal/logging"
	"promptindex/internal/media/probe"
	"promptindex/internal/preflight"
	"promptindex/internal/scanner"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan [dir...]",
		Short: "Index media files under the given directories (default: paths.library_dirs)",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, store *index.Store) error {
				roots := cfg.Paths.LibraryDirs
				if len(args) > 0 {
					roots = make([]string, 0, len(args))
					for _, arg := range args {
						path, err := config.ExpandPath(arg)
						if err != nil {
							return err
						}
						roots = append(roots, path)
					}
				}

				if failed := preflight.Failed(preflight.RunScan(cmd.Context(), cfg, roots)); len(failed) > 0 {
					for _, r := range failed {
						logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
							logging.String("check", r.Name),
							logging.String("detail", r.Detail),
							logging.String(logging.FieldErrorHint, "fix the directory permissions or run promptindex doctor"),
						)
					}
					return fmt.Errorf("preflight failed: %s: %s", failed[0].Name, failed[0].Detail)
				}

				engine := extract.NewEngine(probe.New(probe.OptionsFromConfig(cfg)))
				scan := scanner.New(scanner.OptionsFromConfig(cfg), engine, store, logger)
				summary, runErr := scan.Run(cmd.Context(), roots, force)
				if runErr != nil && summary.Discovered == 0 {
					return runErr
				}

				if jsonOutput {
					if err := writeJSON(cmd, newSummaryView(summary)); err != nil {
						return err
					}
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), renderScanSummary(summary))
				}
				return runErr
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-extract files even when size and modification time are unchanged")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the scan summary as JSON")
	return cmd
}

type failureView struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type summaryView struct {
	ScanID       string        `json:"scanId"`
	Discovered   int           `json:"discovered"`
	Indexed      int           `json:"indexed"`
	WithMetadata int           `json:"withMetadata"`
	NoMetadata   int           `json:"noMetadata"`
	Unchanged    int           `json:"unchanged"`
	Failed       int           `json:"failed"`
	Failures     []failureView `json:"failures"`
	DurationMS   int64         `json:"durationMs"`
}

func newSummaryView(s scanner.Summary) summaryView {
	view := summaryView{
		ScanID:       s.ScanID,
		Discovered:   s.Discovered,
		Indexed:      s.Indexed,
		WithMetadata: s.WithMetadata,
		NoMetadata:   s.NoMetadata,
		Unchanged:    s.Unchanged,
		Failed:       s.Failed,
		Failures:     make([]failureView, 0, len(s.Failures)),
		DurationMS:   s.Duration.Milliseconds(),
	}
	for _, f := range s.Failures {
		view.Failures = append(view.Failures, failureView{Path: f.Path, Error: f.Err.Error()})
	}
	return view
}

func renderScanSummary(s scanner.Summary) string {
	rows := [][]string{
		{"Discovered", strconv.Itoa(s.Discovered)},
		{"Indexed", strconv.Itoa(s.Indexed)},
		{"With metadata", strconv.Itoa(s.WithMetadata)},
		{"Without metadata", strconv.Itoa(s.NoMetadata)},
		{"Unchanged", strconv.Itoa(s.Unchanged)},
		{"Failed", strconv.Itoa(s.Failed)},
	}
	out := renderTable([]string{"Scan " + shortID(s.ScanID), "Files"}, rows, []columnAlignment{alignLeft, alignRight})
	out += fmt.Sprintf("\nCompleted in %s", s.Duration.Round(time.Millisecond))
	if len(s.Failures) == 0 {
		return out
	}
	failures := make([][]string, 0, len(s.Failures))
	for _, f := range s.Failures {
		failures = append(failures, []string{f.Path, truncate(f.Err.Error(), 80)})
	}
	return out + "\n" + renderTable([]string{"Failed file", "Error"}, failures, nil)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
