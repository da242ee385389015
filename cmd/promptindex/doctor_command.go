package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"promptindex/internal/config"
	"promptindex/internal/index"
	"promptindex/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, ffprobe, and the index database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			if ctx.configPath != "" {
				lines = append(lines, renderStatusLine("Config file", statusInfo, ctx.configPath, colorize))
			}

			results := preflight.RunAll(cmd.Context(), cfg)
			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Environment", colorize)...)
			for _, r := range results {
				lines = append(lines, renderStatusLine(r.Name, preflightKind(r), r.Detail, colorize))
			}
			if !cfg.FFprobe.Enabled {
				lines = append(lines, renderStatusLine("FFprobe", statusInfo, "disabled; videos are indexed without container tags", colorize))
			}

			lines = append(lines, "")
			lines = append(lines, renderSectionHeader("Index", colorize)...)
			indexLines, indexOK := checkIndex(cmd.Context(), cfg, colorize)
			lines = append(lines, indexLines...)

			fmt.Fprintln(out, strings.Join(lines, "\n"))

			failed := preflight.Failed(results)
			switch {
			case len(failed) > 0:
				return fmt.Errorf("%d check(s) failed", len(failed))
			case !indexOK:
				return fmt.Errorf("index database is unhealthy")
			}
			return nil
		},
	}
}

func preflightKind(r preflight.Result) statusKind {
	switch {
	case r.Passed:
		return statusOK
	case r.Optional:
		return statusWarn
	default:
		return statusError
	}
}

func checkIndex(ctx context.Context, cfg *config.Config, colorize bool) ([]string, bool) {
	store, err := index.Open(cfg)
	if err != nil {
		return []string{renderStatusLine("Database", statusError, err.Error(), colorize)}, false
	}
	defer store.Close()

	health, err := store.CheckHealth(ctx)
	if err != nil {
		return []string{renderStatusLine("Database", statusError, err.Error(), colorize)}, false
	}

	lines := []string{renderStatusLine("Database", statusOK, health.DBPath, colorize)}
	ok := true
	if health.IntegrityCheck {
		lines = append(lines, renderStatusLine("Integrity", statusOK, "", colorize))
	} else {
		lines = append(lines, renderStatusLine("Integrity", statusError, "integrity_check failed", colorize))
		ok = false
	}
	if len(health.MissingColumns) > 0 {
		lines = append(lines, renderStatusLine("Schema", statusError, "missing columns: "+strings.Join(health.MissingColumns, ", "), colorize))
		ok = false
	} else {
		lines = append(lines, renderStatusLine("Schema", statusOK, "version "+strconv.Itoa(health.SchemaVersion), colorize))
	}
	lines = append(lines, renderStatusLine("Records", statusInfo, strconv.Itoa(health.TotalRecords), colorize))
	return lines, ok
}
