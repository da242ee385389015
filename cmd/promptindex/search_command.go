package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"promptindex/internal/config"
	"promptindex/internal/extract"
	"promptindex/internal/index"
)

const promptColumnWidth = 60

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var (
		query      index.Query
		source     string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search indexed records by prompt text, model, sampler, LoRA, or source",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				query.Text = strings.TrimSpace(strings.Join(append([]string{query.Text}, args...), " "))
			}
			if source != "" {
				parsed, err := parseSource(source)
				if err != nil {
					return err
				}
				query.Source = parsed
			}
			return ctx.withStore(func(cfg *config.Config, store *index.Store) error {
				if query.Limit <= 0 {
					query.Limit = cfg.Search.DefaultLimit
				}
				entries, err := store.Search(cmd.Context(), query)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, newEntryViews(entries))
				}

				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No matching records")
					return nil
				}
				total, err := store.Count(cmd.Context(), query)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderEntryTable(entries))
				fmt.Fprintf(out, "Showing %d-%d of %d\n", query.Offset+1, query.Offset+len(entries), total)
				return nil
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&query.Text, "text", "t", "", "Match prompt, negative prompt, model, or LoRA names")
	flags.StringVarP(&query.Model, "model", "m", "", "Filter by model name substring")
	flags.StringVar(&query.Sampler, "sampler", "", "Filter by sampler name substring")
	flags.StringVar(&query.Lora, "lora", "", "Filter by LoRA name substring")
	flags.StringVar(&source, "source", "", "Filter by source: comfyui, a1111, or unknown")
	flags.BoolVar(&query.MetadataOnly, "with-metadata", false, "Only records with generation metadata")
	flags.IntVarP(&query.Limit, "limit", "n", 0, "Maximum results (default search.default_limit)")
	flags.IntVar(&query.Offset, "offset", 0, "Skip this many results")
	flags.BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	return cmd
}

func parseSource(value string) (extract.Source, error) {
	switch source := extract.Source(strings.ToLower(strings.TrimSpace(value))); source {
	case extract.SourceComfyUI, extract.SourceA1111, extract.SourceUnknown:
		return source, nil
	default:
		return "", fmt.Errorf("unknown source %q (want comfyui, a1111, or unknown)", value)
	}
}

func renderEntryTable(entries []*index.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		rec := entry.Record
		rows = append(rows, []string{
			strconv.FormatInt(entry.ID, 10),
			rec.Name,
			sourceLabel(rec.Source),
			truncate(derefOr(rec.Model, "-"), 30),
			orDash(rec.Sampler),
			truncate(rec.Prompt, promptColumnWidth),
		})
	}
	return renderTable(
		[]string{"ID", "File", "Source", "Model", "Sampler", "Prompt"},
		rows,
		[]columnAlignment{alignRight},
	)
}
