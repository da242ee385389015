package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"promptindex/internal/config"
	"promptindex/internal/extract"
	"promptindex/internal/index"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize the index contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *index.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, stats)
				}
				fmt.Fprint(cmd.OutOrStdout(), renderStats(stats))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output statistics as JSON")
	return cmd
}

func renderStats(stats index.Stats) string {
	var b strings.Builder

	rows := [][]string{
		{"Total records", strconv.Itoa(stats.Total)},
		{"With metadata", strconv.Itoa(stats.WithMetadata)},
		{"Without metadata", strconv.Itoa(stats.WithoutMetadata)},
	}
	sources := make([]extract.Source, 0, len(stats.BySource))
	for source := range stats.BySource {
		sources = append(sources, source)
	}
	slices.Sort(sources)
	for _, source := range sources {
		rows = append(rows, []string{"Source: " + sourceLabel(source), strconv.Itoa(stats.BySource[source])})
	}
	rows = append(rows, []string{"Last indexed", formatTimestamp(stats.LastIndexedAt)})
	b.WriteString(renderTable([]string{"Index", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
	b.WriteByte('\n')

	for _, section := range []struct {
		title  string
		counts []index.Count
	}{
		{"Model", stats.TopModels},
		{"Sampler", stats.TopSamplers},
		{"LoRA", stats.TopLoras},
	} {
		if len(section.counts) == 0 {
			continue
		}
		rows := make([][]string, 0, len(section.counts))
		for _, c := range section.counts {
			rows = append(rows, []string{c.Name, strconv.Itoa(c.Count)})
		}
		b.WriteString(renderTable([]string{"Top " + section.title, "Records"}, rows, []columnAlignment{alignLeft, alignRight}))
		b.WriteByte('\n')
	}
	return b.String()
}
