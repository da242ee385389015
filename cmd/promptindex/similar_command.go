package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"promptindex/internal/config"
	"promptindex/internal/index"
)

func newSimilarCommand(ctx *commandContext) *cobra.Command {
	var (
		limit      int
		minScore   float64
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "similar <id|path>",
		Short: "List records whose prompts resemble the given record's prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if minScore < 0 || minScore > 1 {
				return fmt.Errorf("--min-score must be between 0 and 1, got %g", minScore)
			}
			return ctx.withStore(func(_ *config.Config, store *index.Store) error {
				entry, err := resolveEntry(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				matches, err := store.Similar(cmd.Context(), entry.ID, minScore, limit)
				if err != nil {
					return err
				}

				if jsonOutput {
					type similarView struct {
						Score float64 `json:"score"`
						entryView
					}
					views := make([]similarView, 0, len(matches))
					for _, m := range matches {
						views = append(views, similarView{Score: m.Score, entryView: newEntryView(m.Entry)})
					}
					return writeJSON(cmd, views)
				}

				out := cmd.OutOrStdout()
				if len(matches) == 0 {
					fmt.Fprintln(out, "No similar records")
					return nil
				}
				rows := make([][]string, 0, len(matches))
				for _, m := range matches {
					rows = append(rows, []string{
						strconv.FormatInt(m.Entry.ID, 10),
						strconv.FormatFloat(m.Score, 'f', 3, 64),
						m.Entry.Record.Name,
						truncate(m.Entry.Record.Prompt, promptColumnWidth),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Score", "File", "Prompt"},
					rows,
					[]columnAlignment{alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum results")
	cmd.Flags().Float64Var(&minScore, "min-score", 0.1, "Minimum similarity score between 0 and 1")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	return cmd
}
