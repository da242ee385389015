package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"promptindex/internal/config"
	"promptindex/internal/index"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "show <id|path>",
		Short: "Display an indexed record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(formatFlag)
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *index.Store) error {
				entry, err := resolveEntry(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if format != formatTable {
					return writeStructured(cmd, format, newEntryView(entry))
				}
				rows := append([][]string{{"ID", strconv.FormatInt(entry.ID, 10)}}, recordFields(entry.Record)...)
				rows = append(rows, []string{"Indexed", formatTimestamp(entry.UpdatedAt)})
				fmt.Fprintln(cmd.OutOrStdout(), renderFields(rows))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", formatTable, "Output format: table, json, or yaml")
	return cmd
}
