package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"promptindex/internal/config"
	"promptindex/internal/extract"
	"promptindex/internal/media/probe"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "extract <file>...",
		Short: "Print the generation parameters embedded in files without indexing them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := parseFormat(formatFlag)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			engine := extract.NewEngine(probe.New(probe.OptionsFromConfig(cfg)))

			records := make([]extract.Record, 0, len(args))
			var failures []error
			for _, arg := range args {
				path, err := config.ExpandPath(arg)
				if err != nil {
					return err
				}
				rec, err := engine.ExtractFile(cmd.Context(), path)
				switch {
				case errors.Is(err, extract.ErrNoMetadata):
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", rec.Name, err)
				case err != nil:
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", arg, err)
					failures = append(failures, err)
					continue
				}
				records = append(records, rec)
			}
			if len(records) == 0 {
				return fmt.Errorf("no readable files: %w", errors.Join(failures...))
			}

			switch format {
			case formatTable:
				out := cmd.OutOrStdout()
				for i, rec := range records {
					if i > 0 {
						fmt.Fprintln(out)
					}
					fmt.Fprintln(out, renderFields(recordFields(rec)))
				}
				return nil
			default:
				if len(records) == 1 {
					return writeStructured(cmd, format, records[0])
				}
				return writeStructured(cmd, format, records)
			}
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", formatTable, "Output format: table, json, or yaml")
	return cmd
}
