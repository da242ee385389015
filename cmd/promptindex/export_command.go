package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"promptindex/internal/config"
	"promptindex/internal/fileutil"
	"promptindex/internal/index"
	"promptindex/internal/textutil"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	var (
		outputPath string
		overwrite  bool
	)

	cmd := &cobra.Command{
		Use:   "export <id|path>",
		Short: "Write the embedded workflow payload of an indexed record to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *index.Store) error {
				entry, err := resolveEntry(cmd.Context(), store, args[0])
				if err != nil {
					return err
				}
				if entry.Record.Workflow == nil {
					return fmt.Errorf("%s has no embedded workflow to export", entry.Record.Name)
				}
				payload := *entry.Record.Workflow
				if !strings.HasSuffix(payload, "\n") {
					payload += "\n"
				}

				target := strings.TrimSpace(outputPath)
				if target == "-" {
					_, err := fmt.Fprint(cmd.OutOrStdout(), payload)
					return err
				}
				if target == "" {
					target = textutil.WorkflowFileName(entry.Record.Name)
				}
				target, err = config.ExpandPath(target)
				if err != nil {
					return err
				}
				if err := fileutil.WriteNew(target, []byte(payload), overwrite); err != nil {
					if errors.Is(err, fileutil.ErrExists) {
						return fmt.Errorf("%w (use --overwrite to replace it)", err)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote workflow for %s to %s\n", entry.Record.Name, filepath.Clean(target))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file, or - for stdout (default <name>.workflow.json)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the destination if it exists")
	return cmd
}
