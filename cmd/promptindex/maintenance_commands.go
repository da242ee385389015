package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"promptindex/internal/config"
	"promptindex/internal/index"
	"promptindex/internal/logging"
)

func newPruneCommand(ctx *commandContext) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Remove index entries whose files no longer exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, store *index.Store) error {
				removed, err := store.Prune(cmd.Context(), index.FileExists)
				if err != nil {
					return err
				}
				logging.NewComponentLogger(logger, "index").Info("pruned missing files",
					logging.Int("removed", len(removed)),
				)
				out := cmd.OutOrStdout()
				if verbose {
					for _, path := range removed {
						fmt.Fprintln(out, path)
					}
				}
				fmt.Fprintf(out, "Removed %d missing file(s) from the index\n", len(removed))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List removed paths")
	return cmd
}

func newClearCommand(ctx *commandContext) *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every record from the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return errors.New("refusing to clear the index without --yes")
			}
			return ctx.withStore(func(_ *config.Config, store *index.Store) error {
				removed, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s)\n", removed)
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm clearing the index")
	return cmd
}
