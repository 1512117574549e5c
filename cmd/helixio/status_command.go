package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show library and similarity status",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.store.CheckHealth(cmd.Context()); err != nil {
				return fmt.Errorf("database health check: %w", err)
			}

			stats, err := rt.library.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonFlag {
				return writeJSON(cmd, map[string]any{
					"databasePath": rt.cfg.DatabasePath(),
					"stats":        stats,
				})
			}

			out := cmd.OutOrStdout()
			health := "healthy"
			if isTerminal(out) {
				health = ansiGreen + health + ansiReset
			}
			fmt.Fprintf(out, "Database:      %s (%s)\n", rt.cfg.DatabasePath(), health)
			fmt.Fprintf(out, "Series:        %d\n", stats.SeriesCount)
			fmt.Fprintf(out, "Mappings:      %d\n", stats.MappingCount)
			fmt.Fprintf(out, "Scored pairs:  %d\n", stats.Similarity.PairCount)
			if stats.Similarity.LastComputed != nil {
				fmt.Fprintf(out, "Last computed: %s\n", stats.Similarity.LastComputed.Local().Format(time.RFC1123))
			} else {
				fmt.Fprintln(out, "Last computed: never")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Emit JSON output")
	return cmd
}
