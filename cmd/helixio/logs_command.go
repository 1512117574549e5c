package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"helixio/internal/logtail"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		linesFlag  int
		followFlag bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.LogDir, "helixio.log")
			out := cmd.OutOrStdout()

			lines, offset, err := logtail.ReadLast(path, linesFlag)
			if err != nil {
				return err
			}
			if len(lines) == 0 && !followFlag {
				fmt.Fprintln(out, "No log output yet")
				return nil
			}
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}

			if !followFlag {
				return nil
			}
			followCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			err = logtail.Follow(followCtx, path, offset, func(line string) {
				fmt.Fprintln(out, line)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().IntVarP(&linesFlag, "lines", "n", 50, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&followFlag, "follow", "f", false, "Keep printing appended log lines")
	return cmd
}
