package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"helixio/internal/daemon"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the helixio daemon",
		Long:  "Starts the daemon: it serves the HTTP API and keeps similarity scores fresh on a schedule.",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := ctx.openRuntime()
			if err != nil {
				return err
			}

			d, err := daemon.New(rt.cfg, rt.store, rt.library, rt.logger)
			if err != nil {
				rt.Close()
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(runCtx); err != nil {
				d.Close()
				return fmt.Errorf("start daemon: %w", err)
			}

			<-runCtx.Done()
			return d.Close()
		},
	}
}
