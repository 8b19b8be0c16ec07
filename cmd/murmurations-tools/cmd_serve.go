package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/murmurations/go-murmurations/internal/app"
)

func (c *cli) serveCmd() *cobra.Command {
	var (
		addr  string
		grace time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				c.cfg.Addr = addr
			}
			a, err := app.New(cmd.Context(), c.cfg,
				app.WithLogger(c.logger),
				app.WithShutdownGrace(grace))
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().DurationVar(&grace, "grace", app.DefaultShutdownGrace, "shutdown grace period")
	return cmd
}
