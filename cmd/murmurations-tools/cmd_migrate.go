package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/murmurations/go-murmurations/internal/config"
	"github.com/murmurations/go-murmurations/internal/store/sqlite"
)

func (c *cli) migrateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the SQLite schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path == "" {
				if c.cfg.Storage.Driver != config.DriverSQLite {
					return errors.New("migrate: storage driver is not sqlite; pass --path")
				}
				path = c.cfg.Storage.Path
			}
			st, err := sqlite.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			if err := st.Close(); err != nil {
				return err
			}
			c.logger.Info("migrations applied", zap.String("path", path))
			_, err = fmt.Fprintf(c.stdout, "migrations applied to %s\n", path)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "SQLite database file (defaults to storage.path)")
	return cmd
}
