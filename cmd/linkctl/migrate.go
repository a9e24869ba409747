package main

import (
	"github.com/VelisCore/velink/internal/store"
	"github.com/spf13/cobra"
)

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := flags.logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			pool, err := flags.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := store.Migrate(cmd.Context(), pool); err != nil {
				return err
			}

			logger.Info("schema up to date")

			return nil
		},
	}
}
