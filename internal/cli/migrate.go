package cli

import (
	"taskmanager/internal/logger"
	"taskmanager/internal/repository"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and seed lookup data",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := repository.Open(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if err := repository.Migrate(db); err != nil {
			return err
		}
		if err := repository.Seed(cmd.Context(), db); err != nil {
			return err
		}
		logger.Info().Msg("database migrated")
		return nil
	},
}
