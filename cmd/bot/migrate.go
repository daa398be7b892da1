package main

import (
	"github.com/spf13/cobra"

	"github.com/ignatzorin/scam-report-bot/internal/db"
	"github.com/ignatzorin/scam-report-bot/internal/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			conn, err := db.NewPostgres(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer safeClose(conn)

			applied, err := db.RunMigrations(cmd.Context(), conn, cfg.MigrationsPath)
			if err != nil {
				return err
			}
			logger.Log.WithField("applied", len(applied)).Info("migrations complete")
			return nil
		},
	}
}
