package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ignatzorin/scam-report-bot/internal/db"
	"github.com/ignatzorin/scam-report-bot/internal/repository"
	"github.com/ignatzorin/scam-report-bot/internal/service"
)

func newExportCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all reports to a CSV file",
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

			// Файл пишется локально, транспорт не нужен.
			exp, err := service.NewExportService(repository.NewReportRepository(conn), nil).Build(cmd.Context())
			if err != nil {
				return err
			}

			path := filepath.Join(outDir, exp.FileName)
			if err := os.WriteFile(path, exp.Data, 0o600); err != nil {
				return fmt.Errorf("export: write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s\n", path, exp.Caption())
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory for the CSV file")
	return cmd
}
