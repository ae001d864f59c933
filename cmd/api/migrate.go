package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"pawn-settlement/internal/adapter/repository/mysql"
	"pawn-settlement/internal/infrastructure/db"
)

func migrateCmd(log *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the settlement tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(log)
			if err != nil {
				return err
			}
			gdb, err := db.OpenGorm(cfg.MySQLDSN())
			if err != nil {
				return fmt.Errorf("open mysql: %w", err)
			}
			if err := gdb.WithContext(cmd.Context()).AutoMigrate(mysql.Models()...); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("migration complete", slog.Int("models", len(mysql.Models())))
			return nil
		},
	}
}
