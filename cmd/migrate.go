package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schedule_bot/internal/config"
	"schedule_bot/internal/logging"
	"schedule_bot/internal/store/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the PostgreSQL schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.StoreDriver != "postgres" {
			return fmt.Errorf("migrate needs STORE_DRIVER=postgres, got %q", cfg.StoreDriver)
		}
		log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

		s, err := postgres.Open(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer s.Close(cmd.Context())

		if err := s.Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Info("migrations applied")
		return nil
	},
}
