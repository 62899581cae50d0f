package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"homecare-app-server/internal/store"
)

func newMigrateCommand() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and seed default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			db, err := store.Open(cfg.Database.DSN, cfg.IsDevelopment())
			if err != nil {
				return err
			}
			sqlDB, err := db.DB()
			if err != nil {
				return fmt.Errorf("database handle: %w", err)
			}
			defer sqlDB.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := store.Migrate(ctx, db, log); err != nil {
				return err
			}
			log.Info("migrations executed successfully")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Migration timeout")

	return cmd
}
