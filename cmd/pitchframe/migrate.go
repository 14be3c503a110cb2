package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zii786/pitchframe/internal/shared/config"
	"github.com/zii786/pitchframe/internal/shared/storage/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	steps := []struct {
		use, short string
		run        func(context.Context, *sql.DB) error
	}{
		{"up", "Apply pending migrations", db.RunMigrations},
		{"status", "Print migration status", db.MigrationStatus},
		{"down", "Roll back the latest migration", db.RollbackLast},
	}
	for _, s := range steps {
		run := s.run
		cmd.AddCommand(&cobra.Command{
			Use:   s.use,
			Short: s.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withDB(cmd.Context(), config.Load(), run)
			},
		})
	}
	return cmd
}

func withDB(ctx context.Context, cfg config.Config, run func(context.Context, *sql.DB) error) error {
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer sqlDB.Close()
	return run(ctx, sqlDB)
}
