package main

// Run database migrations:
//   go run ./cmd/migrate [up|status|down]

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/zii786/pitchframe/internal/shared/config"
	"github.com/zii786/pitchframe/internal/shared/storage/db"
)

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	if err := migrate(context.Background(), config.Load(), cmd); err != nil {
		log.Printf("migrate %s: %v", cmd, err)
		os.Exit(1)
	}
}

var commands = map[string]func(context.Context, *sql.DB) error{
	"up":     db.RunMigrations,
	"status": db.MigrationStatus,
	"down":   db.RollbackLast,
}

func migrate(ctx context.Context, cfg config.Config, cmd string) error {
	run, ok := commands[cmd]
	if !ok {
		return fmt.Errorf("unknown command %q", cmd)
	}
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer sqlDB.Close()
	return run(ctx, sqlDB)
}
