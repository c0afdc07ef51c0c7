package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	migrations "github.com/frahmantamala/rbac-admin/db"
	"github.com/frahmantamala/rbac-admin/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations for the configured driver",
	}
	migrateRollback bool
	migrateStatus   bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "print applied and pending migrations")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "read migrations from this directory instead of the embedded set")
}

func runMigration(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	gdb, _, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	db, err := gdb.DB()
	if err != nil {
		return err
	}
	defer db.Close()

	action := "up"
	switch {
	case migrateStatus:
		action = "status"
	case migrateRollback:
		action = "down"
	}
	if err := runGoose(ctx, db, cfg.Database.Driver, migrateDir, action); err != nil {
		return err
	}
	logger.LoggerWrapper().Info("migration finished", "action", action, "driver", cfg.Database.Driver)
	return nil
}

// runGoose runs action against the embedded migrations for driver, or the
// ones in dir when it is set.
func runGoose(ctx context.Context, db *sql.DB, driver, dir, action string) error {
	if dir == "" {
		goose.SetBaseFS(migrations.Migrations)
		dir = migrations.MigrationsDir(driver)
	} else {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("migrations dir: %w", err)
		}
		goose.SetBaseFS(nil)
	}

	if err := goose.SetDialect(gooseDialect(driver)); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	goose.SetTableName("schema_migrations")

	if err := goose.RunContext(ctx, action, db, dir); err != nil {
		return fmt.Errorf("goose %s: %w", action, err)
	}
	return nil
}
