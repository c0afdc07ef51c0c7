package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/frahmantamala/rbac-admin/internal"
	"github.com/glebarez/sqlite"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// newGormLogger logs slow queries and real failures. Lookups that miss are
// expected and stay quiet.
func newGormLogger(w io.Writer) gormLogger.Interface {
	return gormLogger.New(log.New(w, "\r\n", log.LstdFlags), gormLogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormLogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// openDatabase returns the gorm handle used by the repositories and an sqlx
// view over the same pool for the hand-written queries.
func openDatabase(ctx context.Context, cfg internal.DatabaseConfig) (*gorm.DB, *sqlx.DB, error) {
	var (
		dialector gorm.Dialector
		sqlxName  string
	)
	switch cfg.Driver {
	case "postgres":
		dialector, sqlxName = postgres.Open(cfg.GetDSN()), "pgx"
	case "mysql":
		dialector, sqlxName = mysql.Open(cfg.GetDSN()), "mysql"
	case "sqlite":
		// sqlx only uses the name to pick the bindvar style.
		dialector, sqlxName = sqlite.Open(cfg.GetDSN()), "sqlite3"
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(os.Stdout),
		TranslateError: true,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	if cfg.Driver == "sqlite" && strings.Contains(cfg.GetDSN(), ":memory:") {
		sqlDB.SetMaxOpenConns(1)
	}

	pingCtx, cancel := internal.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return gdb, sqlx.NewDb(sqlDB, sqlxName), nil
}

func gooseDialect(driver string) string {
	if driver == "sqlite" {
		return "sqlite3"
	}
	return driver
}
