package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rmitchellscott/ditherstudio/internal/config"
	"github.com/rmitchellscott/ditherstudio/internal/logging"
)

var DB *gorm.DB

// Initialize opens the configured database, runs migrations and stores the
// handle in DB.
func Initialize(cfg config.Database, ginMode string) error {
	db, err := Open(cfg, ginMode)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	DB = db
	logging.InfoWithComponent(logging.ComponentDatabase, "Database initialized", "type", cfg.Type)
	return nil
}

// Open connects to the database described by cfg without migrating it.
func Open(cfg config.Database, ginMode string) (*gorm.DB, error) {
	switch cfg.Type {
	case "postgres":
		return openPostgres(cfg, ginMode)
	case "sqlite":
		return openSQLite(cfg.Path, ginMode)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

func openPostgres(cfg config.Database, ginMode string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: getGormLogger(ginMode),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// openSQLite opens path, which may be ":memory:".
func openSQLite(path, ginMode string) (*gorm.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path+"?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: getGormLogger(ginMode),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite doesn't support concurrent writes; one connection also keeps
	// an in-memory database alive for the life of the pool.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, err
	}
	var fkEnabled int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&fkEnabled).Error; err != nil {
		return nil, fmt.Errorf("failed to check foreign keys status: %w", err)
	}
	if fkEnabled != 1 {
		return nil, fmt.Errorf("foreign keys are not enabled (got %d, expected 1)", fkEnabled)
	}

	return db, nil
}

// getGormLogger logs SQL only in gin debug mode.
func getGormLogger(ginMode string) logger.Interface {
	logLevel := logger.Warn
	if ginMode == "debug" {
		logLevel = logger.Info
	}
	return logger.Default.LogMode(logLevel)
}

// GetDB returns the handle opened by Initialize.
func GetDB() *gorm.DB {
	return DB
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
