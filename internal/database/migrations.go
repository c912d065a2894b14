package database

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite3"
)

// migrationDirs maps a goose dialect to its embedded directory.
var migrationDirs = map[string]string{
	DialectPostgres: "migrations/postgres",
	DialectSQLite:   "migrations/sqlite",
}

// RunMigrations executes all pending embedded migrations for dialect.
func RunMigrations(db *sql.DB, dialect string, logger *zap.Logger) error {
	dir, ok := migrationDirs[dialect]
	if !ok {
		return fmt.Errorf("no migrations for dialect %q", dialect)
	}

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	logger.Debug("Checking for pending migrations...", zap.String("dialect", dialect), zap.String("dir", dir))

	if err := goose.Up(db, dir); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Debug("Migrations completed successfully", zap.String("dialect", dialect))
	return nil
}

// MigrationVersion returns the schema version applied to db.
func MigrationVersion(db *sql.DB, dialect string) (int64, error) {
	if _, ok := migrationDirs[dialect]; !ok {
		return 0, fmt.Errorf("no migrations for dialect %q", dialect)
	}
	if err := goose.SetDialect(dialect); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
