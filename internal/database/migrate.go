package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"

	// File source driver for reading migration files from disk.
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func newMigrator(db *sql.DB, migrationsPath string) (*migrate.Migrate, error) {
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return nil, fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "mysql", driver)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

// RunMigrations applies all pending migrations from the given directory.
// golang-migrate records the applied version in schema_migrations, so this
// is safe to call on every startup.
func RunMigrations(db *sql.DB, migrationsPath string) error {
	m, err := newMigrator(db, migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	logVersion(m, "migrations applied")
	return nil
}

// RollbackMigrations reverts the given number of applied migrations.
func RollbackMigrations(db *sql.DB, migrationsPath string, steps int) error {
	if steps < 1 {
		return fmt.Errorf("rollback steps must be positive, got %d", steps)
	}
	m, err := newMigrator(db, migrationsPath)
	if err != nil {
		return err
	}

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rolling back migrations: %w", err)
	}

	logVersion(m, "migrations rolled back")
	return nil
}

func logVersion(m *migrate.Migrate, msg string) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		slog.Info(msg, slog.String("version", "none"))
		return
	}
	slog.Info(msg,
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
}
