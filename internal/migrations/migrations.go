// Package migrations owns the relational schema: the append-only events table and the
// tables behind the SQL read models. Files are embedded and applied with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var MigrationFiles embed.FS

// MigrationsTable keeps kinlog's schema version apart from any other tool sharing the database.
const MigrationsTable = "kinlog_schema_migrations"

// nilVersion is golang-migrate's "no version" marker accepted by Force.
const nilVersion = -1

// Status is the schema version currently recorded in the database.
type Status struct {
	Version uint
	Dirty   bool
	Pending bool
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	sourceDriver, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return nil, fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// RunMigrations applies all pending migrations against db.
// If autoMigrate is false, it only logs the current version and leaves the schema alone;
// the adapter's schema check then decides whether the process can start.
func RunMigrations(db *sql.DB, autoMigrate bool) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	if dirty {
		slog.Warn("[Migrations] Database is in dirty state - migration was interrupted",
			"version", version,
			"action", "rolling version back for re-apply",
		)

		// Every up file is written with IF NOT EXISTS, so re-running the interrupted one is safe.
		previous := int(version) - 1
		if previous < 1 {
			previous = nilVersion
		}
		if err := m.Force(previous); err != nil {
			return fmt.Errorf("failed to recover dirty migration state at version %d: %w", version, err)
		}
		slog.Info("[Migrations] Recovered dirty migration state", "forced_version", previous)
	}

	if !autoMigrate {
		slog.Info("[Migrations] Auto-migration disabled, skipping migrations",
			"current_version", version,
			"dirty", dirty,
		)
		return nil
	}

	slog.Info("[Migrations] Running database migrations", "current_version", version)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("[Migrations] Database schema is up to date", "version", version)
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get updated migration version: %w", err)
	}

	slog.Info("[Migrations] Database migrations completed successfully",
		"from_version", version,
		"to_version", newVersion,
	)

	return nil
}

// CurrentStatus reports the recorded schema version and whether embedded files are ahead of it.
func CurrentStatus(db *sql.DB) (Status, error) {
	m, err := newMigrate(db)
	if err != nil {
		return Status{}, err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, fmt.Errorf("failed to get current migration version: %w", err)
	}

	latest, err := LatestVersion()
	if err != nil {
		return Status{}, err
	}

	return Status{Version: version, Dirty: dirty, Pending: version < latest}, nil
}

// LatestVersion returns the highest version among the embedded migration files.
func LatestVersion() (uint, error) {
	src, err := iofs.New(MigrationFiles, ".")
	if err != nil {
		return 0, fmt.Errorf("failed to create migration source: %w", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("no embedded migrations: %w", err)
	}
	for {
		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			return version, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to read migration after %d: %w", version, err)
		}
		version = next
	}
}

