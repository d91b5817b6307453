package repository

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("while opening embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("while preparing migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("while preparing migrations: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration. The migrate instance is not
// closed because that would close db.
func MigrateUp(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("migrate: schema is up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("while applying migrations: %w", err)
	}
	log.Printf("migrate: schema upgraded")
	return nil
}

// MigrateDown reverts every migration
func MigrateDown(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	err = m.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("migrate: nothing to revert")
		return nil
	}
	if err != nil {
		return fmt.Errorf("while reverting migrations: %w", err)
	}
	log.Printf("migrate: schema reverted")
	return nil
}

// SchemaVersion returns the applied migration version and whether it is dirty
func SchemaVersion(db *sql.DB) (uint, bool, error) {
	m, err := newMigrate(db)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("while reading schema version: %w", err)
	}
	return version, dirty, nil
}
