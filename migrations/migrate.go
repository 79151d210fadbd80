package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed server/*.sql engine/*.sql
var embedMigrations embed.FS

// MigrateServer applies the PostgreSQL schema for the remote store server.
func MigrateServer(db *sql.DB) error {
	return migrate(db, "pgx", "server")
}

// MigrateEngine applies the SQLite schema for the engine's local database.
func MigrateEngine(db *sql.DB) error {
	return migrate(db, "sqlite3", "engine")
}

func migrate(db *sql.DB, dialect, dir string) error {
	if db == nil {
		return errors.New("migration error: db is nil")
	}

	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("migration error setting dialect for db: %w", err)
	}

	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}
