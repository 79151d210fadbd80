package store

import (
	"database/sql"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/migrations"
)

// DB wraps a database/sql connection together with the error classificator
// appropriate for its backend. The same type serves both the server's
// PostgreSQL connection and the engine's local SQLite file.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
}

// ErrorClassificator decides whether a failed database operation is worth
// retrying. The PostgreSQL implementation inspects driver error codes;
// SQLite connections leave it nil and treat every failure as terminal.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// MigrateServer applies the PostgreSQL schema migrations.
func (db *DB) MigrateServer() error {
	return migrations.MigrateServer(db.DB)
}

// MigrateEngine applies the engine's local SQLite schema migrations.
func (db *DB) MigrateEngine() error {
	return migrations.MigrateEngine(db.DB)
}
