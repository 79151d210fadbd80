package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
)

// EngineStorages groups the engine-side storage repositories into a single
// value that can be passed around the service layer. All three share one
// SQLite file so the queue, history, and audit log survive restarts together.
type EngineStorages struct {
	// SnapshotRepository holds the append-only version history per data type.
	SnapshotRepository SnapshotRepository

	// QueueRepository holds the durable outbound mutation queue.
	QueueRepository QueueRepository

	// AuditRepository holds the append-only operation log.
	AuditRepository AuditRepository
}

// NewEngineStorages initialises the engine storage layer using the supplied
// configuration and logger. It performs the following steps:
//  1. Opens an SQLite connection to the file path specified in cfg.ClientDB.DSN,
//     creating the database file if it does not yet exist.
//  2. Runs pending schema migrations via [DB.MigrateEngine].
//  3. Constructs and returns an [EngineStorages] value wired to fresh
//     repositories.
//
// Returns an error if the database connection cannot be established or if
// migration fails.
func NewEngineStorages(cfg config.EngineStorage, logger *logger.Logger) (*EngineStorages, error) {
	logger.Info().Msg("creating engine storages...")

	db, err := NewConnectSQLite(context.Background(), cfg.ClientDB, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err := db.MigrateEngine(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &EngineStorages{
		SnapshotRepository: NewSnapshotRepository(db, logger),
		QueueRepository:    NewQueueRepository(db, logger),
		AuditRepository:    NewAuditRepository(db, logger),
	}, nil
}
