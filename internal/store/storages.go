package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
)

// Storages groups the server-side repositories into a single value passed to
// the service layer.
type Storages struct {
	UserRepository   UserRepository
	RecordRepository RecordRepository
	DeviceRepository DeviceRepository
}

// NewStorages initialises the server storage layer: it opens the PostgreSQL
// connection, runs pending schema migrations, and wires the repositories.
func NewStorages(cfg config.Storage, logger *logger.Logger) (*Storages, error) {
	logger.Info().Msg("creating server storages...")

	db, err := NewConnectPostgres(context.Background(), cfg.DB, logger)
	if err != nil {
		return nil, fmt.Errorf("postgres connection error: %w", err)
	}

	if err := db.MigrateServer(); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return &Storages{
		UserRepository:   NewUserRepository(db, logger),
		RecordRepository: NewRecordRepository(db, logger),
		DeviceRepository: NewDeviceRepository(db, logger),
	}, nil
}
