package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

// recordRepository is the PostgreSQL-backed implementation of
// [RecordRepository]. One row per (user, data type) carries the latest
// ciphertext envelope and its monotonically increasing version.
type recordRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewRecordRepository constructs a [RecordRepository] backed by the provided
// database connection and logger.
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	logger.Debug().Msg("creating record repository")
	return &recordRepository{
		db:     db,
		logger: logger,
	}
}

// GetRecord returns the current record for (userID, dataType), or
// [ErrRecordNotFound] when the pair was never pushed.
func (r *recordRepository) GetRecord(ctx context.Context, userID int64, dataType models.DataType) (models.RemoteRecord, error) {
	log := logger.FromContext(ctx)

	var record models.RemoteRecord
	row := r.db.QueryRowContext(ctx, getSyncRecord, userID, dataType)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*recordRepository.GetRecord").Int64("user_id", userID).Msg("error: row is nil")
		return models.RemoteRecord{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := row.Scan(&record.DataType, &record.Version, &record.Envelope, &record.ItemsCount, &record.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RemoteRecord{}, ErrRecordNotFound
		}
		log.Err(err).Str("func", "*recordRepository.GetRecord").Int64("user_id", userID).Msg("error: scanning error")
		return models.RemoteRecord{}, err
	}

	return record, nil
}

// UpsertRecord applies one optimistic-locking push inside a transaction:
// the stored row is locked, its version compared against push.BaseVersion,
// and only a match allows the update. A first push requires BaseVersion 0.
//
// On a version mismatch the current record is returned together with
// [ErrRecordVersionConflict] so the handler can answer 409 with the server
// state in one round trip.
func (r *recordRepository) UpsertRecord(ctx context.Context, userID int64, push models.PushRequest) (models.RemoteRecord, error) {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*recordRepository.UpsertRecord").Int64("user_id", userID).Msg("error beginning transaction")
		return models.RemoteRecord{}, fmt.Errorf("%w: %v", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	current := models.RemoteRecord{DataType: push.DataType}
	row := tx.QueryRowContext(ctx, getSyncRecordForUpdate, userID, push.DataType)
	err = row.Scan(&current.Version, &current.Envelope, &current.ItemsCount, &current.UpdatedAt)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		// first push for this data type
		if push.BaseVersion != 0 {
			return models.RemoteRecord{}, ErrRecordVersionConflict
		}

		record := models.RemoteRecord{DataType: push.DataType, Envelope: push.Envelope, ItemsCount: push.ItemsCount}
		insertRow := tx.QueryRowContext(ctx, insertSyncRecord, userID, push.DataType, push.Envelope, push.ItemsCount)
		if err = insertRow.Scan(&record.Version, &record.UpdatedAt); err != nil {
			log.Err(err).Str("func", "*recordRepository.UpsertRecord").Int64("user_id", userID).Msg("error inserting first record version")
			return models.RemoteRecord{}, fmt.Errorf("unexpected DB error: %w", err)
		}

		if err = tx.Commit(); err != nil {
			return models.RemoteRecord{}, fmt.Errorf("%w: %v", ErrCommitingTransaction, err)
		}
		return record, nil

	case err != nil:
		log.Err(err).Str("func", "*recordRepository.UpsertRecord").Int64("user_id", userID).Msg("error locking current record")
		return models.RemoteRecord{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if current.Version != push.BaseVersion {
		// another device pushed since the client last observed the server
		return current, ErrRecordVersionConflict
	}

	record := models.RemoteRecord{DataType: push.DataType, Envelope: push.Envelope, ItemsCount: push.ItemsCount}
	updateRow := tx.QueryRowContext(ctx, updateSyncRecord, push.Envelope, push.ItemsCount, userID, push.DataType)
	if err = updateRow.Scan(&record.Version, &record.UpdatedAt); err != nil {
		log.Err(err).Str("func", "*recordRepository.UpsertRecord").Int64("user_id", userID).Msg("error updating record version")
		return models.RemoteRecord{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return models.RemoteRecord{}, fmt.Errorf("%w: %v", ErrCommitingTransaction, err)
	}

	return record, nil
}
