package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

type snapshotRepository struct {
	*DB
	logger *logger.Logger
}

func NewSnapshotRepository(db *DB, logger *logger.Logger) SnapshotRepository {
	return &snapshotRepository{
		DB:     db,
		logger: logger,
	}
}

func (s *snapshotRepository) SaveSnapshot(ctx context.Context, snapshot models.SyncSnapshot) (models.SyncSnapshot, error) {
	log := logger.FromContext(ctx)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.SaveSnapshot").
			Int64("user_id", snapshot.UserID).
			Msg("failed to begin snapshot transaction")
		return models.SyncSnapshot{}, fmt.Errorf("%w: %v", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	// version allocation and the insert share one transaction so concurrent
	// writers cannot claim the same version
	if err = tx.QueryRowContext(ctx, nextSnapshotVersion, snapshot.UserID, snapshot.DataType).Scan(&snapshot.Version); err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.SaveSnapshot").
			Int64("user_id", snapshot.UserID).
			Str("data_type", string(snapshot.DataType)).
			Msg("failed to allocate next snapshot version")
		return models.SyncSnapshot{}, fmt.Errorf("failed to allocate snapshot version: %w", err)
	}

	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}

	result, err := tx.ExecContext(ctx, insertSnapshot,
		snapshot.UserID,
		snapshot.DataType,
		snapshot.Version,
		snapshot.ServerVersion,
		snapshot.Operation,
		snapshot.SyncStatus,
		snapshot.ItemsCount,
		snapshot.DeviceID,
		snapshot.Current,
		snapshot.CreatedAt,
		snapshot.ErrorMessage,
		snapshot.Envelope,
	)
	if err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.SaveSnapshot").
			Int64("user_id", snapshot.UserID).
			Str("data_type", string(snapshot.DataType)).
			Msg("failed to insert snapshot")
		return models.SyncSnapshot{}, fmt.Errorf("failed to insert snapshot: %w", err)
	}

	snapshot.ID, err = result.LastInsertId()
	if err != nil {
		return models.SyncSnapshot{}, fmt.Errorf("failed to read inserted snapshot id: %w", err)
	}

	if snapshot.Current {
		if _, err = tx.ExecContext(ctx, clearCurrentSnapshot, snapshot.UserID, snapshot.DataType, snapshot.ID); err != nil {
			log.Err(err).
				Str("func", "snapshotRepository.SaveSnapshot").
				Int64("user_id", snapshot.UserID).
				Str("data_type", string(snapshot.DataType)).
				Msg("failed to clear previous current snapshot")
			return models.SyncSnapshot{}, fmt.Errorf("failed to clear previous current snapshot: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return models.SyncSnapshot{}, fmt.Errorf("%w: %v", ErrCommitingTransaction, err)
	}

	return snapshot, nil
}

func (s *snapshotRepository) GetSnapshots(ctx context.Context, userID int64, dataType models.DataType, limit int) ([]models.SyncSnapshot, error) {
	log := logger.FromContext(ctx)

	rows, err := s.DB.QueryContext(ctx, getSnapshots, userID, dataType, limit)
	if err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.GetSnapshots").
			Int64("user_id", userID).
			Str("data_type", string(dataType)).
			Msg("failed to query snapshots")
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []models.SyncSnapshot

	for rows.Next() {
		snapshot, scanErr := scanSnapshot(rows.Scan)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "snapshotRepository.GetSnapshots").
				Int64("user_id", userID).
				Msg("failed to scan snapshot row")
			return nil, fmt.Errorf("%w: %v", ErrScanningRows, scanErr)
		}
		snapshots = append(snapshots, snapshot)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", rowsErr)
	}

	return snapshots, nil
}

func (s *snapshotRepository) GetSnapshotByVersion(ctx context.Context, userID int64, dataType models.DataType, version int64) (models.SyncSnapshot, error) {
	row := s.DB.QueryRowContext(ctx, getSnapshotByVersion, userID, dataType, version)
	snapshot, err := scanSnapshot(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SyncSnapshot{}, ErrSnapshotNotFound
		}
		return models.SyncSnapshot{}, fmt.Errorf("%w: %v", ErrScanningRow, err)
	}

	return snapshot, nil
}

func (s *snapshotRepository) GetCurrentSnapshot(ctx context.Context, userID int64, dataType models.DataType) (models.SyncSnapshot, error) {
	row := s.DB.QueryRowContext(ctx, getCurrentSnapshot, userID, dataType)
	snapshot, err := scanSnapshot(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SyncSnapshot{}, ErrSnapshotNotFound
		}
		return models.SyncSnapshot{}, fmt.Errorf("%w: %v", ErrScanningRow, err)
	}

	return snapshot, nil
}

func (s *snapshotRepository) SetCurrent(ctx context.Context, userID int64, dataType models.DataType, snapshotID int64) error {
	log := logger.FromContext(ctx)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, clearCurrentSnapshot, userID, dataType, snapshotID); err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.SetCurrent").
			Int64("user_id", userID).
			Str("data_type", string(dataType)).
			Msg("failed to clear current snapshot marker")
		return fmt.Errorf("failed to clear current snapshot marker: %w", err)
	}

	result, err := tx.ExecContext(ctx, markCurrentSnapshot, userID, dataType, snapshotID)
	if err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.SetCurrent").
			Int64("user_id", userID).
			Int64("snapshot_id", snapshotID).
			Msg("failed to mark snapshot current")
		return fmt.Errorf("failed to mark snapshot current: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSnapshotNotFound
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrCommitingTransaction, err)
	}

	return nil
}

func (s *snapshotRepository) PruneSnapshots(ctx context.Context, userID int64, dataType models.DataType, keep int) error {
	log := logger.FromContext(ctx)

	_, err := s.DB.ExecContext(ctx, pruneSnapshots, userID, dataType, keep)
	if err != nil {
		log.Err(err).
			Str("func", "snapshotRepository.PruneSnapshots").
			Int64("user_id", userID).
			Str("data_type", string(dataType)).
			Msg("failed to prune snapshots")
		return fmt.Errorf("failed to prune snapshots: %w", err)
	}

	return nil
}

func scanSnapshot(scan func(dest ...any) error) (models.SyncSnapshot, error) {
	var snapshot models.SyncSnapshot
	err := scan(
		&snapshot.ID,
		&snapshot.UserID,
		&snapshot.DataType,
		&snapshot.Version,
		&snapshot.ServerVersion,
		&snapshot.Operation,
		&snapshot.SyncStatus,
		&snapshot.ItemsCount,
		&snapshot.DeviceID,
		&snapshot.Current,
		&snapshot.CreatedAt,
		&snapshot.ErrorMessage,
		&snapshot.Envelope,
	)
	return snapshot, err
}
