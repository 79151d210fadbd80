// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

// deviceRepository is the PostgreSQL-backed implementation of
// [DeviceRepository]. Devices and sessions live in separate tables; the
// cascade invariant (revoking a device revokes all of its sessions) is
// enforced here inside a single transaction rather than left to callers.
type deviceRepository struct {
	logger *logger.Logger
	db     *DB
}

// NewDeviceRepository constructs a [DeviceRepository] backed by the provided
// database connection and logger.
func NewDeviceRepository(db *DB, logger *logger.Logger) DeviceRepository {
	logger.Debug().Msg("creating device repository")
	return &deviceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *deviceRepository) CreateDevice(ctx context.Context, device models.Device) (models.Device, error) {
	log := logger.FromContext(ctx)

	var created models.Device
	row := r.db.QueryRowContext(ctx, insertDevice, device.DeviceID, device.UserID, device.DeviceName, device.Platform)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*deviceRepository.CreateDevice").Int64("user_id", device.UserID).Msg("error inserting device")
		return models.Device{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := row.Scan(&created.DeviceID, &created.UserID, &created.DeviceName, &created.Platform, &created.Revoked, &created.LastSeenAt, &created.CreatedAt); err != nil {
		log.Err(err).Str("func", "*deviceRepository.CreateDevice").Int64("user_id", device.UserID).Msg("error: scanning error")
		return models.Device{}, err
	}

	return created, nil
}

func (r *deviceRepository) GetDevice(ctx context.Context, userID int64, deviceID string) (models.Device, error) {
	var device models.Device
	row := r.db.QueryRowContext(ctx, getDevice, userID, deviceID)

	if err := row.Scan(&device.DeviceID, &device.UserID, &device.DeviceName, &device.Platform, &device.Revoked, &device.LastSeenAt, &device.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Device{}, ErrDeviceNotFound
		}
		return models.Device{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	return device, nil
}

func (r *deviceRepository) ListDevices(ctx context.Context, userID int64) ([]models.Device, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, listDevices, userID)
	if err != nil {
		log.Err(err).Str("func", "*deviceRepository.ListDevices").Int64("user_id", userID).Msg("error querying devices")
		return nil, fmt.Errorf("%w: %v", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var devices []models.Device

	for rows.Next() {
		var device models.Device
		if scanErr := rows.Scan(&device.DeviceID, &device.UserID, &device.DeviceName, &device.Platform, &device.Revoked, &device.LastSeenAt, &device.CreatedAt); scanErr != nil {
			log.Err(scanErr).Str("func", "*deviceRepository.ListDevices").Int64("user_id", userID).Msg("error scanning device row")
			return nil, fmt.Errorf("%w: %v", ErrScanningRows, scanErr)
		}
		devices = append(devices, device)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("error iterating device rows: %w", rowsErr)
	}

	return devices, nil
}

func (r *deviceRepository) RenameDevice(ctx context.Context, userID int64, deviceID, name string) error {
	result, err := r.db.ExecContext(ctx, renameDevice, name, userID, deviceID)
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}

	return nil
}

// RevokeDevice marks the device revoked and revokes every one of its active
// sessions in the same transaction, so the cascade invariant holds even
// under a crash between the two statements.
func (r *deviceRepository) RevokeDevice(ctx context.Context, userID int64, deviceID string) error {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*deviceRepository.RevokeDevice").Int64("user_id", userID).Msg("error beginning transaction")
		return fmt.Errorf("%w: %v", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, revokeDevice, userID, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*deviceRepository.RevokeDevice").Int64("user_id", userID).Str("device_id", deviceID).Msg("error revoking device")
		return fmt.Errorf("unexpected DB error: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrDeviceNotFound
	}

	if _, err = tx.ExecContext(ctx, revokeDeviceSessions, userID, deviceID); err != nil {
		log.Err(err).Str("func", "*deviceRepository.RevokeDevice").Int64("user_id", userID).Str("device_id", deviceID).Msg("error revoking device sessions")
		return fmt.Errorf("unexpected DB error: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrCommitingTransaction, err)
	}

	return nil
}

func (r *deviceRepository) TouchDevice(ctx context.Context, userID int64, deviceID string) error {
	if _, err := r.db.ExecContext(ctx, touchDevice, userID, deviceID); err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}

	return nil
}

func (r *deviceRepository) CreateSession(ctx context.Context, session models.Session) (models.Session, error) {
	log := logger.FromContext(ctx)

	var created models.Session
	row := r.db.QueryRowContext(ctx, insertSession, session.UserID, session.DeviceID, session.IPAddress, session.Location)

	if err := row.Err(); err != nil {
		log.Err(err).Str("func", "*deviceRepository.CreateSession").Int64("user_id", session.UserID).Msg("error inserting session")
		return models.Session{}, fmt.Errorf("unexpected DB error: %w", err)
	}

	if err := row.Scan(&created.ID, &created.UserID, &created.DeviceID, &created.IPAddress, &created.Location, &created.LastActivity); err != nil {
		log.Err(err).Str("func", "*deviceRepository.CreateSession").Int64("user_id", session.UserID).Msg("error: scanning error")
		return models.Session{}, err
	}

	return created, nil
}

func (r *deviceRepository) ListSessions(ctx context.Context, userID int64) ([]models.Session, error) {
	log := logger.FromContext(ctx)

	rows, err := r.db.QueryContext(ctx, listSessions, userID)
	if err != nil {
		log.Err(err).Str("func", "*deviceRepository.ListSessions").Int64("user_id", userID).Msg("error querying sessions")
		return nil, fmt.Errorf("%w: %v", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var sessions []models.Session

	for rows.Next() {
		var session models.Session
		if scanErr := rows.Scan(&session.ID, &session.UserID, &session.DeviceID, &session.IPAddress, &session.Location, &session.LastActivity); scanErr != nil {
			log.Err(scanErr).Str("func", "*deviceRepository.ListSessions").Int64("user_id", userID).Msg("error scanning session row")
			return nil, fmt.Errorf("%w: %v", ErrScanningRows, scanErr)
		}
		sessions = append(sessions, session)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", rowsErr)
	}

	return sessions, nil
}

func (r *deviceRepository) RevokeSession(ctx context.Context, userID int64, sessionID int64) error {
	result, err := r.db.ExecContext(ctx, revokeSession, userID, sessionID)
	if err != nil {
		return fmt.Errorf("unexpected DB error: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}

	return nil
}

func (r *deviceRepository) RevokeAllSessionsExcept(ctx context.Context, userID int64, exceptDeviceID string) (int64, error) {
	log := logger.FromContext(ctx)

	var (
		result sql.Result
		err    error
	)
	if exceptDeviceID == "" {
		result, err = r.db.ExecContext(ctx, revokeAllSessions, userID)
	} else {
		result, err = r.db.ExecContext(ctx, revokeAllSessionsExcept, userID, exceptDeviceID)
	}
	if err != nil {
		log.Err(err).Str("func", "*deviceRepository.RevokeAllSessionsExcept").Int64("user_id", userID).Msg("error revoking sessions")
		return 0, fmt.Errorf("unexpected DB error: %w", err)
	}

	return result.RowsAffected()
}
