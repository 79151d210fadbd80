// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

type auditRepository struct {
	*DB
	logger *logger.Logger
}

func NewAuditRepository(db *DB, logger *logger.Logger) AuditRepository {
	return &auditRepository{
		DB:     db,
		logger: logger,
	}
}

func (a *auditRepository) AppendEntry(ctx context.Context, entry models.AuditLogEntry) (models.AuditLogEntry, error) {
	log := logger.FromContext(ctx)

	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	result, err := a.DB.ExecContext(ctx, insertAuditEntry,
		entry.UserID,
		entry.Timestamp,
		entry.DataType,
		entry.Action,
		entry.DeviceID,
		entry.IPAddress,
		entry.Success,
		entry.Detail,
		entry.ErrorMessage,
	)
	if err != nil {
		log.Err(err).
			Str("func", "auditRepository.AppendEntry").
			Int64("user_id", entry.UserID).
			Str("action", string(entry.Action)).
			Msg("failed to append audit entry")
		return models.AuditLogEntry{}, fmt.Errorf("failed to append audit entry: %w", err)
	}

	entry.ID, err = result.LastInsertId()
	if err != nil {
		return models.AuditLogEntry{}, fmt.Errorf("failed to read inserted audit entry id: %w", err)
	}

	return entry, nil
}

func (a *auditRepository) QueryEntries(ctx context.Context, userID int64, filter models.AuditFilter) ([]models.AuditLogEntry, int, error) {
	log := logger.FromContext(ctx)

	where := auditFilterConditions(userID, filter)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 50
	}

	countQuery, countArgs, err := sq.Select("COUNT(*)").From("audit_log").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	var total int
	if err = a.DB.QueryRowContext(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		log.Err(err).
			Str("func", "auditRepository.QueryEntries").
			Int64("user_id", userID).
			Msg("failed to count audit entries")
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	query, args, err := sq.
		Select("id", "user_id", "timestamp", "data_type", "action", "device_id", "ip_address", "success", "detail", "error_message").
		From("audit_log").
		Where(where).
		OrderBy("timestamp DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBuildingSQLQuery, err)
	}

	rows, err := a.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "auditRepository.QueryEntries").
			Int64("user_id", userID).
			Msg("failed to query audit entries")
		return nil, 0, fmt.Errorf("%w: %v", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var entries []models.AuditLogEntry

	for rows.Next() {
		var entry models.AuditLogEntry
		scanErr := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Timestamp,
			&entry.DataType,
			&entry.Action,
			&entry.DeviceID,
			&entry.IPAddress,
			&entry.Success,
			&entry.Detail,
			&entry.ErrorMessage,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "auditRepository.QueryEntries").
				Int64("user_id", userID).
				Msg("failed to scan audit entry row")
			return nil, 0, fmt.Errorf("%w: %v", ErrScanningRows, scanErr)
		}
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, 0, fmt.Errorf("error iterating audit entry rows: %w", rowsErr)
	}

	return entries, total, nil
}

// auditFilterConditions translates the nil-able filter fields into a squirrel
// conjunction. Zero fields add no condition.
func auditFilterConditions(userID int64, filter models.AuditFilter) sq.And {
	where := sq.And{sq.Eq{"user_id": userID}}

	if filter.DataType != nil {
		where = append(where, sq.Eq{"data_type": *filter.DataType})
	}
	if filter.Action != nil {
		where = append(where, sq.Eq{"action": *filter.Action})
	}
	if filter.Success != nil {
		where = append(where, sq.Eq{"success": *filter.Success})
	}
	if filter.StartDate != nil {
		where = append(where, sq.GtOrEq{"timestamp": *filter.StartDate})
	}
	if filter.EndDate != nil {
		where = append(where, sq.LtOrEq{"timestamp": *filter.EndDate})
	}

	return where
}
