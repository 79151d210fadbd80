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

type queueRepository struct {
	*DB
	logger *logger.Logger
}

func NewQueueRepository(db *DB, logger *logger.Logger) QueueRepository {
	return &queueRepository{
		DB:     db,
		logger: logger,
	}
}

func (q *queueRepository) GetPendingItem(ctx context.Context, userID int64, dataType models.DataType) (models.QueueItem, error) {
	row := q.DB.QueryRowContext(ctx, getPendingQueueItem, userID, dataType)
	item, err := scanQueueItem(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.QueueItem{}, ErrQueueItemNotFound
		}
		return models.QueueItem{}, fmt.Errorf("%w: %v", ErrScanningRow, err)
	}

	return item, nil
}

func (q *queueRepository) InsertItem(ctx context.Context, item models.QueueItem) error {
	log := logger.FromContext(ctx)

	_, err := q.DB.ExecContext(ctx, insertQueueItem,
		item.ID,
		item.UserID,
		item.DataType,
		item.Payload,
		item.BaseVersion,
		item.ItemsCount,
		item.AttemptCount,
		item.NextRetryAt,
		item.Status,
		item.LastError,
		item.CreatedAt,
		item.UpdatedAt,
	)
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.InsertItem").
			Int64("user_id", item.UserID).
			Str("data_type", string(item.DataType)).
			Msg("failed to insert queue item")
		return fmt.Errorf("failed to insert queue item: %w", err)
	}

	return nil
}

func (q *queueRepository) UpdateItemPayload(ctx context.Context, id string, payload string, baseVersion int64, itemsCount int) error {
	log := logger.FromContext(ctx)

	result, err := q.DB.ExecContext(ctx, updateQueueItemPayload, payload, baseVersion, itemsCount, id)
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.UpdateItemPayload").
			Str("id", id).
			Msg("failed to update queue item payload")
		return fmt.Errorf("failed to update queue item payload: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrQueueItemNotFound
	}

	return nil
}

func (q *queueRepository) GetDueItems(ctx context.Context, userID int64, now time.Time) ([]models.QueueItem, error) {
	log := logger.FromContext(ctx)

	rows, err := q.DB.QueryContext(ctx, getDueQueueItems, userID, now)
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.GetDueItems").
			Int64("user_id", userID).
			Msg("failed to query due queue items")
		return nil, fmt.Errorf("failed to query due queue items: %w", err)
	}
	defer rows.Close()

	var items []models.QueueItem

	for rows.Next() {
		item, scanErr := scanQueueItem(rows.Scan)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "queueRepository.GetDueItems").
				Int64("user_id", userID).
				Msg("failed to scan queue item row")
			return nil, fmt.Errorf("%w: %v", ErrScanningRows, scanErr)
		}
		items = append(items, item)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("error iterating queue item rows: %w", rowsErr)
	}

	return items, nil
}

func (q *queueRepository) MarkAttempt(ctx context.Context, id string, attemptCount int, nextRetryAt time.Time, lastError string) error {
	_, err := q.DB.ExecContext(ctx, markQueueAttempt, attemptCount, nextRetryAt, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to mark queue attempt (id=%s): %w", id, err)
	}

	return nil
}

func (q *queueRepository) MarkCompleted(ctx context.Context, id string) error {
	result, err := q.DB.ExecContext(ctx, markQueueCompleted, id)
	if err != nil {
		return fmt.Errorf("failed to mark queue item completed (id=%s): %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrQueueItemNotFound
	}

	return nil
}

func (q *queueRepository) MarkFailed(ctx context.Context, id string, lastError string) error {
	result, err := q.DB.ExecContext(ctx, markQueueFailed, lastError, id)
	if err != nil {
		return fmt.Errorf("failed to mark queue item failed (id=%s): %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrQueueItemNotFound
	}

	return nil
}

func (q *queueRepository) RetryFailed(ctx context.Context, userID int64) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := q.DB.ExecContext(ctx, retryFailedQueueItems, userID)
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.RetryFailed").
			Int64("user_id", userID).
			Msg("failed to move failed items back to pending")
		return 0, fmt.Errorf("failed to retry failed queue items: %w", err)
	}

	return result.RowsAffected()
}

func (q *queueRepository) ClearFailed(ctx context.Context, userID int64) (int64, error) {
	log := logger.FromContext(ctx)

	result, err := q.DB.ExecContext(ctx, clearFailedQueueItems, userID)
	if err != nil {
		log.Err(err).
			Str("func", "queueRepository.ClearFailed").
			Int64("user_id", userID).
			Msg("failed to clear failed queue items")
		return 0, fmt.Errorf("failed to clear failed queue items: %w", err)
	}

	return result.RowsAffected()
}

func (q *queueRepository) GetStats(ctx context.Context, userID int64) (models.QueueStats, error) {
	var stats models.QueueStats

	row := q.DB.QueryRowContext(ctx, getQueueStats, userID)
	if err := row.Scan(&stats.PendingCount, &stats.FailedCount, &stats.CompletedCount, &stats.TotalCount); err != nil {
		return models.QueueStats{}, fmt.Errorf("failed to scan queue stats: %w", err)
	}

	return stats, nil
}

func scanQueueItem(scan func(dest ...any) error) (models.QueueItem, error) {
	var item models.QueueItem
	err := scan(
		&item.ID,
		&item.UserID,
		&item.DataType,
		&item.Payload,
		&item.BaseVersion,
		&item.ItemsCount,
		&item.AttemptCount,
		&item.NextRetryAt,
		&item.Status,
		&item.LastError,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	return item, err
}
