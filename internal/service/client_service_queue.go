// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/crypto"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
	"github.com/MKhiriev/go-mail-sync/models"
)

const (
	// queueBaseDelay and queueMaxDelay bound the retry backoff:
	// nextRetryAt = now + min(maxDelay, baseDelay << attemptCount).
	queueBaseDelay = 30 * time.Second
	queueMaxDelay  = time.Hour

	// queueMaxAttempts is the retry budget before a retryable failure turns
	// terminal.
	queueMaxAttempts = 8
)

// backoffDelay returns the delay before the retry following attemptCount
// completed attempts. Monotone in attemptCount and capped at queueMaxDelay.
func backoffDelay(attemptCount int) time.Duration {
	if attemptCount < 0 {
		attemptCount = 0
	}
	// 1<<shift overflows quickly; anything past the cap shift is the cap
	if attemptCount > 12 {
		return queueMaxDelay
	}
	delay := queueBaseDelay << uint(attemptCount)
	if delay > queueMaxDelay {
		return queueMaxDelay
	}
	return delay
}

// retryDelay returns the delay before the next attempt after a retryable
// failure. A rate-limited response carries the server's advised delay; it
// wins over the local backoff when longer, still capped at queueMaxDelay.
func retryDelay(err error, attemptCount int) time.Duration {
	delay := backoffDelay(attemptCount)

	var rateLimit *adapter.RateLimitError
	if errors.As(err, &rateLimit) && rateLimit.RetryAfter > delay {
		delay = rateLimit.RetryAfter
		if delay > queueMaxDelay {
			delay = queueMaxDelay
		}
	}

	return delay
}

// clientQueueService is the concrete implementation of ClientQueueService.
type clientQueueService struct {
	queue     store.QueueRepository
	server    adapter.ServerAdapter
	envelopes crypto.EnvelopeService
	snapshots ClientSnapshotService
	audit     ClientAuditService
	uuid      *utils.UUIDGenerator
	logger    *logger.Logger
}

func NewClientQueueService(queue store.QueueRepository, server adapter.ServerAdapter, envelopes crypto.EnvelopeService, snapshots ClientSnapshotService, audit ClientAuditService, logger *logger.Logger) ClientQueueService {
	return &clientQueueService{
		queue:     queue,
		server:    server,
		envelopes: envelopes,
		snapshots: snapshots,
		audit:     audit,
		uuid:      utils.NewUUIDGenerator(),
		logger:    logger,
	}
}

// Enqueue implements [ClientQueueService]. A pending item for the same
// (user, data type) absorbs the new payload (last write wins); otherwise a
// fresh item is inserted, due immediately.
func (q *clientQueueService) Enqueue(ctx context.Context, item models.QueueItem) (models.QueueItem, error) {
	log := logger.FromContext(ctx)

	existing, err := q.queue.GetPendingItem(ctx, item.UserID, item.DataType)
	if err == nil {
		if updateErr := q.queue.UpdateItemPayload(ctx, existing.ID, item.Payload, item.BaseVersion, item.ItemsCount); updateErr == nil {
			existing.Payload = item.Payload
			existing.BaseVersion = item.BaseVersion
			existing.ItemsCount = item.ItemsCount
			log.Debug().
				Str("queue_item_id", existing.ID).
				Str("data_type", string(item.DataType)).
				Msg("coalesced change into pending queue item")
			return existing, nil
		} else if !errors.Is(updateErr, store.ErrQueueItemNotFound) {
			return models.QueueItem{}, fmt.Errorf("failed to coalesce queue item: %w", updateErr)
		}
		// the pending item completed between the read and the update; insert
	} else if !errors.Is(err, store.ErrQueueItemNotFound) {
		return models.QueueItem{}, fmt.Errorf("failed to read pending queue item: %w", err)
	}

	now := time.Now().UTC()
	item.ID = q.uuid.Generate()
	item.Status = models.QueuePending
	item.AttemptCount = 0
	item.NextRetryAt = now
	item.CreatedAt = now
	item.UpdatedAt = now

	if err = q.queue.InsertItem(ctx, item); err != nil {
		return models.QueueItem{}, fmt.Errorf("failed to insert queue item: %w", err)
	}

	return item, nil
}

// ProcessPending implements [ClientQueueService]. Cancellation between items
// is honoured: an interrupted pass leaves unprocessed items pending with
// their bookkeeping intact.
func (q *clientQueueService) ProcessPending(ctx context.Context, userID int64, deviceID, masterSecret string) (models.ProcessResult, error) {
	log := logger.FromContext(ctx)

	items, err := q.queue.GetDueItems(ctx, userID, time.Now().UTC())
	if err != nil {
		return models.ProcessResult{}, fmt.Errorf("failed to read due queue items: %w", err)
	}

	var result models.ProcessResult
	for _, item := range items {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		outcome, itemErr := q.processItem(ctx, deviceID, masterSecret, item)
		if itemErr != nil {
			log.Err(itemErr).
				Str("queue_item_id", item.ID).
				Str("data_type", string(item.DataType)).
				Msg("queue item processing failed")
			return result, itemErr
		}

		switch outcome {
		case models.QueueCompleted:
			result.Succeeded++
		case models.QueuePending:
			result.Retried++
		case models.QueueFailed:
			result.Failed++
		}
	}

	return result, nil
}

// processItem runs one push attempt for a queue item and returns the status
// the item ended up in. The attempt is recorded before the network call so a
// crash mid-call leaves the item pending with its backoff already advanced.
func (q *clientQueueService) processItem(ctx context.Context, deviceID, masterSecret string, item models.QueueItem) (models.QueueStatus, error) {
	attempt := item.AttemptCount + 1
	nextRetry := time.Now().UTC().Add(backoffDelay(item.AttemptCount))

	if err := q.queue.MarkAttempt(ctx, item.ID, attempt, nextRetry, item.LastError); err != nil {
		return "", fmt.Errorf("failed to record queue attempt: %w", err)
	}

	resp, err := q.server.Push(ctx, models.PushRequest{
		DataType:    item.DataType,
		BaseVersion: item.BaseVersion,
		Envelope:    item.Payload,
		ItemsCount:  item.ItemsCount,
	})

	switch {
	case err == nil:
		return models.QueueCompleted, q.completeItem(ctx, deviceID, item, item.Payload, resp.Version, models.OperationPush)

	case errors.Is(err, adapter.ErrVersionConflict):
		return q.handleVersionConflict(ctx, deviceID, masterSecret, item, err)

	case adapter.IsRetryable(err):
		if attempt >= queueMaxAttempts {
			return models.QueueFailed, q.failItem(ctx, deviceID, item, fmt.Sprintf("retries exhausted: %v", err))
		}
		if markErr := q.queue.MarkAttempt(ctx, item.ID, attempt, time.Now().UTC().Add(retryDelay(err, item.AttemptCount)), err.Error()); markErr != nil {
			return "", fmt.Errorf("failed to record retryable failure: %w", markErr)
		}
		return models.QueuePending, nil

	default:
		return models.QueueFailed, q.failItem(ctx, deviceID, item, err.Error())
	}
}

// handleVersionConflict fast-forwards when the server's payload decrypts to
// the same document as the pending one. A real divergence is not a failure:
// the item stays pending with a conflict-noting snapshot and waits for an
// explicit resolution, the same way an interactive sync cycle leaves it.
func (q *clientQueueService) handleVersionConflict(ctx context.Context, deviceID, masterSecret string, item models.QueueItem, pushErr error) (models.QueueStatus, error) {
	var conflict *adapter.VersionConflictError
	if !errors.As(pushErr, &conflict) {
		return models.QueueFailed, q.failItem(ctx, deviceID, item, pushErr.Error())
	}

	localPayload, localErr := openEnvelopeRaw(q.envelopes, masterSecret, item.Payload)
	serverPayload, serverErr := openEnvelopeRaw(q.envelopes, masterSecret, conflict.Server.Envelope)
	if localErr == nil && serverErr == nil && payloadsEqual(localPayload, serverPayload) {
		return models.QueueCompleted, q.completeItem(ctx, deviceID, item, conflict.Server.Envelope, conflict.Server.Version, models.OperationPull)
	}

	reason := fmt.Sprintf("version conflict: server at version %d", conflict.Server.Version)
	if markErr := q.queue.MarkAttempt(ctx, item.ID, item.AttemptCount+1, time.Now().UTC().Add(backoffDelay(item.AttemptCount)), reason); markErr != nil {
		return "", fmt.Errorf("failed to record version conflict: %w", markErr)
	}

	if _, err := q.snapshots.Record(ctx, models.SyncSnapshot{
		UserID:        item.UserID,
		DataType:      item.DataType,
		ServerVersion: conflict.Server.Version,
		Operation:     models.OperationPush,
		SyncStatus:    models.StatusConflict,
		ItemsCount:    item.ItemsCount,
		DeviceID:      deviceID,
		ErrorMessage:  reason,
	}); err != nil {
		return "", err
	}

	return models.QueuePending, nil
}

func (q *clientQueueService) completeItem(ctx context.Context, deviceID string, item models.QueueItem, envelope string, serverVersion int64, operation models.SyncOperation) error {
	if err := q.queue.MarkCompleted(ctx, item.ID); err != nil {
		return fmt.Errorf("failed to mark queue item completed: %w", err)
	}

	if _, err := q.snapshots.Record(ctx, models.SyncSnapshot{
		UserID:        item.UserID,
		DataType:      item.DataType,
		ServerVersion: serverVersion,
		Operation:     operation,
		SyncStatus:    models.StatusSuccess,
		ItemsCount:    item.ItemsCount,
		DeviceID:      deviceID,
		Current:       true,
		Envelope:      envelope,
	}); err != nil {
		return err
	}

	q.audit.Record(ctx, models.AuditLogEntry{
		UserID:   item.UserID,
		DataType: item.DataType,
		Action:   ActionForOperation(operation),
		DeviceID: deviceID,
		Success:  true,
		Detail:   fmt.Sprintf("queue item confirmed at server version %d", serverVersion),
	})

	return nil
}

func (q *clientQueueService) failItem(ctx context.Context, deviceID string, item models.QueueItem, reason string) error {
	if err := q.queue.MarkFailed(ctx, item.ID, reason); err != nil {
		return fmt.Errorf("failed to mark queue item failed: %w", err)
	}

	if _, err := q.snapshots.Record(ctx, models.SyncSnapshot{
		UserID:       item.UserID,
		DataType:     item.DataType,
		Operation:    models.OperationPush,
		SyncStatus:   models.StatusFailed,
		ItemsCount:   item.ItemsCount,
		DeviceID:     deviceID,
		ErrorMessage: reason,
	}); err != nil {
		return err
	}

	q.audit.Record(ctx, models.AuditLogEntry{
		UserID:       item.UserID,
		DataType:     item.DataType,
		Action:       models.ActionUpload,
		DeviceID:     deviceID,
		Success:      false,
		ErrorMessage: reason,
	})

	return nil
}

// RetryFailed implements [ClientQueueService].
func (q *clientQueueService) RetryFailed(ctx context.Context, userID int64) (int64, error) {
	count, err := q.queue.RetryFailed(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to retry failed queue items: %w", err)
	}
	return count, nil
}

// ClearFailed implements [ClientQueueService].
func (q *clientQueueService) ClearFailed(ctx context.Context, userID int64) (int64, error) {
	count, err := q.queue.ClearFailed(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear failed queue items: %w", err)
	}
	return count, nil
}

// Stats implements [ClientQueueService].
func (q *clientQueueService) Stats(ctx context.Context, userID int64) (models.QueueStats, error) {
	stats, err := q.queue.GetStats(ctx, userID)
	if err != nil {
		return models.QueueStats{}, fmt.Errorf("failed to read queue stats: %w", err)
	}
	return stats, nil
}
