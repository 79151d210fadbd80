// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/crypto"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
)

// clientSyncService is the concrete implementation of ClientSyncService.
//
// A sync cycle for one data type runs entirely under that type's lock:
// read pending change → pull server state → push, adopt, fast-forward, or
// surface a conflict. All local mutations (queue transitions, snapshot
// writes, audit writes) are synchronous; the only suspension points are the
// adapter calls.
type clientSyncService struct {
	queue     store.QueueRepository
	queueSvc  ClientQueueService
	snapshots ClientSnapshotService
	server    adapter.ServerAdapter
	envelopes crypto.EnvelopeService
	audit     ClientAuditService
	locks     *keyedLock
	logger    *logger.Logger
}

func NewClientSyncService(queue store.QueueRepository, queueSvc ClientQueueService, snapshots ClientSnapshotService, server adapter.ServerAdapter, envelopes crypto.EnvelopeService, audit ClientAuditService, locks *keyedLock, logger *logger.Logger) ClientSyncService {
	return &clientSyncService{
		queue:     queue,
		queueSvc:  queueSvc,
		snapshots: snapshots,
		server:    server,
		envelopes: envelopes,
		audit:     audit,
		locks:     locks,
		logger:    logger,
	}
}

// SaveLocal implements [ClientSyncService]. The base version recorded on the
// queue item is the server version of the current snapshot, i.e. the last
// state this device knows the server agreed on.
func (s *clientSyncService) SaveLocal(ctx context.Context, userID int64, masterSecret string, dataType models.DataType, payload any, itemsCount int) error {
	if !dataType.Valid() {
		return ErrInvalidDataProvided
	}

	envelope, err := sealEnvelope(s.envelopes, masterSecret, payload)
	if err != nil {
		return fmt.Errorf("failed to seal payload: %w", err)
	}

	baseVersion := int64(0)
	current, err := s.snapshots.Current(ctx, userID, dataType)
	if err == nil {
		baseVersion = current.ServerVersion
	} else if !errors.Is(err, store.ErrSnapshotNotFound) {
		return err
	}

	_, err = s.queueSvc.Enqueue(ctx, models.QueueItem{
		UserID:      userID,
		DataType:    dataType,
		Payload:     envelope,
		BaseVersion: baseVersion,
		ItemsCount:  itemsCount,
	})
	if err != nil {
		return err
	}

	return nil
}

// SyncAll implements [ClientSyncService].
func (s *clientSyncService) SyncAll(ctx context.Context, userID int64, deviceID, masterSecret string) (models.SyncResult, error) {
	log := logger.FromContext(ctx)

	result := models.SyncResult{Outcomes: make(map[models.DataType]models.TypeSyncOutcome, len(models.AllDataTypes))}

	for _, dataType := range models.AllDataTypes {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		outcome, conflict, err := s.SyncType(ctx, userID, deviceID, masterSecret, dataType)
		if err != nil {
			if errors.Is(err, ErrSyncInProgress) {
				outcome = models.TypeSyncOutcome{Skipped: true, Error: err.Error()}
			} else {
				outcome = models.TypeSyncOutcome{Error: err.Error()}
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", dataType, err))
				log.Err(err).
					Str("data_type", string(dataType)).
					Msg("sync cycle failed for data type")
			}
		}
		if conflict != nil {
			result.Conflicts = append(result.Conflicts, *conflict)
		}
		result.Outcomes[dataType] = outcome
	}

	return result, nil
}

// SyncType implements [ClientSyncService].
func (s *clientSyncService) SyncType(ctx context.Context, userID int64, deviceID, masterSecret string, dataType models.DataType) (models.TypeSyncOutcome, *models.ConflictInfo, error) {
	if !dataType.Valid() {
		return models.TypeSyncOutcome{}, nil, ErrInvalidDataProvided
	}
	if !s.locks.TryLock(dataType) {
		return models.TypeSyncOutcome{}, nil, ErrSyncInProgress
	}
	defer s.locks.Unlock(dataType)

	pending, err := s.queue.GetPendingItem(ctx, userID, dataType)
	hasPending := err == nil
	if err != nil && !errors.Is(err, store.ErrQueueItemNotFound) {
		return models.TypeSyncOutcome{}, nil, fmt.Errorf("failed to read pending change: %w", err)
	}

	serverRecord, err := s.server.Pull(ctx, dataType)
	serverEmpty := false
	if err != nil {
		if !errors.Is(err, adapter.ErrNotFound) {
			return models.TypeSyncOutcome{}, nil, fmt.Errorf("pull failed: %w", err)
		}
		serverEmpty = true
	}

	current, err := s.snapshots.Current(ctx, userID, dataType)
	hasCurrent := err == nil
	if err != nil && !errors.Is(err, store.ErrSnapshotNotFound) {
		return models.TypeSyncOutcome{}, nil, err
	}

	if !hasPending {
		return s.pullOnly(ctx, userID, deviceID, masterSecret, dataType, serverRecord, serverEmpty, current, hasCurrent)
	}

	return s.pushPending(ctx, userID, deviceID, masterSecret, dataType, pending, serverRecord, serverEmpty, current, hasCurrent)
}

// pullOnly handles a cycle with no pending local change: adopt a newer
// server record or report the type as already in sync.
func (s *clientSyncService) pullOnly(ctx context.Context, userID int64, deviceID, masterSecret string, dataType models.DataType, serverRecord models.RemoteRecord, serverEmpty bool, current models.SyncSnapshot, hasCurrent bool) (models.TypeSyncOutcome, *models.ConflictInfo, error) {
	if serverEmpty {
		return models.TypeSyncOutcome{Skipped: true}, nil, nil
	}
	if hasCurrent && current.Envelope == serverRecord.Envelope {
		return models.TypeSyncOutcome{Skipped: true}, nil, nil
	}

	// verify the envelope opens before adopting it; a wrong secret must not
	// be mistaken for "no data"
	if _, err := openEnvelopeRaw(s.envelopes, masterSecret, serverRecord.Envelope); err != nil {
		s.audit.Record(ctx, models.AuditLogEntry{
			UserID:       userID,
			DataType:     dataType,
			Action:       models.ActionDownload,
			DeviceID:     deviceID,
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return models.TypeSyncOutcome{}, nil, fmt.Errorf("failed to open pulled envelope: %w", err)
	}

	if _, err := s.snapshots.Record(ctx, models.SyncSnapshot{
		UserID:        userID,
		DataType:      dataType,
		ServerVersion: serverRecord.Version,
		Operation:     models.OperationPull,
		SyncStatus:    models.StatusSuccess,
		ItemsCount:    serverRecord.ItemsCount,
		DeviceID:      deviceID,
		Current:       true,
		Envelope:      serverRecord.Envelope,
	}); err != nil {
		return models.TypeSyncOutcome{}, nil, err
	}

	s.audit.Record(ctx, models.AuditLogEntry{
		UserID:   userID,
		DataType: dataType,
		Action:   models.ActionDownload,
		DeviceID: deviceID,
		Success:  true,
		Detail:   fmt.Sprintf("adopted server version %d", serverRecord.Version),
	})

	return models.TypeSyncOutcome{Synced: true, Items: serverRecord.ItemsCount}, nil, nil
}

// pushPending handles a cycle with a pending local change.
func (s *clientSyncService) pushPending(ctx context.Context, userID int64, deviceID, masterSecret string, dataType models.DataType, pending models.QueueItem, serverRecord models.RemoteRecord, serverEmpty bool, current models.SyncSnapshot, hasCurrent bool) (models.TypeSyncOutcome, *models.ConflictInfo, error) {
	baseVersion := int64(0)
	serverUnchanged := serverEmpty || (hasCurrent && current.Envelope == serverRecord.Envelope)
	if !serverEmpty {
		baseVersion = serverRecord.Version
	}

	if !serverUnchanged {
		// the server moved past what this device last saw; a push would be
		// rejected, so compare payloads first
		localPayload, localErr := openEnvelopeRaw(s.envelopes, masterSecret, pending.Payload)
		serverPayload, serverErr := openEnvelopeRaw(s.envelopes, masterSecret, serverRecord.Envelope)
		if localErr != nil {
			return models.TypeSyncOutcome{}, nil, fmt.Errorf("failed to open pending payload: %w", localErr)
		}
		if serverErr != nil {
			return models.TypeSyncOutcome{}, nil, fmt.Errorf("failed to open server payload: %w", serverErr)
		}

		if payloadsEqual(localPayload, serverPayload) {
			return s.fastForward(ctx, userID, deviceID, dataType, pending, serverRecord)
		}

		conflict := s.buildConflict(ctx, userID, deviceID, dataType, pending, serverRecord, current, localPayload, serverPayload)
		return models.TypeSyncOutcome{Conflict: true}, &conflict, nil
	}

	// server state matches our last agreement (or is empty): safe to push
	resp, err := s.server.Push(ctx, models.PushRequest{
		DataType:    dataType,
		BaseVersion: baseVersion,
		Envelope:    pending.Payload,
		ItemsCount:  pending.ItemsCount,
	})
	if err != nil {
		// another device may still have raced between pull and push
		var versionConflict *adapter.VersionConflictError
		if errors.As(err, &versionConflict) {
			localPayload, localErr := openEnvelopeRaw(s.envelopes, masterSecret, pending.Payload)
			serverPayload, serverErr := openEnvelopeRaw(s.envelopes, masterSecret, versionConflict.Server.Envelope)
			if localErr == nil && serverErr == nil {
				if payloadsEqual(localPayload, serverPayload) {
					return s.fastForward(ctx, userID, deviceID, dataType, pending, versionConflict.Server)
				}
				conflict := s.buildConflict(ctx, userID, deviceID, dataType, pending, versionConflict.Server, current, localPayload, serverPayload)
				return models.TypeSyncOutcome{Conflict: true}, &conflict, nil
			}
		}

		s.audit.Record(ctx, models.AuditLogEntry{
			UserID:       userID,
			DataType:     dataType,
			Action:       models.ActionUpload,
			DeviceID:     deviceID,
			Success:      false,
			ErrorMessage: err.Error(),
		})
		return models.TypeSyncOutcome{}, nil, fmt.Errorf("push failed: %w", err)
	}

	if err = s.queue.MarkCompleted(ctx, pending.ID); err != nil {
		return models.TypeSyncOutcome{}, nil, fmt.Errorf("failed to mark pending change completed: %w", err)
	}

	if _, err = s.snapshots.Record(ctx, models.SyncSnapshot{
		UserID:        userID,
		DataType:      dataType,
		ServerVersion: resp.Version,
		Operation:     models.OperationPush,
		SyncStatus:    models.StatusSuccess,
		ItemsCount:    pending.ItemsCount,
		DeviceID:      deviceID,
		Current:       true,
		Envelope:      pending.Payload,
	}); err != nil {
		return models.TypeSyncOutcome{}, nil, err
	}

	s.audit.Record(ctx, models.AuditLogEntry{
		UserID:   userID,
		DataType: dataType,
		Action:   models.ActionUpload,
		DeviceID: deviceID,
		Success:  true,
		Detail:   fmt.Sprintf("pushed server version %d", resp.Version),
	})

	return models.TypeSyncOutcome{Synced: true, Items: pending.ItemsCount}, nil, nil
}

// fastForward resolves spurious version drift: the payloads agree, so the
// pending change is confirmed by adoption instead of a push.
func (s *clientSyncService) fastForward(ctx context.Context, userID int64, deviceID string, dataType models.DataType, pending models.QueueItem, serverRecord models.RemoteRecord) (models.TypeSyncOutcome, *models.ConflictInfo, error) {
	if err := s.queue.MarkCompleted(ctx, pending.ID); err != nil {
		return models.TypeSyncOutcome{}, nil, fmt.Errorf("failed to mark pending change completed: %w", err)
	}

	if _, err := s.snapshots.Record(ctx, models.SyncSnapshot{
		UserID:        userID,
		DataType:      dataType,
		ServerVersion: serverRecord.Version,
		Operation:     models.OperationPull,
		SyncStatus:    models.StatusSuccess,
		ItemsCount:    serverRecord.ItemsCount,
		DeviceID:      deviceID,
		Current:       true,
		Envelope:      serverRecord.Envelope,
	}); err != nil {
		return models.TypeSyncOutcome{}, nil, err
	}

	s.audit.Record(ctx, models.AuditLogEntry{
		UserID:   userID,
		DataType: dataType,
		Action:   models.ActionDownload,
		DeviceID: deviceID,
		Success:  true,
		Detail:   fmt.Sprintf("fast-forwarded to server version %d (identical payloads)", serverRecord.Version),
	})

	return models.TypeSyncOutcome{Synced: true, Items: serverRecord.ItemsCount}, nil, nil
}

// buildConflict records the conflict snapshot and assembles the transient
// ConflictInfo. The pending item stays pending until an explicit resolution.
func (s *clientSyncService) buildConflict(ctx context.Context, userID int64, deviceID string, dataType models.DataType, pending models.QueueItem, serverRecord models.RemoteRecord, current models.SyncSnapshot, localPayload, serverPayload json.RawMessage) models.ConflictInfo {
	log := logger.FromContext(ctx)

	if _, err := s.snapshots.Record(ctx, models.SyncSnapshot{
		UserID:       userID,
		DataType:     dataType,
		Operation:    models.OperationPush,
		SyncStatus:   models.StatusConflict,
		ItemsCount:   pending.ItemsCount,
		DeviceID:     deviceID,
		ErrorMessage: fmt.Sprintf("server advanced to version %d", serverRecord.Version),
	}); err != nil {
		log.Err(err).
			Str("data_type", string(dataType)).
			Msg("failed to record conflict snapshot")
	}

	return newConflictInfo(dataType, localPayload, serverPayload, current.Version, serverRecord.Version, pending.UpdatedAt, serverRecord.UpdatedAt)
}

// DetectConflicts implements [ClientSyncService]. Read-only: nothing is
// pushed, completed, or snapshotted.
func (s *clientSyncService) DetectConflicts(ctx context.Context, userID int64, masterSecret string) ([]models.ConflictInfo, error) {
	var conflicts []models.ConflictInfo

	for _, dataType := range models.AllDataTypes {
		pending, err := s.queue.GetPendingItem(ctx, userID, dataType)
		if err != nil {
			if errors.Is(err, store.ErrQueueItemNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to read pending change: %w", err)
		}

		serverRecord, err := s.server.Pull(ctx, dataType)
		if err != nil {
			if errors.Is(err, adapter.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("pull failed: %w", err)
		}

		current, err := s.snapshots.Current(ctx, userID, dataType)
		if err == nil && current.Envelope == serverRecord.Envelope {
			continue // server unchanged since last agreement
		}
		if err != nil && !errors.Is(err, store.ErrSnapshotNotFound) {
			return nil, err
		}

		localPayload, localErr := openEnvelopeRaw(s.envelopes, masterSecret, pending.Payload)
		serverPayload, serverErr := openEnvelopeRaw(s.envelopes, masterSecret, serverRecord.Envelope)
		if localErr != nil {
			return nil, fmt.Errorf("failed to open pending payload: %w", localErr)
		}
		if serverErr != nil {
			return nil, fmt.Errorf("failed to open server payload: %w", serverErr)
		}
		if payloadsEqual(localPayload, serverPayload) {
			continue
		}

		conflicts = append(conflicts, newConflictInfo(dataType, localPayload, serverPayload, current.Version, serverRecord.Version, pending.UpdatedAt, serverRecord.UpdatedAt))
	}

	return conflicts, nil
}

// Resolve implements [ClientSyncService].
func (s *clientSyncService) Resolve(ctx context.Context, userID int64, deviceID string, dataType models.DataType, strategy models.ResolutionStrategy, masterSecret string) error {
	log := logger.FromContext(ctx)

	if !strategy.Valid() {
		return ErrInvalidResolutionStrategy
	}
	if !dataType.Valid() {
		return ErrInvalidDataProvided
	}
	if !s.locks.TryLock(dataType) {
		return ErrSyncInProgress
	}
	defer s.locks.Unlock(dataType)

	pending, err := s.queue.GetPendingItem(ctx, userID, dataType)
	if err != nil {
		if errors.Is(err, store.ErrQueueItemNotFound) {
			return ErrNothingToResolve
		}
		return fmt.Errorf("failed to read pending change: %w", err)
	}

	serverRecord, err := s.server.Pull(ctx, dataType)
	serverEmpty := false
	if err != nil {
		if !errors.Is(err, adapter.ErrNotFound) {
			return fmt.Errorf("pull failed: %w", err)
		}
		serverEmpty = true
	}

	switch strategy {
	case models.ResolveUseLocal:
		baseVersion := int64(0)
		if !serverEmpty {
			baseVersion = serverRecord.Version
		}

		resp, pushErr := s.server.Push(ctx, models.PushRequest{
			DataType:    dataType,
			BaseVersion: baseVersion,
			Envelope:    pending.Payload,
			ItemsCount:  pending.ItemsCount,
		})
		if pushErr != nil {
			return fmt.Errorf("resolution push failed: %w", pushErr)
		}

		if err = s.queue.MarkCompleted(ctx, pending.ID); err != nil {
			return fmt.Errorf("failed to mark pending change completed: %w", err)
		}

		if _, err = s.snapshots.Record(ctx, models.SyncSnapshot{
			UserID:        userID,
			DataType:      dataType,
			ServerVersion: resp.Version,
			Operation:     models.OperationMerge,
			SyncStatus:    models.StatusSuccess,
			ItemsCount:    pending.ItemsCount,
			DeviceID:      deviceID,
			Current:       true,
			Envelope:      pending.Payload,
		}); err != nil {
			return err
		}

		s.audit.Record(ctx, models.AuditLogEntry{
			UserID:   userID,
			DataType: dataType,
			Action:   models.ActionUpload,
			DeviceID: deviceID,
			Success:  true,
			Detail:   "conflict resolved: use_local",
		})

	case models.ResolveUseServer:
		if serverEmpty {
			return ErrNothingToResolve
		}
		if _, err = openEnvelopeRaw(s.envelopes, masterSecret, serverRecord.Envelope); err != nil {
			return fmt.Errorf("failed to open server payload: %w", err)
		}

		// the pending local change is discarded in favour of the server copy
		if err = s.queue.MarkCompleted(ctx, pending.ID); err != nil {
			return fmt.Errorf("failed to discard pending change: %w", err)
		}

		if _, err = s.snapshots.Record(ctx, models.SyncSnapshot{
			UserID:        userID,
			DataType:      dataType,
			ServerVersion: serverRecord.Version,
			Operation:     models.OperationMerge,
			SyncStatus:    models.StatusSuccess,
			ItemsCount:    serverRecord.ItemsCount,
			DeviceID:      deviceID,
			Current:       true,
			Envelope:      serverRecord.Envelope,
		}); err != nil {
			return err
		}

		s.audit.Record(ctx, models.AuditLogEntry{
			UserID:   userID,
			DataType: dataType,
			Action:   models.ActionDownload,
			DeviceID: deviceID,
			Success:  true,
			Detail:   "conflict resolved: use_server",
		})
	}

	log.Info().
		Str("data_type", string(dataType)).
		Str("strategy", string(strategy)).
		Msg("conflict resolved")

	return nil
}
