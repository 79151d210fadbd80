package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/crypto"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
)

// snapshotRetention is the minimum number of history rows kept per data type.
// Pruning never shrinks history below this, and never touches the current row.
const snapshotRetention = 30

// clientSnapshotService is the concrete implementation of
// ClientSnapshotService.
type clientSnapshotService struct {
	snapshots store.SnapshotRepository
	server    adapter.ServerAdapter
	envelopes crypto.EnvelopeService
	locks     *keyedLock
	audit     ClientAuditService
	logger    *logger.Logger
}

func NewClientSnapshotService(snapshots store.SnapshotRepository, server adapter.ServerAdapter, envelopes crypto.EnvelopeService, locks *keyedLock, audit ClientAuditService, logger *logger.Logger) ClientSnapshotService {
	return &clientSnapshotService{
		snapshots: snapshots,
		server:    server,
		envelopes: envelopes,
		locks:     locks,
		audit:     audit,
		logger:    logger,
	}
}

// Record implements [ClientSnapshotService].
func (s *clientSnapshotService) Record(ctx context.Context, snapshot models.SyncSnapshot) (models.SyncSnapshot, error) {
	log := logger.FromContext(ctx)

	saved, err := s.snapshots.SaveSnapshot(ctx, snapshot)
	if err != nil {
		log.Err(err).
			Str("func", "clientSnapshotService.Record").
			Int64("user_id", snapshot.UserID).
			Str("data_type", string(snapshot.DataType)).
			Msg("failed to save snapshot")
		return models.SyncSnapshot{}, fmt.Errorf("failed to save snapshot: %w", err)
	}

	if err = s.snapshots.PruneSnapshots(ctx, saved.UserID, saved.DataType, snapshotRetention); err != nil {
		// retention overshoot is harmless; the next successful prune catches up
		log.Warn().Err(err).
			Int64("user_id", saved.UserID).
			Str("data_type", string(saved.DataType)).
			Msg("failed to prune snapshot history")
	}

	return saved, nil
}

// History implements [ClientSnapshotService].
func (s *clientSnapshotService) History(ctx context.Context, userID int64, dataType models.DataType, limit int) ([]models.SyncSnapshot, error) {
	if limit <= 0 {
		limit = snapshotRetention
	}

	snapshots, err := s.snapshots.GetSnapshots(ctx, userID, dataType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync history: %w", err)
	}

	return snapshots, nil
}

// Current implements [ClientSnapshotService].
func (s *clientSnapshotService) Current(ctx context.Context, userID int64, dataType models.DataType) (models.SyncSnapshot, error) {
	return s.snapshots.GetCurrentSnapshot(ctx, userID, dataType)
}

// Rollback implements [ClientSnapshotService]. It holds the data type's sync
// lock for the whole operation so no sync cycle can interleave with the
// restore. A cycle already holding the lock is never interrupted mid-flight;
// the rollback is rejected with [ErrSyncInProgress] and the caller retries
// once the cycle finishes, keeping every in-flight push intact.
func (s *clientSnapshotService) Rollback(ctx context.Context, userID int64, deviceID string, dataType models.DataType, targetVersion int64, masterSecret string) error {
	log := logger.FromContext(ctx)

	if !s.locks.TryLock(dataType) {
		return ErrSyncInProgress
	}
	defer s.locks.Unlock(dataType)

	target, err := s.snapshots.GetSnapshotByVersion(ctx, userID, dataType, targetVersion)
	if err != nil {
		if errors.Is(err, store.ErrSnapshotNotFound) {
			return ErrRollbackTargetNotFound
		}
		return fmt.Errorf("rollback target lookup failed: %w", err)
	}
	if target.SyncStatus == models.StatusFailed || target.Envelope == "" {
		return ErrRollbackTargetFailed
	}

	// re-derive the key to prove the caller holds the right secret and to
	// recover the plaintext for re-encryption under a fresh salt
	payload, err := openEnvelopeRaw(s.envelopes, masterSecret, target.Envelope)
	if err != nil {
		return fmt.Errorf("failed to open rollback target: %w", err)
	}

	restored, err := sealEnvelope(s.envelopes, masterSecret, payload)
	if err != nil {
		return fmt.Errorf("failed to re-encrypt rollback payload: %w", err)
	}

	baseVersion := int64(0)
	if record, pullErr := s.server.Pull(ctx, dataType); pullErr == nil {
		baseVersion = record.Version
	} else if !errors.Is(pullErr, adapter.ErrNotFound) {
		return fmt.Errorf("failed to read server version before rollback: %w", pullErr)
	}

	resp, err := s.server.Push(ctx, models.PushRequest{
		DataType:    dataType,
		BaseVersion: baseVersion,
		Envelope:    restored,
		ItemsCount:  target.ItemsCount,
	})
	if err != nil {
		s.audit.Record(ctx, models.AuditLogEntry{
			UserID:       userID,
			DataType:     dataType,
			Action:       ActionForOperation(models.OperationPush),
			DeviceID:     deviceID,
			Success:      false,
			Detail:       fmt.Sprintf("rollback to version %d", targetVersion),
			ErrorMessage: err.Error(),
		})
		return fmt.Errorf("failed to push rollback payload: %w", err)
	}

	if err = s.snapshots.SetCurrent(ctx, userID, dataType, target.ID); err != nil {
		return fmt.Errorf("failed to mark rollback target current: %w", err)
	}

	s.audit.Record(ctx, models.AuditLogEntry{
		UserID:   userID,
		DataType: dataType,
		Action:   models.ActionUpload,
		DeviceID: deviceID,
		Success:  true,
		Detail:   fmt.Sprintf("rollback to version %d, server version %d", targetVersion, resp.Version),
	})

	log.Info().
		Int64("user_id", userID).
		Str("data_type", string(dataType)).
		Int64("target_version", targetVersion).
		Int64("server_version", resp.Version).
		Msg("rollback applied")

	return nil
}

// ActionForOperation maps a sync operation onto the audit action that
// describes its transfer direction.
func ActionForOperation(op models.SyncOperation) models.AuditAction {
	switch op {
	case models.OperationPull:
		return models.ActionDownload
	default:
		return models.ActionUpload
	}
}
