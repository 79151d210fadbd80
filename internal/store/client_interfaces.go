package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-mail-sync/models"
)

// SnapshotRepository is the engine's local version-history store. Snapshots
// are append-only; the repository mutates only the "current" marker.
type SnapshotRepository interface {
	// SaveSnapshot allocates the next version for (UserID, DataType), inserts
	// the snapshot, and — when snapshot.Current is set — repoints the current
	// marker to it in the same transaction.
	SaveSnapshot(ctx context.Context, snapshot models.SyncSnapshot) (models.SyncSnapshot, error)
	// GetSnapshots returns up to limit snapshots, most recent first.
	GetSnapshots(ctx context.Context, userID int64, dataType models.DataType, limit int) ([]models.SyncSnapshot, error)
	// GetSnapshotByVersion returns the snapshot at an exact version, or
	// [ErrSnapshotNotFound].
	GetSnapshotByVersion(ctx context.Context, userID int64, dataType models.DataType, version int64) (models.SyncSnapshot, error)
	// GetCurrentSnapshot returns the snapshot holding the current marker, or
	// [ErrSnapshotNotFound] when the type has never synced successfully.
	GetCurrentSnapshot(ctx context.Context, userID int64, dataType models.DataType) (models.SyncSnapshot, error)
	// SetCurrent atomically moves the current marker to snapshotID.
	SetCurrent(ctx context.Context, userID int64, dataType models.DataType, snapshotID int64) error
	// PruneSnapshots deletes the oldest non-current snapshots beyond keep.
	PruneSnapshots(ctx context.Context, userID int64, dataType models.DataType, keep int) error
}

// QueueRepository is the engine's durable outbound mutation queue.
type QueueRepository interface {
	// GetPendingItem returns the pending item for (userID, dataType) so
	// enqueue can coalesce, or [ErrQueueItemNotFound].
	GetPendingItem(ctx context.Context, userID int64, dataType models.DataType) (models.QueueItem, error)
	// InsertItem persists a new queue item.
	InsertItem(ctx context.Context, item models.QueueItem) error
	// UpdateItemPayload replaces the payload of an existing pending item
	// (last-write-wins coalescing).
	UpdateItemPayload(ctx context.Context, id string, payload string, baseVersion int64, itemsCount int) error
	// GetDueItems returns pending items whose NextRetryAt is not after now,
	// oldest first.
	GetDueItems(ctx context.Context, userID int64, now time.Time) ([]models.QueueItem, error)
	// MarkAttempt records attempt bookkeeping before the network call is
	// made, so a crash mid-call leaves the item pending and retryable.
	MarkAttempt(ctx context.Context, id string, attemptCount int, nextRetryAt time.Time, lastError string) error
	// MarkCompleted transitions an item to completed after server
	// confirmation.
	MarkCompleted(ctx context.Context, id string) error
	// MarkFailed transitions an item to the terminal failed state.
	MarkFailed(ctx context.Context, id string, lastError string) error
	// RetryFailed moves every failed item back to pending with reset
	// attempt bookkeeping and returns how many were moved.
	RetryFailed(ctx context.Context, userID int64) (int64, error)
	// ClearFailed deletes every failed item and returns how many were
	// deleted.
	ClearFailed(ctx context.Context, userID int64) (int64, error)
	// GetStats counts items per status.
	GetStats(ctx context.Context, userID int64) (models.QueueStats, error)
}

// AuditRepository is the engine's append-only operation log. Entries are
// never updated or deleted.
type AuditRepository interface {
	// AppendEntry persists one audit entry and returns it with its assigned
	// ID and timestamp.
	AppendEntry(ctx context.Context, entry models.AuditLogEntry) (models.AuditLogEntry, error)
	// QueryEntries returns one page of entries matching the filter, most
	// recent first, together with the total match count for pagination.
	QueryEntries(ctx context.Context, userID int64, filter models.AuditFilter) ([]models.AuditLogEntry, int, error)
}
