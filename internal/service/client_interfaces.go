package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-mail-sync/models"
)

// ClientAuthService holds the engine's server session: registration, login
// (including the two-factor retry), and the identity extracted from the
// issued token. The master secret is NOT part of the session — it is a
// per-call parameter of every operation that touches plaintext.
type ClientAuthService interface {
	// Register creates the account and the first device on the server and
	// remembers the authenticated identity.
	Register(ctx context.Context, req models.RegisterRequest) error

	// Login authenticates against the server. When the account has
	// two-factor enabled and req carries no code, the adapter's
	// ErrTwoFactorRequired is passed through so the caller can prompt and
	// retry with a TOTP or backup code.
	Login(ctx context.Context, req models.LoginRequest) error

	// Logout drops the bearer token and the remembered identity.
	Logout()

	// Session returns the authenticated user and device, or ok=false before
	// any successful login.
	Session() (userID int64, deviceID string, ok bool)
}

// ClientSyncService drives the push/pull cycle for the local working copy.
type ClientSyncService interface {
	// SaveLocal encrypts a changed payload and coalesces it into the durable
	// queue. It performs no network I/O; transmission happens on the next
	// sync cycle or queue pass.
	SaveLocal(ctx context.Context, userID int64, masterSecret string, dataType models.DataType, payload any, itemsCount int) error

	// SyncAll runs one full cycle over every data type. Types whose lock is
	// busy are reported as skipped, never queued.
	SyncAll(ctx context.Context, userID int64, deviceID, masterSecret string) (models.SyncResult, error)

	// SyncType runs one cycle for a single data type under its lock.
	// Returns [ErrSyncInProgress] when the lock is busy.
	SyncType(ctx context.Context, userID int64, deviceID, masterSecret string, dataType models.DataType) (models.TypeSyncOutcome, *models.ConflictInfo, error)

	// DetectConflicts compares every pending local change against the
	// server without mutating anything.
	DetectConflicts(ctx context.Context, userID int64, masterSecret string) ([]models.ConflictInfo, error)

	// Resolve applies an explicit conflict resolution for one data type.
	// use_local force-pushes the pending payload; use_server adopts the
	// server record and discards the pending change. Never a field merge.
	Resolve(ctx context.Context, userID int64, deviceID string, dataType models.DataType, strategy models.ResolutionStrategy, masterSecret string) error
}

// ClientQueueService owns the durable outbound queue.
type ClientQueueService interface {
	// Enqueue coalesces item into the existing pending item for its
	// (user, data type) pair, or inserts a new one.
	Enqueue(ctx context.Context, item models.QueueItem) (models.QueueItem, error)

	// ProcessPending pushes every due pending item. Attempt bookkeeping is
	// written ahead of each network call so a crash mid-call leaves the item
	// pending and retryable.
	ProcessPending(ctx context.Context, userID int64, deviceID, masterSecret string) (models.ProcessResult, error)

	// RetryFailed moves failed items back to pending and returns the count.
	RetryFailed(ctx context.Context, userID int64) (int64, error)
	// ClearFailed deletes failed items and returns the count.
	ClearFailed(ctx context.Context, userID int64) (int64, error)
	Stats(ctx context.Context, userID int64) (models.QueueStats, error)
}

// ClientSnapshotService owns the local version history.
type ClientSnapshotService interface {
	// Record persists a snapshot of a completed sync attempt and prunes
	// history beyond the retention window. Pruning never removes the current
	// row and never shrinks history below the retention minimum.
	Record(ctx context.Context, snapshot models.SyncSnapshot) (models.SyncSnapshot, error)

	// History returns up to limit snapshots, most recent first.
	History(ctx context.Context, userID int64, dataType models.DataType, limit int) ([]models.SyncSnapshot, error)

	// Current returns the snapshot holding the current marker, or
	// store.ErrSnapshotNotFound when the type has never synced successfully.
	Current(ctx context.Context, userID int64, dataType models.DataType) (models.SyncSnapshot, error)

	// Rollback restores the payload of an earlier successful snapshot:
	// re-encrypts it with a fresh key derived from masterSecret, pushes it to
	// the server, and marks the target current. Later history rows are kept.
	Rollback(ctx context.Context, userID int64, deviceID string, dataType models.DataType, targetVersion int64, masterSecret string) error
}

// ClientAuditService owns the engine's append-only operation log.
type ClientAuditService interface {
	// Record appends an entry. Audit failures are logged, never propagated:
	// a sync outcome must not be lost because its log write failed.
	Record(ctx context.Context, entry models.AuditLogEntry)

	// Query returns one page of entries matching the filter, most recent
	// first, with pagination metadata.
	Query(ctx context.Context, userID int64, filter models.AuditFilter) ([]models.AuditLogEntry, models.Pagination, error)

	// Export writes every entry in [start, end] to a JSONL file in the
	// configured export directory and returns the file path.
	Export(ctx context.Context, userID int64, start, end time.Time) (string, error)
}

// ClientSyncJob is the background scheduler. Each tick runs a full sync
// cycle; a tick that finds no key material or no session is skipped visibly
// (logged and audited), never run unencrypted.
type ClientSyncJob interface {
	Start(ctx context.Context)
	Stop()
	Status() models.SchedulerStatus
	// UpdateConfig applies new scheduler settings and restarts or stops the
	// ticker accordingly.
	UpdateConfig(ctx context.Context, enabled bool, interval time.Duration)
	// SetMasterSecret hands the scheduler the key material for the lifetime
	// of the scheduled session. An empty string clears it.
	SetMasterSecret(secret string)
}

// EngineService is the engine's full command surface, consumed by the client
// application. It resolves the authenticated identity internally and
// delegates to the sync, queue, snapshot, audit, and scheduler services and
// to the server adapter for registry operations.
type EngineService interface {
	SaveLocal(ctx context.Context, masterSecret string, dataType models.DataType, payload any, itemsCount int) error
	SyncTrigger(ctx context.Context, masterSecret string) (models.SyncResult, error)
	DetectConflicts(ctx context.Context, masterSecret string) ([]models.ConflictInfo, error)
	Resolve(ctx context.Context, dataType models.DataType, strategy models.ResolutionStrategy, masterSecret string) error

	GetSyncHistory(ctx context.Context, dataType models.DataType, limit int) ([]models.SyncSnapshot, error)
	RollbackSync(ctx context.Context, dataType models.DataType, targetVersion int64, masterSecret string) error

	ProcessQueue(ctx context.Context, masterSecret string) (models.ProcessResult, error)
	GetQueueStats(ctx context.Context) (models.QueueStats, error)
	RetryFailedSyncs(ctx context.Context) (int64, error)
	ClearFailedQueue(ctx context.Context) (int64, error)

	GetSchedulerStatus() models.SchedulerStatus
	UpdateSchedulerConfig(ctx context.Context, enabled bool, interval time.Duration)

	ListDevices(ctx context.Context) ([]models.Device, error)
	RenameDevice(ctx context.Context, deviceID, name string) error
	RevokeDevice(ctx context.Context, deviceID string) error
	GetSessions(ctx context.Context) ([]models.Session, error)
	RevokeSession(ctx context.Context, sessionID int64) error
	RevokeAllSessions(ctx context.Context) (int64, error)

	Get2FAStatus(ctx context.Context) (models.TwoFactorStatus, error)
	Setup2FA(ctx context.Context) (models.TwoFactorSetup, error)
	Enable2FA(ctx context.Context, code string) (models.TwoFactorEnableResult, error)
	Disable2FA(ctx context.Context, password, code string) error

	GetAuditLogs(ctx context.Context, filter models.AuditFilter) ([]models.AuditLogEntry, models.Pagination, error)
	ExportAuditLogs(ctx context.Context, start, end time.Time) (string, error)
}
