package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

// engineService is the concrete implementation of EngineService. It binds
// the authenticated identity to every delegated call and passes registry and
// two-factor operations straight through to the server adapter.
type engineService struct {
	auth      ClientAuthService
	sync      ClientSyncService
	queue     ClientQueueService
	snapshots ClientSnapshotService
	audit     ClientAuditService
	job       ClientSyncJob
	server    adapter.ServerAdapter
	logger    *logger.Logger
}

func NewEngineService(auth ClientAuthService, syncSvc ClientSyncService, queue ClientQueueService, snapshots ClientSnapshotService, audit ClientAuditService, job ClientSyncJob, server adapter.ServerAdapter, logger *logger.Logger) EngineService {
	return &engineService{
		auth:      auth,
		sync:      syncSvc,
		queue:     queue,
		snapshots: snapshots,
		audit:     audit,
		job:       job,
		server:    server,
		logger:    logger,
	}
}

func (e *engineService) session() (int64, string, error) {
	userID, deviceID, ok := e.auth.Session()
	if !ok {
		return 0, "", ErrNotAuthenticated
	}
	return userID, deviceID, nil
}

// SaveLocal implements [EngineService].
func (e *engineService) SaveLocal(ctx context.Context, masterSecret string, dataType models.DataType, payload any, itemsCount int) error {
	userID, _, err := e.session()
	if err != nil {
		return err
	}
	return e.sync.SaveLocal(ctx, userID, masterSecret, dataType, payload, itemsCount)
}

// SyncTrigger implements [EngineService].
func (e *engineService) SyncTrigger(ctx context.Context, masterSecret string) (models.SyncResult, error) {
	userID, deviceID, err := e.session()
	if err != nil {
		return models.SyncResult{}, err
	}
	if masterSecret == "" {
		return models.SyncResult{}, ErrNoKeyMaterial
	}

	// a manual trigger also arms the scheduler for subsequent ticks
	e.job.SetMasterSecret(masterSecret)

	return e.sync.SyncAll(ctx, userID, deviceID, masterSecret)
}

// DetectConflicts implements [EngineService].
func (e *engineService) DetectConflicts(ctx context.Context, masterSecret string) ([]models.ConflictInfo, error) {
	userID, _, err := e.session()
	if err != nil {
		return nil, err
	}
	if masterSecret == "" {
		return nil, ErrNoKeyMaterial
	}
	return e.sync.DetectConflicts(ctx, userID, masterSecret)
}

// Resolve implements [EngineService].
func (e *engineService) Resolve(ctx context.Context, dataType models.DataType, strategy models.ResolutionStrategy, masterSecret string) error {
	userID, deviceID, err := e.session()
	if err != nil {
		return err
	}
	if masterSecret == "" {
		return ErrNoKeyMaterial
	}
	return e.sync.Resolve(ctx, userID, deviceID, dataType, strategy, masterSecret)
}

// GetSyncHistory implements [EngineService].
func (e *engineService) GetSyncHistory(ctx context.Context, dataType models.DataType, limit int) ([]models.SyncSnapshot, error) {
	userID, _, err := e.session()
	if err != nil {
		return nil, err
	}
	return e.snapshots.History(ctx, userID, dataType, limit)
}

// RollbackSync implements [EngineService].
func (e *engineService) RollbackSync(ctx context.Context, dataType models.DataType, targetVersion int64, masterSecret string) error {
	userID, deviceID, err := e.session()
	if err != nil {
		return err
	}
	if masterSecret == "" {
		return ErrNoKeyMaterial
	}
	return e.snapshots.Rollback(ctx, userID, deviceID, dataType, targetVersion, masterSecret)
}

// ProcessQueue implements [EngineService].
func (e *engineService) ProcessQueue(ctx context.Context, masterSecret string) (models.ProcessResult, error) {
	userID, deviceID, err := e.session()
	if err != nil {
		return models.ProcessResult{}, err
	}
	if masterSecret == "" {
		return models.ProcessResult{}, ErrNoKeyMaterial
	}
	return e.queue.ProcessPending(ctx, userID, deviceID, masterSecret)
}

// GetQueueStats implements [EngineService].
func (e *engineService) GetQueueStats(ctx context.Context) (models.QueueStats, error) {
	userID, _, err := e.session()
	if err != nil {
		return models.QueueStats{}, err
	}
	return e.queue.Stats(ctx, userID)
}

// RetryFailedSyncs implements [EngineService].
func (e *engineService) RetryFailedSyncs(ctx context.Context) (int64, error) {
	userID, _, err := e.session()
	if err != nil {
		return 0, err
	}
	return e.queue.RetryFailed(ctx, userID)
}

// ClearFailedQueue implements [EngineService].
func (e *engineService) ClearFailedQueue(ctx context.Context) (int64, error) {
	userID, _, err := e.session()
	if err != nil {
		return 0, err
	}
	return e.queue.ClearFailed(ctx, userID)
}

// GetSchedulerStatus implements [EngineService].
func (e *engineService) GetSchedulerStatus() models.SchedulerStatus {
	return e.job.Status()
}

// UpdateSchedulerConfig implements [EngineService].
func (e *engineService) UpdateSchedulerConfig(ctx context.Context, enabled bool, interval time.Duration) {
	e.job.UpdateConfig(ctx, enabled, interval)
}

// ListDevices implements [EngineService].
func (e *engineService) ListDevices(ctx context.Context) ([]models.Device, error) {
	if _, _, err := e.session(); err != nil {
		return nil, err
	}
	return e.server.ListDevices(ctx)
}

// RenameDevice implements [EngineService].
func (e *engineService) RenameDevice(ctx context.Context, deviceID, name string) error {
	if _, _, err := e.session(); err != nil {
		return err
	}
	return e.server.RenameDevice(ctx, deviceID, name)
}

// RevokeDevice implements [EngineService].
func (e *engineService) RevokeDevice(ctx context.Context, deviceID string) error {
	if _, _, err := e.session(); err != nil {
		return err
	}
	return e.server.RevokeDevice(ctx, deviceID)
}

// GetSessions implements [EngineService].
func (e *engineService) GetSessions(ctx context.Context) ([]models.Session, error) {
	if _, _, err := e.session(); err != nil {
		return nil, err
	}
	return e.server.ListSessions(ctx)
}

// RevokeSession implements [EngineService].
func (e *engineService) RevokeSession(ctx context.Context, sessionID int64) error {
	if _, _, err := e.session(); err != nil {
		return err
	}
	return e.server.RevokeSession(ctx, sessionID)
}

// RevokeAllSessions implements [EngineService].
func (e *engineService) RevokeAllSessions(ctx context.Context) (int64, error) {
	if _, _, err := e.session(); err != nil {
		return 0, err
	}
	return e.server.RevokeAllSessions(ctx)
}

// Get2FAStatus implements [EngineService].
func (e *engineService) Get2FAStatus(ctx context.Context) (models.TwoFactorStatus, error) {
	if _, _, err := e.session(); err != nil {
		return models.TwoFactorStatus{}, err
	}
	return e.server.TwoFactorStatus(ctx)
}

// Setup2FA implements [EngineService].
func (e *engineService) Setup2FA(ctx context.Context) (models.TwoFactorSetup, error) {
	if _, _, err := e.session(); err != nil {
		return models.TwoFactorSetup{}, err
	}
	return e.server.TwoFactorSetup(ctx)
}

// Enable2FA implements [EngineService].
func (e *engineService) Enable2FA(ctx context.Context, code string) (models.TwoFactorEnableResult, error) {
	if _, _, err := e.session(); err != nil {
		return models.TwoFactorEnableResult{}, err
	}
	return e.server.TwoFactorEnable(ctx, code)
}

// Disable2FA implements [EngineService].
func (e *engineService) Disable2FA(ctx context.Context, password, code string) error {
	if _, _, err := e.session(); err != nil {
		return err
	}
	return e.server.TwoFactorDisable(ctx, password, code)
}

// GetAuditLogs implements [EngineService].
func (e *engineService) GetAuditLogs(ctx context.Context, filter models.AuditFilter) ([]models.AuditLogEntry, models.Pagination, error) {
	userID, _, err := e.session()
	if err != nil {
		return nil, models.Pagination{}, err
	}
	return e.audit.Query(ctx, userID, filter)
}

// ExportAuditLogs implements [EngineService].
func (e *engineService) ExportAuditLogs(ctx context.Context, start, end time.Time) (string, error) {
	userID, _, err := e.session()
	if err != nil {
		return "", err
	}
	return e.audit.Export(ctx, userID, start, end)
}
