package service

import (
	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/crypto"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
)

// ClientServices bundles the engine-side services consumed by the client
// application.
type ClientServices struct {
	AuthService     ClientAuthService
	EngineService   EngineService
	SyncService     ClientSyncService
	QueueService    ClientQueueService
	SnapshotService ClientSnapshotService
	AuditService    ClientAuditService
	SyncJob         ClientSyncJob
}

// NewClientServices wires the engine service graph: one shared keyed lock
// guards every path that can mutate a data type's sync state (cycle,
// resolution, rollback).
func NewClientServices(cfg *config.EngineConfig, storages store.EngineStorages, serverAdapter adapter.ServerAdapter, logger *logger.Logger) *ClientServices {
	envelopes := crypto.NewEnvelopeService()
	locks := newKeyedLock()

	audit := NewClientAuditService(storages.AuditRepository, cfg.Storage.Exports, logger)
	snapshots := NewClientSnapshotService(storages.SnapshotRepository, serverAdapter, envelopes, locks, audit, logger)
	queue := NewClientQueueService(storages.QueueRepository, serverAdapter, envelopes, snapshots, audit, logger)
	syncSvc := NewClientSyncService(storages.QueueRepository, queue, snapshots, serverAdapter, envelopes, audit, locks, logger)
	auth := NewClientAuthService(serverAdapter, logger)
	job := NewClientSyncJob(syncSvc, auth, audit, cfg.Scheduler, logger)

	return &ClientServices{
		AuthService:     auth,
		EngineService:   NewEngineService(auth, syncSvc, queue, snapshots, audit, job, serverAdapter, logger),
		SyncService:     syncSvc,
		QueueService:    queue,
		SnapshotService: snapshots,
		AuditService:    audit,
		SyncJob:         job,
	}
}
