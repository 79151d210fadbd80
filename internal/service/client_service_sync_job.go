package service

import (
	"context"
	"sync"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

const defaultSyncInterval = 5 * time.Minute

// clientSyncJob is the background scheduler. It runs the full sync cycle on
// a ticker; per-type mutual exclusion is enforced inside the sync service,
// so a tick overlapping a manual sync skips the busy types rather than
// queueing behind them.
//
// The master secret is held only for the lifetime of the scheduled session
// and only in memory. A tick that finds no secret is skipped visibly —
// logged and audited — never run unencrypted.
type clientSyncJob struct {
	sync  ClientSyncService
	auth  ClientAuthService
	audit ClientAuditService

	logger *logger.Logger

	mu           sync.Mutex
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	enabled      bool
	interval     time.Duration
	running      bool
	lastRun      time.Time
	nextRun      time.Time
	masterSecret string
}

// NewClientSyncJob creates a scheduler configured from cfg. The job is idle
// until Start is called.
func NewClientSyncJob(syncService ClientSyncService, auth ClientAuthService, audit ClientAuditService, cfg config.Scheduler, logger *logger.Logger) ClientSyncJob {
	interval := cfg.SyncInterval
	if interval <= 0 {
		interval = defaultSyncInterval
	}

	return &clientSyncJob{
		sync:     syncService,
		auth:     auth,
		audit:    audit,
		enabled:  cfg.SyncEnabled,
		interval: interval,
		logger:   logger,
	}
}

// Start implements [ClientSyncJob]. It stops any previously running ticker
// first; a disabled scheduler stays idle. The goroutine exits when ctx is
// cancelled or Stop is called.
func (j *clientSyncJob) Start(ctx context.Context) {
	j.Stop()

	j.mu.Lock()
	if !j.enabled {
		j.mu.Unlock()
		return
	}

	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.running = true
	j.nextRun = time.Now().Add(j.interval)
	interval := j.interval
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				j.mu.Lock()
				j.running = false
				j.mu.Unlock()
				return
			case <-t.C:
				j.tick(jobCtx)
			}
		}
	}()
}

// Stop implements [ClientSyncJob]. Blocks until the ticker goroutine has
// fully exited. Safe to call when the job is not running.
func (j *clientSyncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}

// Status implements [ClientSyncJob].
func (j *clientSyncJob) Status() models.SchedulerStatus {
	j.mu.Lock()
	defer j.mu.Unlock()

	return models.SchedulerStatus{
		Running:  j.running,
		Enabled:  j.enabled,
		Interval: j.interval,
		LastRun:  j.lastRun,
		NextRun:  j.nextRun,
	}
}

// UpdateConfig implements [ClientSyncJob].
func (j *clientSyncJob) UpdateConfig(ctx context.Context, enabled bool, interval time.Duration) {
	j.mu.Lock()
	j.enabled = enabled
	if interval > 0 {
		j.interval = interval
	}
	j.mu.Unlock()

	j.Start(ctx) // Start handles both the restart and the disabled case
}

// SetMasterSecret implements [ClientSyncJob].
func (j *clientSyncJob) SetMasterSecret(secret string) {
	j.mu.Lock()
	j.masterSecret = secret
	j.mu.Unlock()
}

// tick runs one scheduled cycle.
func (j *clientSyncJob) tick(ctx context.Context) {
	j.mu.Lock()
	secret := j.masterSecret
	j.lastRun = time.Now()
	j.nextRun = j.lastRun.Add(j.interval)
	j.mu.Unlock()

	userID, deviceID, ok := j.auth.Session()
	if !ok {
		j.logger.Debug().Str("func", "clientSyncJob.tick").Msg("scheduled sync skipped: not authenticated")
		return
	}

	if secret == "" {
		j.logger.Warn().Str("func", "clientSyncJob.tick").Msg("scheduled sync skipped: no key material")
		j.audit.Record(ctx, models.AuditLogEntry{
			UserID:       userID,
			Action:       models.ActionSync,
			DeviceID:     deviceID,
			Success:      false,
			Detail:       "scheduled cycle",
			ErrorMessage: "skipped: no key material",
		})
		return
	}

	result, err := j.sync.SyncAll(ctx, userID, deviceID, secret)
	if err != nil {
		j.logger.Err(err).Str("func", "clientSyncJob.tick").Msg("scheduled sync cycle failed")
		return
	}

	j.logger.Info().
		Str("func", "clientSyncJob.tick").
		Int("conflicts", len(result.Conflicts)).
		Int("errors", len(result.Errors)).
		Msg("scheduled sync cycle finished")
}
