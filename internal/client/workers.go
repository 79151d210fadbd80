package client

import (
	"context"

	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/MKhiriev/go-mail-sync/internal/workers"
)

// schedulerWorker adapts the sync scheduler to the [workers.Worker] contract.
// The context carried here bounds the scheduler's lifetime to the process
// signal context.
type schedulerWorker struct {
	ctx context.Context
	job service.ClientSyncJob
}

func newSchedulerWorker(ctx context.Context, job service.ClientSyncJob) workers.Worker {
	return &schedulerWorker{ctx: ctx, job: job}
}

// Run starts the scheduler ticker. Start spawns its own goroutine, so Run
// returns immediately.
func (w *schedulerWorker) Run() {
	w.job.Start(w.ctx)
}
