package service

import (
	"sync"

	"github.com/MKhiriev/go-mail-sync/models"
)

// keyedLock provides per-data-type mutual exclusion for sync cycles. A busy
// key is reported immediately so callers reject with a "sync in progress"
// status instead of queueing behind the holder.
type keyedLock struct {
	mu   sync.Mutex
	held map[models.DataType]bool
}

func newKeyedLock() *keyedLock {
	return &keyedLock{held: make(map[models.DataType]bool)}
}

// TryLock acquires the lock for dataType. Returns false when it is already
// held.
func (l *keyedLock) TryLock(dataType models.DataType) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[dataType] {
		return false
	}
	l.held[dataType] = true
	return true
}

// Unlock releases the lock for dataType. Releasing an unheld lock is a no-op.
func (l *keyedLock) Unlock(dataType models.DataType) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, dataType)
}
