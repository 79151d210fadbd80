package models

import "time"

// QueueStatus is the lifecycle state of a queued mutation.
type QueueStatus string

const (
	// QueuePending — awaiting transmission (possibly after a retryable failure).
	QueuePending QueueStatus = "pending"
	// QueueCompleted — confirmed by the server; kept for listing until cleared.
	QueueCompleted QueueStatus = "completed"
	// QueueFailed — retries exhausted or a non-retryable error; retried only
	// via an explicit retry-failed action.
	QueueFailed QueueStatus = "failed"
)

// QueueItem is a durable pending mutation awaiting transmission to the
// server. The payload is the encrypted envelope, never plaintext.
type QueueItem struct {
	ID           string      `json:"id"`
	UserID       int64       `json:"-"`
	DataType     DataType    `json:"data_type"`
	Payload      string      `json:"payload"`
	BaseVersion  int64       `json:"base_version"`
	ItemsCount   int         `json:"items_count"`
	AttemptCount int         `json:"attempt_count"`
	NextRetryAt  time.Time   `json:"next_retry_at"`
	Status       QueueStatus `json:"status"`
	LastError    string      `json:"last_error,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// QueueStats is the operator-visible summary of the sync queue.
type QueueStats struct {
	PendingCount   int `json:"pending_count"`
	FailedCount    int `json:"failed_count"`
	CompletedCount int `json:"completed_count"`
	TotalCount     int `json:"total_count"`
}

// ProcessResult summarizes one ProcessPending pass over the queue.
type ProcessResult struct {
	Succeeded int `json:"succeeded"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}
