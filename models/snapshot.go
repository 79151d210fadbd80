// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// SyncOperation names the kind of sync attempt that produced a snapshot.
type SyncOperation string

const (
	// OperationPush records a local→server transfer.
	OperationPush SyncOperation = "push"
	// OperationPull records a server→local transfer.
	OperationPull SyncOperation = "pull"
	// OperationMerge records an explicit conflict resolution.
	OperationMerge SyncOperation = "merge"
)

// SyncStatus is the outcome of a sync attempt.
type SyncStatus string

const (
	// StatusSuccess — the attempt completed and local and server state agree.
	StatusSuccess SyncStatus = "success"
	// StatusFailed — the attempt terminated with an error.
	StatusFailed SyncStatus = "failed"
	// StatusConflict — the attempt detected divergent concurrent edits and
	// stopped awaiting an explicit resolution.
	StatusConflict SyncStatus = "conflict"
)

// SyncSnapshot is an immutable record of one completed sync attempt for a
// data type. Snapshots form the version history used for rollback.
//
// Versions for a given (user, data type) pair form a strictly increasing
// sequence allocated by the snapshot store; exactly one snapshot per pair is
// marked current at any time. Snapshots are never mutated after creation.
type SyncSnapshot struct {
	ID        int64         `json:"id"`
	UserID    int64         `json:"-"`
	DataType  DataType      `json:"data_type"`
	Version   int64         `json:"version"`
	Operation SyncOperation `json:"operation"`

	// ServerVersion is the server's record version this snapshot corresponds
	// to, recorded from the push or pull response. Zero when the attempt
	// never reached a server confirmation (failed and conflict snapshots).
	// Push base versions are read from the current snapshot's ServerVersion,
	// so the value must survive restarts.
	ServerVersion int64 `json:"server_version"`

	SyncStatus   SyncStatus `json:"sync_status"`
	ItemsCount   int        `json:"items_count"`
	DeviceID     string     `json:"device_id"`
	Current      bool       `json:"current"`
	CreatedAt    time.Time  `json:"created_at"`
	ErrorMessage string     `json:"error_message,omitempty"`

	// Envelope is the encrypted payload as it stood at this version. Kept so
	// rollback can restore data, not just repoint the current marker. Empty
	// for failed snapshots, which carry no usable payload.
	Envelope string `json:"-"`
}
