package models

import (
	"encoding/json"
	"time"
)

// ResolutionStrategy selects which side of a conflict wins. There is no
// automatic field-level merge: one side fully replaces the other.
type ResolutionStrategy string

const (
	// ResolveUseLocal overwrites the server with the local payload,
	// discarding the server's concurrent change.
	ResolveUseLocal ResolutionStrategy = "use_local"
	// ResolveUseServer overwrites local state with the server's payload,
	// discarding the local pending change.
	ResolveUseServer ResolutionStrategy = "use_server"
)

// Valid reports whether s is a known resolution strategy.
func (s ResolutionStrategy) Valid() bool {
	return s == ResolveUseLocal || s == ResolveUseServer
}

// ConflictInfo describes a detected divergence between the local working copy
// and the server's current version of one data type.
//
// FieldChanges is the ordered symmetric difference of top-level fields between
// the two decrypted payloads; it is presentation material only and never
// drives a merge. An empty FieldChanges with differing payload bytes means the
// difference is below field granularity and the whole record is shown instead.
//
// ConflictInfo is transient: it is built when a push or pull detects version
// drift and discarded once the conflict is resolved.
type ConflictInfo struct {
	DataType        DataType        `json:"data_type"`
	LocalData       json.RawMessage `json:"local_data"`
	ServerData      json.RawMessage `json:"server_data"`
	LocalVersion    int64           `json:"local_version"`
	ServerVersion   int64           `json:"server_version"`
	FieldChanges    []string        `json:"field_changes"`
	LocalUpdatedAt  time.Time       `json:"local_updated_at"`
	ServerUpdatedAt time.Time       `json:"server_updated_at"`
	ConflictDetails string          `json:"conflict_details,omitempty"`
}
