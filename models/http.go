package models

import "time"

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceName string `json:"device_name"`
	Platform   string `json:"platform"`
}

// LoginRequest is the body of POST /api/auth/login. When the account has
// two-factor enabled, either TOTPCode or BackupCode must be supplied.
type LoginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceID   string `json:"device_id,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
	Platform   string `json:"platform,omitempty"`
	TOTPCode   string `json:"totp_code,omitempty"`
	BackupCode string `json:"backup_code,omitempty"`
}

// PushRequest is the body of POST /api/sync/push. Envelope is the encrypted
// payload; BaseVersion is the server version the client last observed for
// this data type — the server rejects the push with a conflict response when
// its current version differs.
type PushRequest struct {
	DataType    DataType `json:"data_type"`
	BaseVersion int64    `json:"base_version"`
	Envelope    string   `json:"envelope"`
	ItemsCount  int      `json:"items_count"`

	// Hash is an HMAC-SHA256 transport integrity hash over Envelope,
	// computed by the adapter and verified by the server.
	Hash string `json:"hash,omitempty"`
}

// PushResponse is the success body of POST /api/sync/push.
type PushResponse struct {
	Version   int64     `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RemoteRecord is the server's current record for one data type, returned by
// pull and by conflict responses. Envelope is ciphertext; the server never
// holds plaintext.
type RemoteRecord struct {
	DataType   DataType  `json:"data_type"`
	Version    int64     `json:"version"`
	Envelope   string    `json:"envelope"`
	ItemsCount int       `json:"items_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TypeSyncOutcome is the per-data-type slot of a SyncResult.
type TypeSyncOutcome struct {
	Synced   bool   `json:"synced"`
	Items    int    `json:"items"`
	Conflict bool   `json:"conflict"`
	Skipped  bool   `json:"skipped"`
	Error    string `json:"error,omitempty"`
}

// SyncResult is returned by a full push/pull cycle across all data types.
type SyncResult struct {
	Outcomes  map[DataType]TypeSyncOutcome `json:"outcomes"`
	Conflicts []ConflictInfo               `json:"conflicts,omitempty"`
	Errors    []string                     `json:"errors,omitempty"`
}

// SchedulerStatus reports the background scheduler state.
type SchedulerStatus struct {
	Running  bool          `json:"running"`
	Enabled  bool          `json:"enabled"`
	Interval time.Duration `json:"interval"`
	LastRun  time.Time     `json:"last_run"`
	NextRun  time.Time     `json:"next_run"`
}
