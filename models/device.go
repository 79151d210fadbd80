package models

import "time"

// Device is a client installation authorized to sync a user's data.
// One user owns many devices; revoking a device invalidates all of its
// sessions and bars it from further sync at the server boundary.
type Device struct {
	DeviceID   string    `json:"device_id"`
	UserID     int64     `json:"-"`
	DeviceName string    `json:"device_name"`
	Platform   string    `json:"platform"`
	Revoked    bool      `json:"revoked"`
	LastSeenAt time.Time `json:"last_seen_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// Session is one authenticated session on a device. Many sessions may map to
// one device over time; revoking a session does not remove the device from
// the registry.
type Session struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"-"`
	DeviceID     string    `json:"device_id"`
	IPAddress    string    `json:"ip_address,omitempty"`
	Location     string    `json:"location,omitempty"`
	LastActivity time.Time `json:"last_activity"`
	IsCurrent    bool      `json:"is_current"`
	Revoked      bool      `json:"-"`
}
