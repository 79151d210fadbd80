package models

import "time"

// User represents an account entity used for authentication and authorization.
// Sensitive fields must never be exposed outside trusted boundaries.
type User struct {
	// UserID is the internal unique identifier of the user.
	// It is not exposed via JSON and is used only at the persistence layer.
	UserID int64 `json:"-"`

	// Email is the unique login identifier.
	Email string `json:"email"`

	// Password carries the login password on register/login requests.
	// The server stores only an HMAC-SHA256 hash of it; the master secret
	// used for payload encryption is a separate value that never appears
	// in this struct or on the wire.
	Password string `json:"password,omitempty"`

	// PasswordHash is the stored credential hash. Never serialized.
	PasswordHash string `json:"-"`

	// TwoFactorState is one of "disabled", "setup_pending", "enabled".
	TwoFactorState string `json:"two_factor_state,omitempty"`

	// TwoFactorSecret is the TOTP shared secret. Server-side only.
	TwoFactorSecret string `json:"-"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the name of the database table
// associated with the User model.
func (u User) TableName() string {
	return "users"
}
