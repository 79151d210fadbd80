package store

import (
	"context"

	"github.com/MKhiriev/go-mail-sync/models"
)

// UserRepository persists accounts and their two-factor material.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	GetUserByID(ctx context.Context, userID int64) (models.User, error)
	// UpdateTwoFactor sets the two-factor state and TOTP secret on the user
	// row. An empty secret wipes the stored one.
	UpdateTwoFactor(ctx context.Context, userID int64, state, secret string) error
	// ReplaceBackupCodes deletes all stored backup code hashes and inserts
	// the new set in one transaction.
	ReplaceBackupCodes(ctx context.Context, userID int64, codeHashes []string) error
	// ConsumeBackupCode deletes the matching unused hash and reports whether
	// one was consumed. The delete makes single-use atomic.
	ConsumeBackupCode(ctx context.Context, userID int64, codeHash string) (bool, error)
	// CountBackupCodes reports how many unused codes remain.
	CountBackupCodes(ctx context.Context, userID int64) (int, error)
	// DeleteBackupCodes removes every stored code hash for the user.
	DeleteBackupCodes(ctx context.Context, userID int64) error
}

// RecordRepository persists the versioned ciphertext records, one current row
// per (user, data type).
type RecordRepository interface {
	// GetRecord returns the current record or [ErrRecordNotFound].
	GetRecord(ctx context.Context, userID int64, dataType models.DataType) (models.RemoteRecord, error)
	// UpsertRecord applies an optimistic-locking push: the stored version
	// must equal push.BaseVersion (zero for a first push). On a mismatch it
	// returns the current record together with [ErrRecordVersionConflict].
	UpsertRecord(ctx context.Context, userID int64, push models.PushRequest) (models.RemoteRecord, error)
}

// DeviceRepository persists the device registry and session table. Revoking
// a device cascades to its sessions inside one transaction; revoking a
// session never touches the device row.
type DeviceRepository interface {
	CreateDevice(ctx context.Context, device models.Device) (models.Device, error)
	GetDevice(ctx context.Context, userID int64, deviceID string) (models.Device, error)
	ListDevices(ctx context.Context, userID int64) ([]models.Device, error)
	RenameDevice(ctx context.Context, userID int64, deviceID, name string) error
	RevokeDevice(ctx context.Context, userID int64, deviceID string) error
	// TouchDevice refreshes last_seen_at; called on every authenticated
	// request from the device.
	TouchDevice(ctx context.Context, userID int64, deviceID string) error

	CreateSession(ctx context.Context, session models.Session) (models.Session, error)
	ListSessions(ctx context.Context, userID int64) ([]models.Session, error)
	RevokeSession(ctx context.Context, userID int64, sessionID int64) error
	// RevokeAllSessionsExcept revokes every active session not bound to
	// exceptDeviceID and returns how many were revoked. An empty
	// exceptDeviceID revokes everything.
	RevokeAllSessionsExcept(ctx context.Context, userID int64, exceptDeviceID string) (int64, error)
}
