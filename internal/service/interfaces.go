// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service contains the application's business logic, split into a
// server half and an engine half.
//
// Server services (AuthService, TwoFactorService, RecordService,
// DeviceService) sit between the HTTP handlers and the Postgres
// repositories. Engine services (EngineService and the Client* interfaces)
// drive the sync cycle against the local SQLite state and the remote server
// through [adapter.ServerAdapter]. The server never sees plaintext payloads;
// everything it stores arrives as an opaque envelope.
package service

import (
	"context"

	"github.com/MKhiriev/go-mail-sync/models"
)

// AuthService handles registration, login (including the two-factor step),
// and JWT lifecycle on the server side.
type AuthService interface {
	// Register creates a new account with its first device and session and
	// returns a signed token bound to that device.
	Register(ctx context.Context, req models.RegisterRequest, ipAddress string) (models.Token, error)

	// Login authenticates an existing user. When the account has two-factor
	// enabled and req carries neither a TOTP nor a backup code, it returns
	// [ErrTwoFactorRequired] without issuing a token.
	Login(ctx context.Context, req models.LoginRequest, ipAddress string) (models.Token, error)

	// ParseToken validates a raw JWT string and returns the decoded token
	// with UserID and DeviceID populated.
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// TwoFactorService manages the TOTP gate on the user account.
// State transitions: disabled → setup_pending → enabled → disabled.
type TwoFactorService interface {
	Status(ctx context.Context, userID int64) (models.TwoFactorStatus, error)

	// Setup generates a fresh TOTP secret and provisioning URI and moves the
	// account to setup_pending. Calling it again regenerates the secret.
	Setup(ctx context.Context, userID int64) (models.TwoFactorSetup, error)

	// Enable confirms enrolment with a TOTP code. On success it generates 10
	// single-use backup codes, stores only their hashes, returns the
	// plaintext codes exactly once, and moves the account to enabled.
	Enable(ctx context.Context, userID int64, code string) (models.TwoFactorEnableResult, error)

	// Disable requires the account password and a valid TOTP or unused
	// backup code. On success the secret and backup codes are wiped and
	// every active session is revoked unconditionally.
	Disable(ctx context.Context, userID int64, password, code string) error
}

// RecordService owns the server's versioned ciphertext records.
type RecordService interface {
	// Push applies an optimistic-locking upload. On success the returned
	// record carries the newly assigned version. When the stored version has
	// moved past req.BaseVersion the server's current record is returned
	// together with an error wrapping store.ErrRecordVersionConflict.
	Push(ctx context.Context, userID int64, req models.PushRequest) (models.RemoteRecord, error)

	// Pull returns the current record for one data type, or
	// store.ErrRecordNotFound when the type has never been pushed.
	Pull(ctx context.Context, userID int64, dataType models.DataType) (models.RemoteRecord, error)
}

// DeviceService manages the device registry and session table.
type DeviceService interface {
	ListDevices(ctx context.Context, userID int64) ([]models.Device, error)
	RenameDevice(ctx context.Context, userID int64, deviceID, name string) error

	// RevokeDevice revokes a device and cascades to its sessions. Revoking
	// the device the request came from is rejected with
	// [ErrCannotRevokeCurrentDevice].
	RevokeDevice(ctx context.Context, userID int64, currentDeviceID, targetDeviceID string) error

	// CheckDevice verifies that the device exists and is not revoked, and
	// refreshes its last-seen timestamp. Called by the auth middleware on
	// every authenticated request.
	CheckDevice(ctx context.Context, userID int64, deviceID string) error

	// ListSessions returns the user's active sessions with the one bound to
	// currentDeviceID flagged as current.
	ListSessions(ctx context.Context, userID int64, currentDeviceID string) ([]models.Session, error)
	RevokeSession(ctx context.Context, userID int64, sessionID int64) error

	// RevokeAllExceptCurrent revokes every active session not bound to
	// currentDeviceID and returns how many were revoked.
	RevokeAllExceptCurrent(ctx context.Context, userID int64, currentDeviceID string) (int64, error)
}
