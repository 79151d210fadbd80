// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides transport-layer abstractions for communicating with
// the mail-sync server.
//
// The primary abstraction is [ServerAdapter], which decouples the engine
// service layer from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]) built on resty.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrVersionConflict] for 409, [ErrAuth] for 401).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-mail-sync/models"
)

// ServerAdapter defines transport-agnostic communication with the mail-sync
// server. Implementations are responsible for serialisation, authentication
// header management, and mapping transport-level errors to the sentinel values
// defined in this package.
type ServerAdapter interface {
	// SetToken stores the bearer token that will be attached to all subsequent
	// authenticated requests. It should be called immediately after a
	// successful Register or Login.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// Register creates a new account and its first device. On success it
	// stores the returned bearer token via SetToken and returns the parsed
	// token, including the device identifier the server assigned.
	Register(ctx context.Context, req models.RegisterRequest) (models.Token, error)

	// Login authenticates the user. When the account has two-factor enabled
	// and req carries no TOTP or backup code, it returns
	// [ErrTwoFactorRequired] so the caller can prompt for a code and retry.
	// On success it stores the returned bearer token via SetToken.
	Login(ctx context.Context, req models.LoginRequest) (models.Token, error)

	// Push uploads the encrypted envelope for one data type. Returns a
	// [*VersionConflictError] (wrapping [ErrVersionConflict]) when the server
	// version moved past req.BaseVersion; the error carries the server's
	// current record so the caller can detect conflicts without a second
	// round trip.
	Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error)

	// Pull fetches the server's current record for one data type. Returns
	// [ErrNotFound] (wrapped) when the server has never seen a push for it.
	Pull(ctx context.Context, dataType models.DataType) (models.RemoteRecord, error)

	// ListDevices returns every device registered to the authenticated user,
	// revoked ones included.
	ListDevices(ctx context.Context) ([]models.Device, error)

	// RenameDevice changes the display name of one of the user's devices.
	RenameDevice(ctx context.Context, deviceID, name string) error

	// RevokeDevice revokes a device and every session bound to it. Returns
	// [ErrValidation] (wrapped) when the server refuses to revoke the device
	// the request itself was made from.
	RevokeDevice(ctx context.Context, deviceID string) error

	// ListSessions returns the user's sessions with the current one flagged.
	ListSessions(ctx context.Context) ([]models.Session, error)

	// RevokeSession terminates a single session without touching its device.
	RevokeSession(ctx context.Context, sessionID int64) error

	// RevokeAllSessions terminates every active session except the current
	// one and returns how many were revoked.
	RevokeAllSessions(ctx context.Context) (int64, error)

	// TwoFactorStatus reports the account's two-factor state and how many
	// backup codes remain unused.
	TwoFactorStatus(ctx context.Context) (models.TwoFactorStatus, error)

	// TwoFactorSetup starts two-factor enrolment and returns the TOTP secret
	// and provisioning URI. The account stays in the setup-pending state
	// until TwoFactorEnable confirms with a valid code.
	TwoFactorSetup(ctx context.Context) (models.TwoFactorSetup, error)

	// TwoFactorEnable confirms enrolment with a TOTP code and returns the
	// freshly generated single-use backup codes. The codes are shown exactly
	// once; the server retains only their hashes.
	TwoFactorEnable(ctx context.Context, code string) (models.TwoFactorEnableResult, error)

	// TwoFactorDisable turns the two-factor gate off. It requires the account
	// password and a valid second factor; on success the server revokes every
	// active session unconditionally.
	TwoFactorDisable(ctx context.Context, password, code string) error
}
