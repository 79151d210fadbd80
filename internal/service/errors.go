package service

import "errors"

// Server-side sentinels.
var (
	ErrInvalidDataProvided = errors.New("invalid data provided")
	// ErrInvalidCredentials covers wrong email/password pairs and failed
	// second-factor checks on disable. Deliberately indistinguishable so the
	// response does not reveal which part was wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrTwoFactorRequired is returned on login when the account has
	// two-factor enabled and the request carried no TOTP or backup code.
	ErrTwoFactorRequired = errors.New("two-factor code required")
	// ErrInvalidCode marks a rejected TOTP or backup code.
	ErrInvalidCode = errors.New("invalid two-factor code")
	// ErrTwoFactorNotPending is returned by enable when setup was never started.
	ErrTwoFactorNotPending = errors.New("two-factor setup not pending")

	ErrDeviceRevoked             = errors.New("device is revoked")
	ErrCannotRevokeCurrentDevice = errors.New("cannot revoke the current device")

	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")

	// ErrIntegrityCheckFailed marks a push whose transport hash does not
	// match the envelope it arrived with.
	ErrIntegrityCheckFailed = errors.New("payload integrity check failed")
)

// Engine-side sentinels.
var (
	// ErrSyncInProgress is returned when a sync, rollback, or resolution is
	// requested for a data type whose per-type lock is already held. The
	// caller retries later; requests are never queued behind the lock.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrNotAuthenticated is returned by engine operations that need a
	// server session before any login has succeeded.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoKeyMaterial is returned when an operation needs the master secret
	// and none was provided.
	ErrNoKeyMaterial = errors.New("no key material provided")

	ErrRollbackTargetNotFound = errors.New("rollback target version not found")
	// ErrRollbackTargetFailed rejects rolling back to a snapshot that records
	// a failed attempt: it carries no usable payload.
	ErrRollbackTargetFailed = errors.New("rollback target is a failed snapshot")

	ErrInvalidResolutionStrategy = errors.New("invalid resolution strategy")
	// ErrNothingToResolve is returned when resolution is requested for a data
	// type with no pending local change.
	ErrNothingToResolve = errors.New("no pending change to resolve")

	// ErrMalformedEnvelope marks a stored or received envelope that is not in
	// the salt-prefixed wire format.
	ErrMalformedEnvelope = errors.New("malformed envelope")
)
