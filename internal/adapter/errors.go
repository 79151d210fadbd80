package adapter

import (
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-mail-sync/models"
)

// Sentinel errors returned by [ServerAdapter] implementations. The engine
// classifies failures with [errors.Is]: [ErrTransport] and [ErrRateLimit] are
// retryable, everything else is not.
var (
	// ErrTransport indicates the server could not be reached or answered
	// with a 5xx status. Operations failing with it are safe to retry.
	ErrTransport = errors.New("server unavailable")
	// ErrAuth indicates missing, expired, or revoked credentials. The caller
	// must re-authenticate; retrying with the same token will not help.
	ErrAuth = errors.New("authentication failed")
	// ErrTwoFactorRequired indicates the account has two-factor enabled and
	// the login request carried no TOTP or backup code.
	ErrTwoFactorRequired = errors.New("two-factor code required")
	// ErrValidation indicates the server rejected the request body.
	ErrValidation = errors.New("request rejected")
	// ErrNotFound indicates the requested resource does not exist on the
	// server, e.g. a pull for a data type that was never pushed.
	ErrNotFound = errors.New("not found")
	// ErrVersionConflict indicates the server version moved past the
	// client's base version. See [VersionConflictError] for the payload.
	ErrVersionConflict = errors.New("version conflict")
	// ErrRateLimit indicates the server throttled the request. See
	// [RateLimitError] for the advised delay.
	ErrRateLimit = errors.New("rate limited")
)

// VersionConflictError is returned by Push when the server's current version
// differs from the request's base version. Server carries the record the
// server holds now, so conflict detection needs no extra pull.
type VersionConflictError struct {
	Server models.RemoteRecord
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: server holds %s v%d", e.Server.DataType, e.Server.Version)
}

func (e *VersionConflictError) Unwrap() error {
	return ErrVersionConflict
}

// RateLimitError is returned on HTTP 429. RetryAfter is the server's advised
// delay, or zero when the Retry-After header was absent or unparsable.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimit
}

// IsRetryable reports whether err represents a transient failure that a later
// attempt may succeed on. Used by the sync queue to decide between scheduling
// a retry and marking the item failed.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransport) || errors.Is(err, ErrRateLimit)
}
