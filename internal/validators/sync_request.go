package validators

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-mail-sync/models"
)

// Field name constants used to specify which fields should be validated.
// These constants are passed to Validate to restrict validation to a subset
// of fields (field-level scoping).
const (
	// FieldDataType targets the semantic data type of a sync request
	// (contacts, preferences, filters, signature).
	FieldDataType = "data_type"

	// FieldEnvelope targets the encrypted payload of a push request.
	FieldEnvelope = "envelope"

	// FieldBaseVersion targets the optimistic concurrency version of a push
	// request.
	FieldBaseVersion = "base_version"

	// FieldHash targets the optional transport integrity hash of a push
	// request.
	FieldHash = "hash"

	// FieldEmail targets the account email of a register or login request.
	FieldEmail = "email"

	// FieldPassword targets the account password of a register or login
	// request.
	FieldPassword = "password"
)

// SyncRequestValidator implements the Validator interface for the wire-level
// request models accepted by the HTTP handlers: PushRequest, RegisterRequest,
// and LoginRequest. It checks structure only; semantic rules (version
// conflicts, credential checks) belong to the service layer.
//
// Both value and pointer receivers are accepted for every model type.
type SyncRequestValidator struct {
}

// NewSyncRequestValidator constructs a new SyncRequestValidator and returns
// it as the Validator interface.
func NewSyncRequestValidator() Validator {
	return &SyncRequestValidator{}
}

// Validate dispatches validation to the appropriate type-specific method
// based on the dynamic type of obj.
//
// Supported types:
//   - models.PushRequest / *models.PushRequest
//   - models.RegisterRequest / *models.RegisterRequest
//   - models.LoginRequest / *models.LoginRequest
//
// Returns ErrUnsupportedType if obj does not match any known model.
// Optional fields restrict validation to the named subset; when omitted,
// every field is validated.
func (v *SyncRequestValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.PushRequest:
		return v.validatePushRequest(ctx, value, fields...)
	case *models.PushRequest:
		return v.validatePushRequest(ctx, *value, fields...)

	case models.RegisterRequest:
		return v.validateCredentials(ctx, value.Email, value.Password, fields...)
	case *models.RegisterRequest:
		return v.validateCredentials(ctx, value.Email, value.Password, fields...)

	case models.LoginRequest:
		return v.validateCredentials(ctx, value.Email, value.Password, fields...)
	case *models.LoginRequest:
		return v.validateCredentials(ctx, value.Email, value.Password, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *SyncRequestValidator) validatePushRequest(_ context.Context, req models.PushRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldDataType, FieldEnvelope, FieldBaseVersion, FieldHash}
	}

	for _, field := range fields {
		switch field {
		case FieldDataType:
			if !req.DataType.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidDataType, req.DataType)
			}
		case FieldEnvelope:
			if err := validateEnvelope(req.Envelope); err != nil {
				return err
			}
		case FieldBaseVersion:
			if req.BaseVersion < 0 {
				return fmt.Errorf("%w: %d", ErrInvalidBaseVersion, req.BaseVersion)
			}
		case FieldHash:
			// the hash is optional on the wire; when present it must be the
			// hex form of an HMAC-SHA256 digest
			if req.Hash != "" {
				if raw, err := hex.DecodeString(req.Hash); err != nil || len(raw) != 32 {
					return ErrInvalidHash
				}
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}

	return nil
}

func (v *SyncRequestValidator) validateCredentials(_ context.Context, email, password string, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldEmail, FieldPassword}
	}

	for _, field := range fields {
		switch field {
		case FieldEmail:
			if strings.TrimSpace(email) == "" {
				return ErrEmptyEmail
			}
		case FieldPassword:
			if password == "" {
				return ErrEmptyPassword
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownField, field)
		}
	}

	return nil
}

// validateEnvelope checks the salt-prefixed wire format without decrypting:
// a base64 salt, a "$" separator, and a non-empty ciphertext blob.
func validateEnvelope(envelope string) error {
	if envelope == "" {
		return ErrEmptyEnvelope
	}

	saltPart, blob, found := strings.Cut(envelope, "$")
	if !found || saltPart == "" || blob == "" {
		return ErrMalformedEnvelope
	}
	if _, err := base64.StdEncoding.DecodeString(saltPart); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}

	return nil
}
