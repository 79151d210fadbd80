package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/pquerna/otp/totp"
)

const backupCodeCount = 10

// twoFactorService is the concrete implementation of TwoFactorService.
type twoFactorService struct {
	users   store.UserRepository
	devices store.DeviceRepository

	passwordHashKey string
	// issuer appears in the provisioning URI shown by authenticator apps.
	issuer string

	logger *logger.Logger
}

func NewTwoFactorService(users store.UserRepository, devices store.DeviceRepository, cfg config.App, logger *logger.Logger) TwoFactorService {
	return &twoFactorService{
		users:           users,
		devices:         devices,
		passwordHashKey: cfg.PasswordHashKey,
		issuer:          cfg.TokenIssuer,
		logger:          logger,
	}
}

// Status implements [TwoFactorService].
func (t *twoFactorService) Status(ctx context.Context, userID int64) (models.TwoFactorStatus, error) {
	user, err := t.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.TwoFactorStatus{}, fmt.Errorf("user lookup failed: %w", err)
	}

	remaining := 0
	if user.TwoFactorState == models.TwoFactorEnabled {
		remaining, err = t.users.CountBackupCodes(ctx, userID)
		if err != nil {
			return models.TwoFactorStatus{}, fmt.Errorf("backup code count failed: %w", err)
		}
	}

	return models.TwoFactorStatus{State: user.TwoFactorState, BackupCodesLeft: remaining}, nil
}

// Setup implements [TwoFactorService]. A repeated call regenerates the
// secret; the previous one becomes useless.
func (t *twoFactorService) Setup(ctx context.Context, userID int64) (models.TwoFactorSetup, error) {
	log := logger.FromContext(ctx)

	user, err := t.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.TwoFactorSetup{}, fmt.Errorf("user lookup failed: %w", err)
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      t.issuer,
		AccountName: user.Email,
	})
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("totp secret generation failed")
		return models.TwoFactorSetup{}, fmt.Errorf("totp secret generation failed: %w", err)
	}

	if err = t.users.UpdateTwoFactor(ctx, userID, models.TwoFactorSetupPending, key.Secret()); err != nil {
		return models.TwoFactorSetup{}, fmt.Errorf("storing totp secret failed: %w", err)
	}

	return models.TwoFactorSetup{Secret: key.Secret(), ProvisioningURI: key.URL()}, nil
}

// Enable implements [TwoFactorService]. The plaintext backup codes in the
// result are shown exactly once; only their SHA-256 hashes are retained.
func (t *twoFactorService) Enable(ctx context.Context, userID int64, code string) (models.TwoFactorEnableResult, error) {
	log := logger.FromContext(ctx)

	user, err := t.users.GetUserByID(ctx, userID)
	if err != nil {
		return models.TwoFactorEnableResult{}, fmt.Errorf("user lookup failed: %w", err)
	}
	if user.TwoFactorState != models.TwoFactorSetupPending {
		return models.TwoFactorEnableResult{}, ErrTwoFactorNotPending
	}

	if !totp.Validate(code, user.TwoFactorSecret) {
		log.Warn().Int64("user_id", userID).Msg("rejected totp code on enable")
		return models.TwoFactorEnableResult{}, ErrInvalidCode
	}

	codes, err := generateBackupCodes(backupCodeCount)
	if err != nil {
		return models.TwoFactorEnableResult{}, fmt.Errorf("backup code generation failed: %w", err)
	}

	hashes := make([]string, 0, len(codes))
	for _, c := range codes {
		hashes = append(hashes, utils.SHA256Hex(c))
	}
	if err = t.users.ReplaceBackupCodes(ctx, userID, hashes); err != nil {
		return models.TwoFactorEnableResult{}, fmt.Errorf("storing backup codes failed: %w", err)
	}

	if err = t.users.UpdateTwoFactor(ctx, userID, models.TwoFactorEnabled, user.TwoFactorSecret); err != nil {
		return models.TwoFactorEnableResult{}, fmt.Errorf("enabling two-factor failed: %w", err)
	}

	return models.TwoFactorEnableResult{BackupCodes: codes}, nil
}

// Disable implements [TwoFactorService]. Password and second factor are both
// required; a failure of either leaves the account, its codes, and its
// sessions untouched. On success every active session is revoked — disabling
// the gate lowers the account's trust level.
func (t *twoFactorService) Disable(ctx context.Context, userID int64, password, code string) error {
	log := logger.FromContext(ctx)

	user, err := t.users.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}

	if user.PasswordHash != utils.HashString(password, t.passwordHashKey) {
		log.Warn().Int64("user_id", userID).Msg("wrong password on two-factor disable")
		return ErrInvalidCredentials
	}

	if !totp.Validate(code, user.TwoFactorSecret) {
		consumed, consumeErr := t.users.ConsumeBackupCode(ctx, userID, utils.SHA256Hex(code))
		if consumeErr != nil {
			return fmt.Errorf("backup code check failed: %w", consumeErr)
		}
		if !consumed {
			log.Warn().Int64("user_id", userID).Msg("rejected second factor on two-factor disable")
			return ErrInvalidCredentials
		}
	}

	if err = t.users.UpdateTwoFactor(ctx, userID, models.TwoFactorDisabled, ""); err != nil {
		return fmt.Errorf("disabling two-factor failed: %w", err)
	}
	if err = t.users.DeleteBackupCodes(ctx, userID); err != nil {
		return fmt.Errorf("wiping backup codes failed: %w", err)
	}

	// empty device id revokes every session, current one included
	revoked, err := t.devices.RevokeAllSessionsExcept(ctx, userID, "")
	if err != nil {
		return fmt.Errorf("revoking sessions failed: %w", err)
	}
	log.Info().Int64("user_id", userID).Int64("revoked_sessions", revoked).Msg("two-factor disabled")

	return nil
}

// generateBackupCodes returns n random codes in XXXX-XXXX hex form.
func generateBackupCodes(n int) ([]string, error) {
	codes := make([]string, 0, n)
	for i := 0; i < n; i++ {
		raw := make([]byte, 4)
		if _, err := io.ReadFull(rand.Reader, raw); err != nil {
			return nil, err
		}
		s := hex.EncodeToString(raw)
		codes = append(codes, s[:4]+"-"+s[4:])
	}
	return codes, nil
}
