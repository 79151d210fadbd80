package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/pquerna/otp/totp"
)

// authService is the concrete implementation of AuthService.
// Passwords are hashed with HMAC-SHA256 before storage or comparison; tokens
// are HS256 JWTs carrying the user in "sub" and the device in the private
// "dev" claim.
type authService struct {
	users   store.UserRepository
	devices store.DeviceRepository

	// passwordHashKey is the HMAC secret applied to every password before it
	// touches the users table. Must match the value used at registration.
	passwordHashKey string

	tokenSignKey  string
	tokenIssuer   string
	tokenDuration time.Duration

	uuid   *utils.UUIDGenerator
	logger *logger.Logger
}

// NewAuthService constructs an AuthService wired to the user and device
// repositories and populated with security parameters from cfg.
// The returned service is safe for concurrent use; all state is read-only
// after construction.
func NewAuthService(users store.UserRepository, devices store.DeviceRepository, cfg config.App, logger *logger.Logger) AuthService {
	return &authService{
		users:           users,
		devices:         devices,
		passwordHashKey: cfg.PasswordHashKey,
		tokenSignKey:    cfg.TokenSignKey,
		tokenIssuer:     cfg.TokenIssuer,
		tokenDuration:   cfg.TokenDuration,
		uuid:            utils.NewUUIDGenerator(),
		logger:          logger,
	}
}

// Register implements [AuthService]. It creates the account, registers the
// first device, opens a session, and issues a token bound to that device.
//
// Returns ErrInvalidDataProvided for an empty email or password, or a wrapped
// storage error (store.ErrEmailAlreadyExists when the email is taken).
func (a *authService) Register(ctx context.Context, req models.RegisterRequest, ipAddress string) (models.Token, error) {
	log := logger.FromContext(ctx)

	if req.Email == "" || req.Password == "" {
		log.Error().Str("email", req.Email).Msg("invalid registration data provided")
		return models.Token{}, ErrInvalidDataProvided
	}

	user, err := a.users.CreateUser(ctx, models.User{
		Email:          req.Email,
		PasswordHash:   utils.HashString(req.Password, a.passwordHashKey),
		TwoFactorState: models.TwoFactorDisabled,
	})
	if err != nil {
		log.Err(err).Str("email", req.Email).Msg("user creation ended with error")
		return models.Token{}, fmt.Errorf("user creation ended with error: %w", err)
	}

	device, err := a.registerDevice(ctx, user.UserID, "", req.DeviceName, req.Platform)
	if err != nil {
		return models.Token{}, err
	}

	return a.openSession(ctx, user.UserID, device.DeviceID, ipAddress)
}

// Login implements [AuthService].
//
// Returns:
//   - ErrInvalidDataProvided when email or password is empty;
//   - ErrInvalidCredentials when the user is unknown or the password hash
//     does not match;
//   - ErrTwoFactorRequired when the account has two-factor enabled and req
//     carries no second factor;
//   - ErrInvalidCode when the supplied TOTP or backup code is rejected;
//   - ErrDeviceRevoked when req names a previously revoked device.
func (a *authService) Login(ctx context.Context, req models.LoginRequest, ipAddress string) (models.Token, error) {
	log := logger.FromContext(ctx)

	if req.Email == "" || req.Password == "" {
		log.Error().Str("email", req.Email).Msg("invalid login data provided")
		return models.Token{}, ErrInvalidDataProvided
	}

	user, err := a.users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return models.Token{}, ErrInvalidCredentials
		}
		log.Err(err).Str("email", req.Email).Msg("user search by email failed")
		return models.Token{}, fmt.Errorf("user search by email failed: %w", err)
	}

	if user.PasswordHash != utils.HashString(req.Password, a.passwordHashKey) {
		log.Warn().Int64("user_id", user.UserID).Msg("wrong password")
		return models.Token{}, ErrInvalidCredentials
	}

	if user.TwoFactorState == models.TwoFactorEnabled {
		if err = a.verifySecondFactor(ctx, user, req.TOTPCode, req.BackupCode); err != nil {
			return models.Token{}, err
		}
	}

	device, err := a.registerDevice(ctx, user.UserID, req.DeviceID, req.DeviceName, req.Platform)
	if err != nil {
		return models.Token{}, err
	}

	return a.openSession(ctx, user.UserID, device.DeviceID, ipAddress)
}

// ParseToken implements [AuthService]. Any validation failure (expired, wrong
// issuer, bad signature, missing device claim) is normalised to
// ErrTokenIsExpiredOrInvalid so callers never inspect low-level JWT errors.
func (a *authService) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	token, err := utils.ValidateAndParseJWTToken(tokenString, a.tokenSignKey, a.tokenIssuer)
	if err != nil {
		return models.Token{}, ErrTokenIsExpiredOrInvalid
	}

	return token, nil
}

// verifySecondFactor checks the TOTP code or consumes a backup code.
// Called only for accounts in the enabled state.
func (a *authService) verifySecondFactor(ctx context.Context, user models.User, totpCode, backupCode string) error {
	log := logger.FromContext(ctx)

	switch {
	case totpCode != "":
		if !totp.Validate(totpCode, user.TwoFactorSecret) {
			log.Warn().Int64("user_id", user.UserID).Msg("rejected totp code on login")
			return ErrInvalidCode
		}
		return nil

	case backupCode != "":
		consumed, err := a.users.ConsumeBackupCode(ctx, user.UserID, utils.SHA256Hex(backupCode))
		if err != nil {
			return fmt.Errorf("backup code check failed: %w", err)
		}
		if !consumed {
			log.Warn().Int64("user_id", user.UserID).Msg("rejected backup code on login")
			return ErrInvalidCode
		}
		return nil

	default:
		return ErrTwoFactorRequired
	}
}

// registerDevice resolves the device the session will be bound to: an
// existing non-revoked device named by deviceID, or a freshly created one.
func (a *authService) registerDevice(ctx context.Context, userID int64, deviceID, deviceName, platform string) (models.Device, error) {
	log := logger.FromContext(ctx)

	if deviceID != "" {
		device, err := a.devices.GetDevice(ctx, userID, deviceID)
		switch {
		case err == nil:
			if device.Revoked {
				log.Warn().Int64("user_id", userID).Str("device_id", deviceID).Msg("login attempt from revoked device")
				return models.Device{}, ErrDeviceRevoked
			}
			return device, nil
		case errors.Is(err, store.ErrDeviceNotFound):
			// fall through to create a new registration
		default:
			return models.Device{}, fmt.Errorf("device lookup failed: %w", err)
		}
	}

	if deviceName == "" {
		deviceName = "unnamed device"
	}

	device, err := a.devices.CreateDevice(ctx, models.Device{
		DeviceID:   a.uuid.Generate(),
		UserID:     userID,
		DeviceName: deviceName,
		Platform:   platform,
	})
	if err != nil {
		log.Err(err).Int64("user_id", userID).Msg("device registration failed")
		return models.Device{}, fmt.Errorf("device registration failed: %w", err)
	}

	return device, nil
}

// openSession records the session row and issues the signed token.
func (a *authService) openSession(ctx context.Context, userID int64, deviceID, ipAddress string) (models.Token, error) {
	log := logger.FromContext(ctx)

	if _, err := a.devices.CreateSession(ctx, models.Session{
		UserID:    userID,
		DeviceID:  deviceID,
		IPAddress: ipAddress,
	}); err != nil {
		log.Err(err).Int64("user_id", userID).Str("device_id", deviceID).Msg("session creation failed")
		return models.Token{}, fmt.Errorf("session creation failed: %w", err)
	}

	token, err := utils.GenerateJWTToken(a.tokenIssuer, userID, deviceID, a.tokenDuration, a.tokenSignKey)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrTokenCreationFailed, err)
	}

	return token, nil
}
