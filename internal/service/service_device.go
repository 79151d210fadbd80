package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
)

// deviceService is the concrete implementation of DeviceService.
type deviceService struct {
	devices store.DeviceRepository
	logger  *logger.Logger
}

func NewDeviceService(devices store.DeviceRepository, logger *logger.Logger) DeviceService {
	return &deviceService{devices: devices, logger: logger}
}

// ListDevices implements [DeviceService]. Revoked devices stay in the list so
// the user can see the full registry.
func (d *deviceService) ListDevices(ctx context.Context, userID int64) ([]models.Device, error) {
	devices, err := d.devices.ListDevices(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("device list failed: %w", err)
	}
	return devices, nil
}

// RenameDevice implements [DeviceService].
func (d *deviceService) RenameDevice(ctx context.Context, userID int64, deviceID, name string) error {
	if name == "" {
		return ErrInvalidDataProvided
	}

	if err := d.devices.RenameDevice(ctx, userID, deviceID, name); err != nil {
		return fmt.Errorf("device rename failed: %w", err)
	}
	return nil
}

// RevokeDevice implements [DeviceService]. The repository cascades to the
// device's sessions inside one transaction.
func (d *deviceService) RevokeDevice(ctx context.Context, userID int64, currentDeviceID, targetDeviceID string) error {
	log := logger.FromContext(ctx)

	if targetDeviceID == currentDeviceID {
		log.Warn().
			Int64("user_id", userID).
			Str("device_id", targetDeviceID).
			Msg("refused to revoke the requesting device")
		return ErrCannotRevokeCurrentDevice
	}

	if err := d.devices.RevokeDevice(ctx, userID, targetDeviceID); err != nil {
		return fmt.Errorf("device revocation failed: %w", err)
	}

	log.Info().
		Int64("user_id", userID).
		Str("device_id", targetDeviceID).
		Msg("device revoked")
	return nil
}

// CheckDevice implements [DeviceService].
func (d *deviceService) CheckDevice(ctx context.Context, userID int64, deviceID string) error {
	device, err := d.devices.GetDevice(ctx, userID, deviceID)
	if err != nil {
		if errors.Is(err, store.ErrDeviceNotFound) {
			return ErrDeviceRevoked
		}
		return fmt.Errorf("device lookup failed: %w", err)
	}
	if device.Revoked {
		return ErrDeviceRevoked
	}

	// last-seen refresh is best-effort; an error here must not fail the request
	if err = d.devices.TouchDevice(ctx, userID, deviceID); err != nil {
		logger.FromContext(ctx).Warn().
			Int64("user_id", userID).
			Str("device_id", deviceID).
			Err(err).
			Msg("failed to refresh device last-seen timestamp")
	}

	return nil
}

// ListSessions implements [DeviceService].
func (d *deviceService) ListSessions(ctx context.Context, userID int64, currentDeviceID string) ([]models.Session, error) {
	sessions, err := d.devices.ListSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("session list failed: %w", err)
	}

	for i := range sessions {
		sessions[i].IsCurrent = sessions[i].DeviceID == currentDeviceID
	}

	return sessions, nil
}

// RevokeSession implements [DeviceService].
func (d *deviceService) RevokeSession(ctx context.Context, userID int64, sessionID int64) error {
	if err := d.devices.RevokeSession(ctx, userID, sessionID); err != nil {
		return fmt.Errorf("session revocation failed: %w", err)
	}
	return nil
}

// RevokeAllExceptCurrent implements [DeviceService].
func (d *deviceService) RevokeAllExceptCurrent(ctx context.Context, userID int64, currentDeviceID string) (int64, error) {
	count, err := d.devices.RevokeAllSessionsExcept(ctx, userID, currentDeviceID)
	if err != nil {
		return 0, fmt.Errorf("session revocation failed: %w", err)
	}
	return count, nil
}
