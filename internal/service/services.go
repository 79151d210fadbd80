package service

import (
	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
)

// Services bundles the server-side services consumed by the HTTP handlers.
type Services struct {
	AuthService      AuthService
	TwoFactorService TwoFactorService
	RecordService    RecordService
	DeviceService    DeviceService
}

func NewServices(storages store.Storages, cfg config.App, logger *logger.Logger) *Services {
	return &Services{
		AuthService:      NewAuthService(storages.UserRepository, storages.DeviceRepository, cfg, logger),
		TwoFactorService: NewTwoFactorService(storages.UserRepository, storages.DeviceRepository, cfg, logger),
		RecordService:    NewRecordService(storages.RecordRepository, cfg, logger),
		DeviceService:    NewDeviceService(storages.DeviceRepository, logger),
	}
}
