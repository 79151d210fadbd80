package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

// clientAuthService is the concrete implementation of ClientAuthService.
// It remembers only the identity baked into the issued token; the master
// secret is never stored here.
type clientAuthService struct {
	server adapter.ServerAdapter
	logger *logger.Logger

	mu       sync.RWMutex
	userID   int64
	deviceID string
}

func NewClientAuthService(server adapter.ServerAdapter, logger *logger.Logger) ClientAuthService {
	return &clientAuthService{server: server, logger: logger}
}

// Register implements [ClientAuthService].
func (c *clientAuthService) Register(ctx context.Context, req models.RegisterRequest) error {
	log := logger.FromContext(ctx)

	token, err := c.server.Register(ctx, req)
	if err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	c.remember(token)
	log.Info().
		Int64("user_id", token.UserID).
		Str("device_id", token.DeviceID).
		Msg("registered and authenticated")

	return nil
}

// Login implements [ClientAuthService]. The adapter's ErrTwoFactorRequired
// passes through untouched so the caller can prompt for a code and retry.
func (c *clientAuthService) Login(ctx context.Context, req models.LoginRequest) error {
	log := logger.FromContext(ctx)

	token, err := c.server.Login(ctx, req)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.remember(token)
	log.Info().
		Int64("user_id", token.UserID).
		Str("device_id", token.DeviceID).
		Msg("authenticated")

	return nil
}

// Logout implements [ClientAuthService].
func (c *clientAuthService) Logout() {
	c.server.SetToken("")

	c.mu.Lock()
	c.userID = 0
	c.deviceID = ""
	c.mu.Unlock()
}

// Session implements [ClientAuthService].
func (c *clientAuthService) Session() (int64, string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID, c.deviceID, c.userID != 0 && c.deviceID != ""
}

func (c *clientAuthService) remember(token models.Token) {
	c.mu.Lock()
	c.userID = token.UserID
	c.deviceID = token.DeviceID
	c.mu.Unlock()
}
