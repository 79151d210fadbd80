package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUserIDFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDCtxKey, int64(42))

	userID, ok := GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(42), userID)
}

func TestGetUserIDFromContext_MissingOrWrongType(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"empty context", context.Background()},
		{"wrong type", context.WithValue(context.Background(), UserIDCtxKey, "42")},
		{"int instead of int64", context.WithValue(context.Background(), UserIDCtxKey, 42)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, ok := GetUserIDFromContext(tt.ctx)
			assert.False(t, ok)
			assert.Zero(t, userID)
		})
	}
}

func TestGetDeviceIDFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), DeviceIDCtxKey, "device-7")

	deviceID, ok := GetDeviceIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "device-7", deviceID)
}

func TestGetDeviceIDFromContext_Missing(t *testing.T) {
	deviceID, ok := GetDeviceIDFromContext(context.Background())
	assert.False(t, ok)
	assert.Empty(t, deviceID)
}

func TestContextKeys_DoNotCollide(t *testing.T) {
	// both identities live side by side in one request context
	ctx := context.WithValue(context.Background(), UserIDCtxKey, int64(1))
	ctx = context.WithValue(ctx, DeviceIDCtxKey, "device-1")

	userID, ok := GetUserIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, int64(1), userID)

	deviceID, ok := GetDeviceIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "device-1", deviceID)

	assert.Equal(t, "userID", UserIDCtxKey.String())
	assert.Equal(t, "deviceID", DeviceIDCtxKey.String())
}
