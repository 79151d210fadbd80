package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── devices ──────────────────────────────────────────────────────────────────

func TestListDevices(t *testing.T) {
	router, stubs := newTestRouter(t)
	stubs.devices.devices = []models.Device{
		{DeviceID: "device-1", DeviceName: "laptop"},
		{DeviceID: "device-2", DeviceName: "phone", Revoked: true},
	}

	rec := do(router, http.MethodGet, "/api/devices/", "", true)

	require.Equal(t, http.StatusOK, rec.Code)

	var devices []models.Device
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &devices))
	assert.Len(t, devices, 2)
}

func TestRenameDevice(t *testing.T) {
	router, stubs := newTestRouter(t)

	rec := do(router, http.MethodPut, "/api/devices/device-2", `{"device_name":"work laptop"}`, true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "work laptop", stubs.devices.renamed["device-2"])
}

func TestRenameDevice_EmptyName(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodPut, "/api/devices/device-2", `{"device_name":""}`, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevokeDevice(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodDelete, "/api/devices/device-2", "", true)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRevokeDevice_Current(t *testing.T) {
	router, _ := newTestRouter(t)

	// the authenticated device is device-1 (from the stub token)
	rec := do(router, http.MethodDelete, "/api/devices/device-1", "", true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "current device")
}

// ── sessions ─────────────────────────────────────────────────────────────────

func TestListSessions(t *testing.T) {
	router, stubs := newTestRouter(t)
	stubs.devices.sessions = []models.Session{
		{ID: 1, DeviceID: "device-1"},
		{ID: 2, DeviceID: "device-2"},
	}

	rec := do(router, http.MethodGet, "/api/sessions/", "", true)

	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 2)
	assert.True(t, sessions[0].IsCurrent)
	assert.False(t, sessions[1].IsCurrent)
}

func TestRevokeSession(t *testing.T) {
	router, stubs := newTestRouter(t)

	rec := do(router, http.MethodDelete, "/api/sessions/7", "", true)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []int64{7}, stubs.devices.revokedSessions)
}

func TestRevokeSession_BadID(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, http.MethodDelete, "/api/sessions/not-a-number", "", true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRevokeAllSessions(t *testing.T) {
	router, stubs := newTestRouter(t)
	stubs.devices.revokeAllCount = 3

	rec := do(router, http.MethodDelete, "/api/sessions/", "", true)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp["revoked_count"])
}
