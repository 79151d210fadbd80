package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MKhiriev/go-mail-sync/internal/app"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
	"github.com/go-chi/chi/v5"
)

// identity pulls the authenticated user and device from the request context.
// The auth middleware guarantees both are present on protected routes.
func identity(r *http.Request) (int64, string, bool) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		return 0, "", false
	}
	deviceID, ok := utils.GetDeviceIDFromContext(r.Context())
	if !ok {
		return 0, "", false
	}
	return userID, deviceID, true
}

func (h *Handler) listDevices(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, _, ok := identity(r)
	if !ok {
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	devices, err := h.services.DeviceService.ListDevices(r.Context(), userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listDevices").Msg("error listing devices")
		http.Error(w, "error listing devices", statusFromError(err))
		return
	}

	utils.WriteJSON(w, devices, http.StatusOK)
}

func (h *Handler) renameDevice(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, _, ok := identity(r)
	if !ok {
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	var req struct {
		DeviceName string `json:"device_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.renameDevice").Msg(app.MsgInvalidJSON)
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	targetID := chi.URLParam(r, "deviceID")
	if err := h.services.DeviceService.RenameDevice(r.Context(), userID, targetID, req.DeviceName); err != nil {
		log.Err(err).Str("func", "*Handler.renameDevice").Msg("error renaming device")
		http.Error(w, "error renaming device", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) revokeDevice(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, deviceID, ok := identity(r)
	if !ok {
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	targetID := chi.URLParam(r, "deviceID")
	if err := h.services.DeviceService.RevokeDevice(r.Context(), userID, deviceID, targetID); err != nil {
		if errors.Is(err, service.ErrCannotRevokeCurrentDevice) {
			http.Error(w, service.ErrCannotRevokeCurrentDevice.Error(), http.StatusBadRequest)
			return
		}
		log.Err(err).Str("func", "*Handler.revokeDevice").Msg("error revoking device")
		http.Error(w, "error revoking device", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, deviceID, ok := identity(r)
	if !ok {
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	sessions, err := h.services.DeviceService.ListSessions(r.Context(), userID, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.listSessions").Msg("error listing sessions")
		http.Error(w, "error listing sessions", statusFromError(err))
		return
	}

	utils.WriteJSON(w, sessions, http.StatusOK)
}

func (h *Handler) revokeSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, _, ok := identity(r)
	if !ok {
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	if err = h.services.DeviceService.RevokeSession(r.Context(), userID, sessionID); err != nil {
		log.Err(err).Str("func", "*Handler.revokeSession").Msg("error revoking session")
		http.Error(w, "error revoking session", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) revokeAllSessions(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, deviceID, ok := identity(r)
	if !ok {
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	count, err := h.services.DeviceService.RevokeAllExceptCurrent(r.Context(), userID, deviceID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.revokeAllSessions").Msg("error revoking sessions")
		http.Error(w, "error revoking sessions", statusFromError(err))
		return
	}

	utils.WriteJSON(w, map[string]int64{"revoked_count": count}, http.StatusOK)
}
