package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MKhiriev/go-mail-sync/internal/app"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
)

func (h *Handler) twoFactorStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, _, ok := identity(r)
	if !ok {
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	status, err := h.services.TwoFactorService.Status(r.Context(), userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.twoFactorStatus").Msg("error reading two-factor status")
		http.Error(w, "error reading two-factor status", statusFromError(err))
		return
	}

	utils.WriteJSON(w, status, http.StatusOK)
}

func (h *Handler) twoFactorSetup(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, _, ok := identity(r)
	if !ok {
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	setup, err := h.services.TwoFactorService.Setup(r.Context(), userID)
	if err != nil {
		log.Err(err).Str("func", "*Handler.twoFactorSetup").Msg("error starting two-factor setup")
		http.Error(w, "error starting two-factor setup", statusFromError(err))
		return
	}

	utils.WriteJSON(w, setup, http.StatusOK)
}

func (h *Handler) twoFactorEnable(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, _, ok := identity(r)
	if !ok {
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	var req struct {
		TOTPCode string `json:"totp_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.twoFactorEnable").Msg(app.MsgInvalidJSON)
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	result, err := h.services.TwoFactorService.Enable(r.Context(), userID, req.TOTPCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTwoFactorNotPending):
			http.Error(w, service.ErrTwoFactorNotPending.Error(), http.StatusBadRequest)
			return
		case errors.Is(err, service.ErrInvalidCode):
			log.Warn().Int64("user_id", userID).Msg("rejected code on two-factor enable")
			http.Error(w, app.MsgInvalidOneTimeCode, http.StatusUnauthorized)
			return
		default:
			log.Err(err).Str("func", "*Handler.twoFactorEnable").Msg("error enabling two-factor")
			http.Error(w, "error enabling two-factor", statusFromError(err))
			return
		}
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) twoFactorDisable(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	userID, _, ok := identity(r)
	if !ok {
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	var req struct {
		Password string `json:"password"`
		TOTPCode string `json:"totp_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.twoFactorDisable").Msg(app.MsgInvalidJSON)
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	if err := h.services.TwoFactorService.Disable(r.Context(), userID, req.Password, req.TOTPCode); err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			log.Warn().Int64("user_id", userID).Msg("rejected credentials on two-factor disable")
			http.Error(w, service.ErrInvalidCredentials.Error(), http.StatusUnauthorized)
			return
		}
		log.Err(err).Str("func", "*Handler.twoFactorDisable").Msg("error disabling two-factor")
		http.Error(w, "error disabling two-factor", statusFromError(err))
		return
	}

	w.WriteHeader(http.StatusOK)
}
