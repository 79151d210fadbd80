package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MKhiriev/go-mail-sync/internal/app"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) push(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.push").Msg(app.MsgNoUserIDProvided)
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	var req models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Err(err).Str("func", "*Handler.push").Msg(app.MsgInvalidJSON)
		http.Error(w, app.MsgInvalidJSON, http.StatusBadRequest)
		return
	}

	if err := h.validator.Validate(ctx, req); err != nil {
		log.Err(err).Str("func", "*Handler.push").Msg("push request failed validation")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.services.RecordService.Push(ctx, userID, req)
	if err != nil {
		if errors.Is(err, store.ErrRecordVersionConflict) {
			// the 409 body carries the server's current record so the engine
			// can fast-forward or build a conflict without a second round trip
			utils.WriteJSON(w, record, http.StatusConflict)
			return
		}
		log.Err(err).Str("func", "*Handler.push").Msg("error applying push")
		http.Error(w, "error applying push", statusFromError(err))
		return
	}

	utils.WriteJSON(w, models.PushResponse{Version: record.Version, UpdatedAt: record.UpdatedAt}, http.StatusOK)
}

func (h *Handler) pull(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromRequest(r)

	userID, found := utils.GetUserIDFromContext(ctx)
	if !found {
		log.Error().Str("func", "*Handler.pull").Msg(app.MsgNoUserIDProvided)
		http.Error(w, app.MsgNoUserIDProvided, http.StatusBadRequest)
		return
	}

	dataType := models.DataType(chi.URLParam(r, "dataType"))

	record, err := h.services.RecordService.Pull(ctx, userID, dataType)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			http.Error(w, app.MsgNoRecordForDataType, http.StatusNotFound)
			return
		}
		log.Err(err).Str("func", "*Handler.pull").Msg("error reading record")
		http.Error(w, "error reading record", statusFromError(err))
		return
	}

	utils.WriteJSON(w, record, http.StatusOK)
}
