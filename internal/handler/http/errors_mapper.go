package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/MKhiriev/go-mail-sync/internal/store"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:       http.StatusBadRequest,
	service.ErrIntegrityCheckFailed:      http.StatusBadRequest,
	service.ErrTwoFactorNotPending:       http.StatusBadRequest,
	service.ErrCannotRevokeCurrentDevice: http.StatusBadRequest,
	service.ErrInvalidCredentials:        http.StatusUnauthorized,
	service.ErrInvalidCode:               http.StatusUnauthorized,
	service.ErrTwoFactorRequired:         http.StatusUnauthorized,
	service.ErrDeviceRevoked:             http.StatusUnauthorized,
	service.ErrTokenIsExpiredOrInvalid:   http.StatusUnauthorized,

	store.ErrEmailAlreadyExists:    http.StatusConflict,
	store.ErrRecordVersionConflict: http.StatusConflict,
	store.ErrUserNotFound:          http.StatusNotFound,
	store.ErrDeviceNotFound:        http.StatusNotFound,
	store.ErrSessionNotFound:       http.StatusNotFound,
	store.ErrRecordNotFound:        http.StatusNotFound,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
