package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)
	router.Use(withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/login", h.login)
	})

	// routes behind a bearer token bound to a live, non-revoked device
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Post("/api/sync/push", h.push)
		r.Get("/api/sync/pull/{dataType}", h.pull)

		r.Get("/api/devices/", h.listDevices)
		r.Put("/api/devices/{deviceID}", h.renameDevice)
		r.Delete("/api/devices/{deviceID}", h.revokeDevice)

		r.Get("/api/sessions/", h.listSessions)
		r.Delete("/api/sessions/", h.revokeAllSessions)
		r.Delete("/api/sessions/{sessionID}", h.revokeSession)

		r.Get("/api/2fa/status", h.twoFactorStatus)
		r.Post("/api/2fa/setup", h.twoFactorSetup)
		r.Post("/api/2fa/enable", h.twoFactorEnable)
		r.Post("/api/2fa/disable", h.twoFactorDisable)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
