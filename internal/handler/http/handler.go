// Package http implements the REST transport of the sync server.
//
// It wires the routes, request handlers, and middleware of the API.
// Cross-cutting concerns, authentication with device revocation checks,
// request tracing, access logging, and response compression, run here before
// a request reaches the service layer.
package http

import (
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/MKhiriev/go-mail-sync/internal/validators"
)

type Handler struct {
	services  *service.Services
	validator validators.Validator

	logger *logger.Logger
}

func NewHandler(services *service.Services, logger *logger.Logger) *Handler {
	logger.Info().Msg("http handler created")
	return &Handler{
		services:  services,
		validator: validators.NewSyncRequestValidator(),
		logger:    logger,
	}
}
