package http

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithLogging_RecordsRequestOutcome(t *testing.T) {
	var buf bytes.Buffer
	log := &logger.Logger{Logger: zerolog.New(&buf)}

	handler := NewHandler(&service.Services{
		AuthService:      &stubAuthSvc{},
		TwoFactorService: &stubTwoFactorSvc{},
		RecordService:    &stubRecordSvc{},
		DeviceService:    &stubDeviceSvc{},
	}, log)
	router := handler.Init()

	rec := do(router, http.MethodPost, "/api/auth/register", `{"email":"user@example.com","password":"pw"}`, false)
	require.Equal(t, http.StatusOK, rec.Code)

	out := buf.String()
	assert.Contains(t, out, `"uri":"/api/auth/register"`)
	assert.Contains(t, out, `"method":"POST"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"trace_id"`)
}
