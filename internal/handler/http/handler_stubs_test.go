package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/service"
	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/go-chi/chi/v5"
)

// ── service stubs ────────────────────────────────────────────────────────────

type stubAuthSvc struct {
	registerFn func(ctx context.Context, req models.RegisterRequest, ip string) (models.Token, error)
	loginFn    func(ctx context.Context, req models.LoginRequest, ip string) (models.Token, error)
	parseFn    func(ctx context.Context, tokenString string) (models.Token, error)
}

func (s *stubAuthSvc) Register(ctx context.Context, req models.RegisterRequest, ip string) (models.Token, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, req, ip)
	}
	return models.Token{SignedString: "signed", UserID: 1, DeviceID: "device-1"}, nil
}

func (s *stubAuthSvc) Login(ctx context.Context, req models.LoginRequest, ip string) (models.Token, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, req, ip)
	}
	return models.Token{SignedString: "signed", UserID: 1, DeviceID: "device-1"}, nil
}

func (s *stubAuthSvc) ParseToken(ctx context.Context, tokenString string) (models.Token, error) {
	if s.parseFn != nil {
		return s.parseFn(ctx, tokenString)
	}
	return models.Token{UserID: 1, DeviceID: "device-1"}, nil
}

type stubTwoFactorSvc struct {
	status    models.TwoFactorStatus
	setupFn   func(ctx context.Context, userID int64) (models.TwoFactorSetup, error)
	enableFn  func(ctx context.Context, userID int64, code string) (models.TwoFactorEnableResult, error)
	disableFn func(ctx context.Context, userID int64, password, code string) error
}

func (s *stubTwoFactorSvc) Status(context.Context, int64) (models.TwoFactorStatus, error) {
	return s.status, nil
}

func (s *stubTwoFactorSvc) Setup(ctx context.Context, userID int64) (models.TwoFactorSetup, error) {
	if s.setupFn != nil {
		return s.setupFn(ctx, userID)
	}
	return models.TwoFactorSetup{}, nil
}

func (s *stubTwoFactorSvc) Enable(ctx context.Context, userID int64, code string) (models.TwoFactorEnableResult, error) {
	if s.enableFn != nil {
		return s.enableFn(ctx, userID, code)
	}
	return models.TwoFactorEnableResult{}, nil
}

func (s *stubTwoFactorSvc) Disable(ctx context.Context, userID int64, password, code string) error {
	if s.disableFn != nil {
		return s.disableFn(ctx, userID, password, code)
	}
	return nil
}

type stubRecordSvc struct {
	pushFn func(ctx context.Context, userID int64, req models.PushRequest) (models.RemoteRecord, error)
	pullFn func(ctx context.Context, userID int64, dataType models.DataType) (models.RemoteRecord, error)
}

func (s *stubRecordSvc) Push(ctx context.Context, userID int64, req models.PushRequest) (models.RemoteRecord, error) {
	if s.pushFn != nil {
		return s.pushFn(ctx, userID, req)
	}
	return models.RemoteRecord{DataType: req.DataType, Version: req.BaseVersion + 1, Envelope: req.Envelope}, nil
}

func (s *stubRecordSvc) Pull(ctx context.Context, userID int64, dataType models.DataType) (models.RemoteRecord, error) {
	if s.pullFn != nil {
		return s.pullFn(ctx, userID, dataType)
	}
	return models.RemoteRecord{DataType: dataType, Version: 1}, nil
}

type stubDeviceSvc struct {
	checkErr error
	devices  []models.Device
	sessions []models.Session

	revokeDeviceFn  func(ctx context.Context, userID int64, currentDeviceID, targetDeviceID string) error
	renamed         map[string]string
	revokedSessions []int64
	revokeAllCount  int64
	checkedDevices  []string
}

func (s *stubDeviceSvc) ListDevices(context.Context, int64) ([]models.Device, error) {
	return s.devices, nil
}

func (s *stubDeviceSvc) RenameDevice(_ context.Context, _ int64, deviceID, name string) error {
	if name == "" {
		return service.ErrInvalidDataProvided
	}
	if s.renamed == nil {
		s.renamed = make(map[string]string)
	}
	s.renamed[deviceID] = name
	return nil
}

func (s *stubDeviceSvc) RevokeDevice(ctx context.Context, userID int64, currentDeviceID, targetDeviceID string) error {
	if s.revokeDeviceFn != nil {
		return s.revokeDeviceFn(ctx, userID, currentDeviceID, targetDeviceID)
	}
	if targetDeviceID == currentDeviceID {
		return service.ErrCannotRevokeCurrentDevice
	}
	return nil
}

func (s *stubDeviceSvc) CheckDevice(_ context.Context, _ int64, deviceID string) error {
	if s.checkErr != nil {
		return s.checkErr
	}
	s.checkedDevices = append(s.checkedDevices, deviceID)
	return nil
}

func (s *stubDeviceSvc) ListSessions(_ context.Context, _ int64, currentDeviceID string) ([]models.Session, error) {
	sessions := make([]models.Session, len(s.sessions))
	copy(sessions, s.sessions)
	for i := range sessions {
		sessions[i].IsCurrent = sessions[i].DeviceID == currentDeviceID
	}
	return sessions, nil
}

func (s *stubDeviceSvc) RevokeSession(_ context.Context, _ int64, sessionID int64) error {
	s.revokedSessions = append(s.revokedSessions, sessionID)
	return nil
}

func (s *stubDeviceSvc) RevokeAllExceptCurrent(context.Context, int64, string) (int64, error) {
	return s.revokeAllCount, nil
}

// ── harness ──────────────────────────────────────────────────────────────────

type handlerStubs struct {
	auth      *stubAuthSvc
	twoFactor *stubTwoFactorSvc
	records   *stubRecordSvc
	devices   *stubDeviceSvc
}

func newTestRouter(t *testing.T) (*chi.Mux, *handlerStubs) {
	t.Helper()

	stubs := &handlerStubs{
		auth:      &stubAuthSvc{},
		twoFactor: &stubTwoFactorSvc{},
		records:   &stubRecordSvc{},
		devices:   &stubDeviceSvc{},
	}

	handler := NewHandler(&service.Services{
		AuthService:      stubs.auth,
		TwoFactorService: stubs.twoFactor,
		RecordService:    stubs.records,
		DeviceService:    stubs.devices,
	}, logger.Nop())

	return handler.Init(), stubs
}

// do runs an in-process request against the router; authed requests carry a
// bearer token accepted by the default stubAuthSvc.
func do(router http.Handler, method, target, body string, authed bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if authed {
		req.Header.Set("Authorization", "Bearer test-token")
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
