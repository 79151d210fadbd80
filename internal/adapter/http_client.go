package adapter

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/utils"
	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
)

type httpServerAdapter struct {
	client  *resty.Client
	hashKey string

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPServerAdapter constructs an HTTP/REST implementation of
// [ServerAdapter]. It normalises and validates the base URL from
// adapterCfg.HTTPAddress, configures the underlying resty client with the
// resolved base URL and request timeout, and initialises the shared HMAC
// hasher pool used for transport integrity hashes.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as
// a valid URL.
func NewHTTPServerAdapter(adapterCfg config.EngineAdapter, appCfg config.EngineApp, logger *logger.Logger) (ServerAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(adapterCfg.RequestTimeout)

	utils.InitHasherPool(appCfg.HashKey)

	return &httpServerAdapter{client: client, hashKey: appCfg.HashKey, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [ServerAdapter]. It stores token (whitespace-trimmed)
// for use in the Authorization header of all subsequent authenticated
// requests.
func (h *httpServerAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [ServerAdapter]. It returns the bearer token currently
// held by the adapter, or an empty string if none has been set.
func (h *httpServerAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Register implements [ServerAdapter]. It POSTs the credentials to
// POST /api/auth/register. On success the bearer token is extracted from the
// Authorization response header, stored via SetToken, and returned with the
// user and device identifiers parsed from its claims.
func (h *httpServerAdapter) Register(ctx context.Context, req models.RegisterRequest) (models.Token, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/auth/register")
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: register request: %v", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Token{}, err
	}

	return h.acceptToken(resp)
}

// Login implements [ServerAdapter]. It POSTs the credentials (and the TOTP or
// backup code, when present) to POST /api/auth/login. Returns
// [ErrTwoFactorRequired] when the account demands a second factor that req
// does not carry. On success the bearer token is stored via SetToken.
func (h *httpServerAdapter) Login(ctx context.Context, req models.LoginRequest) (models.Token, error) {
	resp, err := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/auth/login")
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: login request: %v", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Token{}, err
	}

	return h.acceptToken(resp)
}

// Push implements [ServerAdapter]. It computes the transport integrity hash
// over the envelope and POSTs the request to POST /api/sync/push. Returns a
// [*VersionConflictError] on HTTP 409 carrying the server's current record.
// Requires a valid bearer token.
func (h *httpServerAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	req.Hash = computeTransportHash(req.Envelope)

	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("/api/sync/push")
	if err != nil {
		return models.PushResponse{}, fmt.Errorf("%w: push request: %v", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PushResponse{}, err
	}

	var out models.PushResponse
	if err = json.Unmarshal(resp.Body(), &out); err != nil {
		return models.PushResponse{}, fmt.Errorf("decode push response: %w", err)
	}

	return out, nil
}

// Pull implements [ServerAdapter]. It GETs /api/sync/pull/{dataType} and
// decodes the server's current record for that type. Returns [ErrNotFound]
// (wrapped) when the type was never pushed. Requires a valid bearer token.
func (h *httpServerAdapter) Pull(ctx context.Context, dataType models.DataType) (models.RemoteRecord, error) {
	resp, err := h.authedRequest(ctx).Get("/api/sync/pull/" + string(dataType))
	if err != nil {
		return models.RemoteRecord{}, fmt.Errorf("%w: pull request: %v", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.RemoteRecord{}, err
	}

	var record models.RemoteRecord
	if err = json.Unmarshal(resp.Body(), &record); err != nil {
		return models.RemoteRecord{}, fmt.Errorf("decode pull response: %w", err)
	}

	return record, nil
}

// ListDevices implements [ServerAdapter].
func (h *httpServerAdapter) ListDevices(ctx context.Context) ([]models.Device, error) {
	resp, err := h.authedRequest(ctx).Get("/api/devices/")
	if err != nil {
		return nil, fmt.Errorf("%w: list devices request: %v", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var devices []models.Device
	if err = json.Unmarshal(resp.Body(), &devices); err != nil {
		return nil, fmt.Errorf("decode devices response: %w", err)
	}

	return devices, nil
}

// RenameDevice implements [ServerAdapter].
func (h *httpServerAdapter) RenameDevice(ctx context.Context, deviceID, name string) error {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"device_name": name}).
		Put("/api/devices/" + url.PathEscape(deviceID))
	if err != nil {
		return fmt.Errorf("%w: rename device request: %v", ErrTransport, err)
	}

	return mapHTTPError(resp)
}

// RevokeDevice implements [ServerAdapter].
func (h *httpServerAdapter) RevokeDevice(ctx context.Context, deviceID string) error {
	resp, err := h.authedRequest(ctx).Delete("/api/devices/" + url.PathEscape(deviceID))
	if err != nil {
		return fmt.Errorf("%w: revoke device request: %v", ErrTransport, err)
	}

	return mapHTTPError(resp)
}

// ListSessions implements [ServerAdapter].
func (h *httpServerAdapter) ListSessions(ctx context.Context) ([]models.Session, error) {
	resp, err := h.authedRequest(ctx).Get("/api/sessions/")
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions request: %v", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return nil, err
	}

	var sessions []models.Session
	if err = json.Unmarshal(resp.Body(), &sessions); err != nil {
		return nil, fmt.Errorf("decode sessions response: %w", err)
	}

	return sessions, nil
}

// RevokeSession implements [ServerAdapter].
func (h *httpServerAdapter) RevokeSession(ctx context.Context, sessionID int64) error {
	resp, err := h.authedRequest(ctx).Delete("/api/sessions/" + strconv.FormatInt(sessionID, 10))
	if err != nil {
		return fmt.Errorf("%w: revoke session request: %v", ErrTransport, err)
	}

	return mapHTTPError(resp)
}

// RevokeAllSessions implements [ServerAdapter].
func (h *httpServerAdapter) RevokeAllSessions(ctx context.Context) (int64, error) {
	resp, err := h.authedRequest(ctx).Delete("/api/sessions/")
	if err != nil {
		return 0, fmt.Errorf("%w: revoke all sessions request: %v", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return 0, err
	}

	var result struct {
		RevokedCount int64 `json:"revoked_count"`
	}
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return 0, fmt.Errorf("decode revoke all sessions response: %w", err)
	}

	return result.RevokedCount, nil
}

// TwoFactorStatus implements [ServerAdapter].
func (h *httpServerAdapter) TwoFactorStatus(ctx context.Context) (models.TwoFactorStatus, error) {
	resp, err := h.authedRequest(ctx).Get("/api/2fa/status")
	if err != nil {
		return models.TwoFactorStatus{}, fmt.Errorf("%w: two-factor status request: %v", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.TwoFactorStatus{}, err
	}

	var status models.TwoFactorStatus
	if err = json.Unmarshal(resp.Body(), &status); err != nil {
		return models.TwoFactorStatus{}, fmt.Errorf("decode two-factor status response: %w", err)
	}

	return status, nil
}

// TwoFactorSetup implements [ServerAdapter].
func (h *httpServerAdapter) TwoFactorSetup(ctx context.Context) (models.TwoFactorSetup, error) {
	resp, err := h.authedRequest(ctx).Post("/api/2fa/setup")
	if err != nil {
		return models.TwoFactorSetup{}, fmt.Errorf("%w: two-factor setup request: %v", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.TwoFactorSetup{}, err
	}

	var setup models.TwoFactorSetup
	if err = json.Unmarshal(resp.Body(), &setup); err != nil {
		return models.TwoFactorSetup{}, fmt.Errorf("decode two-factor setup response: %w", err)
	}

	return setup, nil
}

// TwoFactorEnable implements [ServerAdapter].
func (h *httpServerAdapter) TwoFactorEnable(ctx context.Context, code string) (models.TwoFactorEnableResult, error) {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"totp_code": code}).
		Post("/api/2fa/enable")
	if err != nil {
		return models.TwoFactorEnableResult{}, fmt.Errorf("%w: two-factor enable request: %v", ErrTransport, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.TwoFactorEnableResult{}, err
	}

	var result models.TwoFactorEnableResult
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.TwoFactorEnableResult{}, fmt.Errorf("decode two-factor enable response: %w", err)
	}

	return result, nil
}

// TwoFactorDisable implements [ServerAdapter].
func (h *httpServerAdapter) TwoFactorDisable(ctx context.Context, password, code string) error {
	resp, err := h.authedRequest(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"password": password, "totp_code": code}).
		Post("/api/2fa/disable")
	if err != nil {
		return fmt.Errorf("%w: two-factor disable request: %v", ErrTransport, err)
	}

	return mapHTTPError(resp)
}

func (h *httpServerAdapter) authedRequest(ctx context.Context) *resty.Request {
	req := h.client.R().SetContext(ctx)
	if token := h.Token(); token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}
	return req
}

// acceptToken extracts the bearer token from the Authorization response
// header, stores it on the adapter, and returns it with the user and device
// identifiers parsed from its claims.
func (h *httpServerAdapter) acceptToken(resp *resty.Response) (models.Token, error) {
	token, err := utils.ParseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return models.Token{}, fmt.Errorf("parse bearer token: %w", err)
	}

	userID, deviceID, err := parseTokenIdentity(token)
	if err != nil {
		return models.Token{}, fmt.Errorf("parse token claims: %w", err)
	}

	h.SetToken(token)
	return models.Token{SignedString: token, UserID: userID, DeviceID: deviceID}, nil
}

// parseTokenIdentity reads the "sub" and "dev" claims without verifying the
// signature. The client never holds the signing key; verification happens on
// the server for every authenticated request.
func parseTokenIdentity(tokenString string) (int64, string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", errors.New("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, "", err
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, "", err
	}

	deviceID, _ := claims["dev"].(string)
	if deviceID == "" {
		return 0, "", errors.New("token missing device claim")
	}

	return userID, deviceID, nil
}

func computeTransportHash(envelope string) string {
	return hex.EncodeToString(utils.Hash([]byte(envelope)))
}
