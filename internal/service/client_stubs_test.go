package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/crypto"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
)

// fakeEnvelopes is a cheap EnvelopeService for service tests: the "blob" is
// the JSON payload in base64 with the key prepended, so seal/open paths run
// without paying for Argon2id. A wrong key still fails with
// crypto.ErrDecryptionFailed, matching the real implementation's contract.
type fakeEnvelopes struct{}

func (fakeEnvelopes) GenerateSalt() ([]byte, error) {
	return []byte("0123456789abcdef"), nil
}

func (fakeEnvelopes) DeriveKey(masterSecret string, salt []byte) []byte {
	return append([]byte(masterSecret), salt...)
}

func (fakeEnvelopes) Encrypt(payload any, key []byte) (string, error) {
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key) + "." + base64.StdEncoding.EncodeToString(plaintext), nil
}

func (fakeEnvelopes) Decrypt(envelope string, key []byte, target any) error {
	prefix := base64.StdEncoding.EncodeToString(key) + "."
	if !strings.HasPrefix(envelope, prefix) {
		return fmt.Errorf("%w: wrong key", crypto.ErrDecryptionFailed)
	}
	plaintext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(envelope, prefix))
	if err != nil {
		return fmt.Errorf("%w: %v", crypto.ErrDecryptionFailed, err)
	}
	return json.Unmarshal(plaintext, target)
}

// mustSeal builds an envelope with fakeEnvelopes for test fixtures.
func mustSeal(masterSecret string, payload any) string {
	envelope, err := sealEnvelope(fakeEnvelopes{}, masterSecret, payload)
	if err != nil {
		panic(err)
	}
	return envelope
}

// ── server adapter stub ──────────────────────────────────────────────────────

type stubServerAdapter struct {
	token string

	registerFn  func(ctx context.Context, req models.RegisterRequest) (models.Token, error)
	loginFn     func(ctx context.Context, req models.LoginRequest) (models.Token, error)
	pushFn      func(ctx context.Context, req models.PushRequest) (models.PushResponse, error)
	pullFn      func(ctx context.Context, dataType models.DataType) (models.RemoteRecord, error)
	revokeAllFn func(ctx context.Context) (int64, error)

	pushes []models.PushRequest
}

func (s *stubServerAdapter) SetToken(token string) { s.token = token }
func (s *stubServerAdapter) Token() string         { return s.token }

func (s *stubServerAdapter) Register(ctx context.Context, req models.RegisterRequest) (models.Token, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, req)
	}
	return models.Token{}, nil
}

func (s *stubServerAdapter) Login(ctx context.Context, req models.LoginRequest) (models.Token, error) {
	if s.loginFn != nil {
		return s.loginFn(ctx, req)
	}
	return models.Token{}, nil
}

func (s *stubServerAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	s.pushes = append(s.pushes, req)
	if s.pushFn != nil {
		return s.pushFn(ctx, req)
	}
	return models.PushResponse{Version: req.BaseVersion + 1, UpdatedAt: time.Now().UTC()}, nil
}

func (s *stubServerAdapter) Pull(ctx context.Context, dataType models.DataType) (models.RemoteRecord, error) {
	if s.pullFn != nil {
		return s.pullFn(ctx, dataType)
	}
	return models.RemoteRecord{}, fmt.Errorf("pull %s: %w", dataType, adapter.ErrNotFound)
}

func (s *stubServerAdapter) ListDevices(context.Context) ([]models.Device, error) { return nil, nil }
func (s *stubServerAdapter) RenameDevice(context.Context, string, string) error   { return nil }
func (s *stubServerAdapter) RevokeDevice(context.Context, string) error           { return nil }
func (s *stubServerAdapter) ListSessions(context.Context) ([]models.Session, error) {
	return nil, nil
}
func (s *stubServerAdapter) RevokeSession(context.Context, int64) error { return nil }

func (s *stubServerAdapter) RevokeAllSessions(ctx context.Context) (int64, error) {
	if s.revokeAllFn != nil {
		return s.revokeAllFn(ctx)
	}
	return 0, nil
}

func (s *stubServerAdapter) TwoFactorStatus(context.Context) (models.TwoFactorStatus, error) {
	return models.TwoFactorStatus{}, nil
}
func (s *stubServerAdapter) TwoFactorSetup(context.Context) (models.TwoFactorSetup, error) {
	return models.TwoFactorSetup{}, nil
}
func (s *stubServerAdapter) TwoFactorEnable(context.Context, string) (models.TwoFactorEnableResult, error) {
	return models.TwoFactorEnableResult{}, nil
}
func (s *stubServerAdapter) TwoFactorDisable(context.Context, string, string) error { return nil }

// ── queue repository stub ────────────────────────────────────────────────────

type queueAttempt struct {
	id           string
	attemptCount int
	nextRetryAt  time.Time
	lastError    string
}

type stubQueueRepo struct {
	getPendingFn    func(ctx context.Context, userID int64, dataType models.DataType) (models.QueueItem, error)
	updatePayloadFn func(ctx context.Context, id string, payload string, baseVersion int64, itemsCount int) error
	getDueFn        func(ctx context.Context, userID int64, now time.Time) ([]models.QueueItem, error)
	markAttemptErr  error
	retryCount      int64
	clearCount      int64
	stats           models.QueueStats

	inserted  []models.QueueItem
	attempts  []queueAttempt
	completed []string
	failed    map[string]string
}

func (s *stubQueueRepo) GetPendingItem(ctx context.Context, userID int64, dataType models.DataType) (models.QueueItem, error) {
	if s.getPendingFn != nil {
		return s.getPendingFn(ctx, userID, dataType)
	}
	return models.QueueItem{}, store.ErrQueueItemNotFound
}

func (s *stubQueueRepo) InsertItem(_ context.Context, item models.QueueItem) error {
	s.inserted = append(s.inserted, item)
	return nil
}

func (s *stubQueueRepo) UpdateItemPayload(ctx context.Context, id string, payload string, baseVersion int64, itemsCount int) error {
	if s.updatePayloadFn != nil {
		return s.updatePayloadFn(ctx, id, payload, baseVersion, itemsCount)
	}
	return nil
}

func (s *stubQueueRepo) GetDueItems(ctx context.Context, userID int64, now time.Time) ([]models.QueueItem, error) {
	if s.getDueFn != nil {
		return s.getDueFn(ctx, userID, now)
	}
	return nil, nil
}

func (s *stubQueueRepo) MarkAttempt(_ context.Context, id string, attemptCount int, nextRetryAt time.Time, lastError string) error {
	if s.markAttemptErr != nil {
		return s.markAttemptErr
	}
	s.attempts = append(s.attempts, queueAttempt{id: id, attemptCount: attemptCount, nextRetryAt: nextRetryAt, lastError: lastError})
	return nil
}

func (s *stubQueueRepo) MarkCompleted(_ context.Context, id string) error {
	s.completed = append(s.completed, id)
	return nil
}

func (s *stubQueueRepo) MarkFailed(_ context.Context, id string, lastError string) error {
	if s.failed == nil {
		s.failed = make(map[string]string)
	}
	s.failed[id] = lastError
	return nil
}

func (s *stubQueueRepo) RetryFailed(context.Context, int64) (int64, error) {
	return s.retryCount, nil
}

func (s *stubQueueRepo) ClearFailed(context.Context, int64) (int64, error) {
	return s.clearCount, nil
}

func (s *stubQueueRepo) GetStats(context.Context, int64) (models.QueueStats, error) {
	return s.stats, nil
}

// ── snapshot service stub ────────────────────────────────────────────────────

type stubSnapshots struct {
	current   map[models.DataType]models.SyncSnapshot
	recordErr error

	recorded []models.SyncSnapshot
}

func (s *stubSnapshots) Record(_ context.Context, snapshot models.SyncSnapshot) (models.SyncSnapshot, error) {
	if s.recordErr != nil {
		return models.SyncSnapshot{}, s.recordErr
	}
	snapshot.ID = int64(len(s.recorded) + 1)
	snapshot.Version = int64(len(s.recorded) + 1)
	s.recorded = append(s.recorded, snapshot)
	return snapshot, nil
}

func (s *stubSnapshots) History(context.Context, int64, models.DataType, int) ([]models.SyncSnapshot, error) {
	return s.recorded, nil
}

func (s *stubSnapshots) Current(_ context.Context, _ int64, dataType models.DataType) (models.SyncSnapshot, error) {
	if snapshot, ok := s.current[dataType]; ok {
		return snapshot, nil
	}
	return models.SyncSnapshot{}, store.ErrSnapshotNotFound
}

func (s *stubSnapshots) Rollback(context.Context, int64, string, models.DataType, int64, string) error {
	return nil
}

// ── audit service stub ───────────────────────────────────────────────────────

type stubAudit struct {
	entries []models.AuditLogEntry
}

func (s *stubAudit) Record(_ context.Context, entry models.AuditLogEntry) {
	s.entries = append(s.entries, entry)
}

func (s *stubAudit) Query(context.Context, int64, models.AuditFilter) ([]models.AuditLogEntry, models.Pagination, error) {
	return s.entries, models.Pagination{}, nil
}

func (s *stubAudit) Export(context.Context, int64, time.Time, time.Time) (string, error) {
	return "", nil
}

// lastEntry returns the most recently recorded audit entry.
func (s *stubAudit) lastEntry() models.AuditLogEntry {
	if len(s.entries) == 0 {
		return models.AuditLogEntry{}
	}
	return s.entries[len(s.entries)-1]
}

// ── auth session stub ────────────────────────────────────────────────────────

type stubAuthSession struct {
	userID   int64
	deviceID string
}

func (s *stubAuthSession) Register(context.Context, models.RegisterRequest) error { return nil }
func (s *stubAuthSession) Login(context.Context, models.LoginRequest) error       { return nil }
func (s *stubAuthSession) Logout()                                                {}

func (s *stubAuthSession) Session() (int64, string, bool) {
	return s.userID, s.deviceID, s.userID != 0 && s.deviceID != ""
}
