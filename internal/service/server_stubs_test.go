package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/config"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
)

func testAppConfig() config.App {
	return config.App{
		PasswordHashKey: "password-hash-key",
		TokenSignKey:    "token-sign-key-for-tests-0123456789",
		TokenIssuer:     "mail-sync-test",
		TokenDuration:   time.Hour,
		HashKey:         "integrity-hash-key",
	}
}

// ── user repository stub ─────────────────────────────────────────────────────

type stubUserRepo struct {
	userByEmail map[string]models.User
	userByID    map[int64]models.User
	codeHashes  map[string]bool // hash -> unused
	createErr   error

	created    []models.User
	twoFactor  []string // "state secret" pairs, call order
	replaced   [][]string
	wipedCodes bool
}

func (s *stubUserRepo) CreateUser(_ context.Context, user models.User) (models.User, error) {
	if s.createErr != nil {
		return models.User{}, s.createErr
	}
	user.UserID = int64(len(s.created) + 1)
	s.created = append(s.created, user)
	return user, nil
}

func (s *stubUserRepo) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	if user, ok := s.userByEmail[email]; ok {
		return user, nil
	}
	return models.User{}, store.ErrUserNotFound
}

func (s *stubUserRepo) GetUserByID(_ context.Context, userID int64) (models.User, error) {
	if user, ok := s.userByID[userID]; ok {
		return user, nil
	}
	return models.User{}, store.ErrUserNotFound
}

func (s *stubUserRepo) UpdateTwoFactor(_ context.Context, _ int64, state, secret string) error {
	s.twoFactor = append(s.twoFactor, state+" "+secret)
	return nil
}

func (s *stubUserRepo) ReplaceBackupCodes(_ context.Context, _ int64, codeHashes []string) error {
	s.replaced = append(s.replaced, codeHashes)
	return nil
}

func (s *stubUserRepo) ConsumeBackupCode(_ context.Context, _ int64, codeHash string) (bool, error) {
	if s.codeHashes[codeHash] {
		delete(s.codeHashes, codeHash)
		return true, nil
	}
	return false, nil
}

func (s *stubUserRepo) CountBackupCodes(context.Context, int64) (int, error) {
	return len(s.codeHashes), nil
}

func (s *stubUserRepo) DeleteBackupCodes(context.Context, int64) error {
	s.wipedCodes = true
	s.codeHashes = nil
	return nil
}

// ── device repository stub ───────────────────────────────────────────────────

type stubDeviceRepo struct {
	devices  map[string]models.Device
	sessions []models.Session
	touchErr error

	createdDevices  []models.Device
	createdSessions []models.Session
	renamed         map[string]string
	revokedDevices  []string
	revokedSessions []int64
	revokeAllExcept []string
	revokeAllCount  int64
	touched         []string
}

func (s *stubDeviceRepo) CreateDevice(_ context.Context, device models.Device) (models.Device, error) {
	s.createdDevices = append(s.createdDevices, device)
	return device, nil
}

func (s *stubDeviceRepo) GetDevice(_ context.Context, _ int64, deviceID string) (models.Device, error) {
	if device, ok := s.devices[deviceID]; ok {
		return device, nil
	}
	return models.Device{}, store.ErrDeviceNotFound
}

func (s *stubDeviceRepo) ListDevices(context.Context, int64) ([]models.Device, error) {
	devices := make([]models.Device, 0, len(s.devices))
	for _, device := range s.devices {
		devices = append(devices, device)
	}
	return devices, nil
}

func (s *stubDeviceRepo) RenameDevice(_ context.Context, _ int64, deviceID, name string) error {
	if s.renamed == nil {
		s.renamed = make(map[string]string)
	}
	s.renamed[deviceID] = name
	return nil
}

func (s *stubDeviceRepo) RevokeDevice(_ context.Context, _ int64, deviceID string) error {
	s.revokedDevices = append(s.revokedDevices, deviceID)
	return nil
}

func (s *stubDeviceRepo) TouchDevice(_ context.Context, _ int64, deviceID string) error {
	if s.touchErr != nil {
		return s.touchErr
	}
	s.touched = append(s.touched, deviceID)
	return nil
}

func (s *stubDeviceRepo) CreateSession(_ context.Context, session models.Session) (models.Session, error) {
	session.ID = int64(len(s.createdSessions) + 1)
	s.createdSessions = append(s.createdSessions, session)
	return session, nil
}

func (s *stubDeviceRepo) ListSessions(context.Context, int64) ([]models.Session, error) {
	return s.sessions, nil
}

func (s *stubDeviceRepo) RevokeSession(_ context.Context, _ int64, sessionID int64) error {
	s.revokedSessions = append(s.revokedSessions, sessionID)
	return nil
}

func (s *stubDeviceRepo) RevokeAllSessionsExcept(_ context.Context, _ int64, exceptDeviceID string) (int64, error) {
	s.revokeAllExcept = append(s.revokeAllExcept, exceptDeviceID)
	return s.revokeAllCount, nil
}

// ── record repository stub ───────────────────────────────────────────────────

type stubRecordRepo struct {
	records map[models.DataType]models.RemoteRecord

	upserts []models.PushRequest
}

func (s *stubRecordRepo) GetRecord(_ context.Context, _ int64, dataType models.DataType) (models.RemoteRecord, error) {
	if record, ok := s.records[dataType]; ok {
		return record, nil
	}
	return models.RemoteRecord{}, store.ErrRecordNotFound
}

func (s *stubRecordRepo) UpsertRecord(_ context.Context, _ int64, push models.PushRequest) (models.RemoteRecord, error) {
	current, exists := s.records[push.DataType]
	if exists && current.Version != push.BaseVersion {
		return current, store.ErrRecordVersionConflict
	}
	if !exists && push.BaseVersion != 0 {
		return models.RemoteRecord{}, store.ErrRecordVersionConflict
	}

	s.upserts = append(s.upserts, push)
	record := models.RemoteRecord{
		DataType:   push.DataType,
		Version:    push.BaseVersion + 1,
		Envelope:   push.Envelope,
		ItemsCount: push.ItemsCount,
		UpdatedAt:  time.Now().UTC(),
	}
	if s.records == nil {
		s.records = make(map[models.DataType]models.RemoteRecord)
	}
	s.records[push.DataType] = record
	return record, nil
}
