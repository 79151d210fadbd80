package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/models"
)

func newTestSnapshotRepo(t *testing.T) (*snapshotRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &snapshotRepository{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func TestSaveSnapshot_AllocatesNextVersionAndMovesCurrent(t *testing.T) {
	repo, mock, db := newTestSnapshotRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(int64(1), models.DataTypeContacts).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(6))
	mock.ExpectExec("INSERT INTO snapshots").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec("UPDATE snapshots").
		WithArgs(int64(1), models.DataTypeContacts, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	saved, err := repo.SaveSnapshot(context.Background(), models.SyncSnapshot{
		UserID:     1,
		DataType:   models.DataTypeContacts,
		Operation:  models.OperationPush,
		SyncStatus: models.StatusSuccess,
		ItemsCount: 12,
		DeviceID:   "dev-1",
		Current:    true,
		Envelope:   "ciphertext",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if saved.Version != 6 {
		t.Errorf("expected allocated version 6, got %d", saved.Version)
	}
	if saved.ID != 10 {
		t.Errorf("expected inserted id 10, got %d", saved.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveSnapshot_FailedAttemptKeepsCurrentMarker(t *testing.T) {
	repo, mock, db := newTestSnapshotRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(int64(1), models.DataTypeContacts).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(7))
	mock.ExpectExec("INSERT INTO snapshots").
		WillReturnResult(sqlmock.NewResult(11, 1))
	// no current-marker update expected for a failed snapshot
	mock.ExpectCommit()

	_, err := repo.SaveSnapshot(context.Background(), models.SyncSnapshot{
		UserID:       1,
		DataType:     models.DataTypeContacts,
		Operation:    models.OperationPush,
		SyncStatus:   models.StatusFailed,
		DeviceID:     "dev-1",
		ErrorMessage: "server unavailable",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetSnapshotByVersion_NotFound(t *testing.T) {
	repo, mock, db := newTestSnapshotRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WithArgs(int64(1), models.DataTypeContacts, int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetSnapshotByVersion(context.Background(), 1, models.DataTypeContacts, 99)
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}

func TestGetSnapshots_MostRecentFirst(t *testing.T) {
	repo, mock, db := newTestSnapshotRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "data_type", "version", "server_version", "operation", "sync_status",
		"items_count", "device_id", "is_current", "created_at", "error_message", "envelope",
	}).
		AddRow(5, 1, "contacts", 3, 3, "push", "success", 12, "dev-1", true, now, "", "c3").
		AddRow(4, 1, "contacts", 2, 2, "pull", "success", 11, "dev-1", false, now, "", "c2")

	mock.ExpectQuery("SELECT").
		WithArgs(int64(1), models.DataTypeContacts, 30).
		WillReturnRows(rows)

	snapshots, err := repo.GetSnapshots(context.Background(), 1, models.DataTypeContacts, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snapshots) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(snapshots))
	}
	if snapshots[0].Version != 3 || !snapshots[0].Current {
		t.Errorf("expected newest snapshot first and current, got %+v", snapshots[0])
	}
}

func TestSetCurrent_TargetMissing(t *testing.T) {
	repo, mock, db := newTestSnapshotRepo(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE snapshots").
		WithArgs(int64(1), models.DataTypeContacts, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE snapshots").
		WithArgs(int64(1), models.DataTypeContacts, int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.SetCurrent(context.Background(), 1, models.DataTypeContacts, 99)
	if !errors.Is(err, ErrSnapshotNotFound) {
		t.Fatalf("expected ErrSnapshotNotFound, got %v", err)
	}
}
