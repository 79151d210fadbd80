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

func newTestQueueRepo(t *testing.T) (*queueRepository, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	l := logger.Nop()
	repo := &queueRepository{
		DB:     &DB{DB: db, logger: l},
		logger: l,
	}
	return repo, mock, db
}

func TestGetPendingItem_NotFound(t *testing.T) {
	repo, mock, db := newTestQueueRepo(t)
	defer db.Close()

	mock.ExpectQuery("SELECT").
		WithArgs(int64(1), models.DataTypeContacts).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetPendingItem(context.Background(), 1, models.DataTypeContacts)
	if !errors.Is(err, ErrQueueItemNotFound) {
		t.Fatalf("expected ErrQueueItemNotFound, got %v", err)
	}
}

func TestUpdateItemPayload_Coalesce(t *testing.T) {
	repo, mock, db := newTestQueueRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE queue_items").
		WithArgs("new-ciphertext", int64(2), 7, "item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateItemPayload(context.Background(), "item-1", "new-ciphertext", 2, 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUpdateItemPayload_GoneItem(t *testing.T) {
	repo, mock, db := newTestQueueRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE queue_items").
		WithArgs("new-ciphertext", int64(2), 7, "gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateItemPayload(context.Background(), "gone", "new-ciphertext", 2, 7)
	if !errors.Is(err, ErrQueueItemNotFound) {
		t.Fatalf("expected ErrQueueItemNotFound, got %v", err)
	}
}

func TestGetDueItems_SkipsFutureRetries(t *testing.T) {
	repo, mock, db := newTestQueueRepo(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "data_type", "payload", "base_version", "items_count",
		"attempt_count", "next_retry_at", "status", "last_error", "created_at", "updated_at",
	}).AddRow("item-1", 1, "contacts", "ciphertext", 2, 5, 1, now.Add(-time.Minute), "pending", "", now, now)

	mock.ExpectQuery("SELECT").
		WithArgs(int64(1), sqlmock.AnyArg()).
		WillReturnRows(rows)

	items, err := repo.GetDueItems(context.Background(), 1, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 due item, got %d", len(items))
	}
	if items[0].ID != "item-1" || items[0].AttemptCount != 1 {
		t.Errorf("unexpected item: %+v", items[0])
	}
}

func TestMarkCompleted_GoneItem(t *testing.T) {
	repo, mock, db := newTestQueueRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE queue_items").
		WithArgs("gone").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkCompleted(context.Background(), "gone")
	if !errors.Is(err, ErrQueueItemNotFound) {
		t.Fatalf("expected ErrQueueItemNotFound, got %v", err)
	}
}

func TestRetryFailed_CountsMoved(t *testing.T) {
	repo, mock, db := newTestQueueRepo(t)
	defer db.Close()

	mock.ExpectExec("UPDATE queue_items").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.RetryFailed(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 retried items, got %d", count)
	}
}

func TestClearFailed_CountsDeleted(t *testing.T) {
	repo, mock, db := newTestQueueRepo(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM queue_items").
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	count, err := repo.ClearFailed(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 cleared items, got %d", count)
	}
}

func TestGetStats_AllCounts(t *testing.T) {
	repo, mock, db := newTestQueueRepo(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"pending", "failed", "completed", "total"}).AddRow(2, 1, 4, 7)

	mock.ExpectQuery("SELECT").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	stats, err := repo.GetStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := models.QueueStats{PendingCount: 2, FailedCount: 1, CompletedCount: 4, TotalCount: 7}
	if stats != want {
		t.Errorf("expected %+v, got %+v", want, stats)
	}
}
