// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"testing"
	"time"

	"github.com/MKhiriev/go-mail-sync/internal/adapter"
	"github.com/MKhiriev/go-mail-sync/internal/logger"
	"github.com/MKhiriev/go-mail-sync/internal/store"
	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSyncSvc(t *testing.T) (*clientSyncService, *stubQueueRepo, *stubServerAdapter, *stubSnapshots, *stubAudit) {
	t.Helper()

	repo := &stubQueueRepo{}
	server := &stubServerAdapter{}
	snapshots := &stubSnapshots{current: make(map[models.DataType]models.SyncSnapshot)}
	audit := &stubAudit{}
	queueSvc := NewClientQueueService(repo, server, fakeEnvelopes{}, snapshots, audit, logger.Nop())

	svc := NewClientSyncService(repo, queueSvc, snapshots, server, fakeEnvelopes{}, audit, newKeyedLock(), logger.Nop()).(*clientSyncService)
	return svc, repo, server, snapshots, audit
}

func pendingItem(dataType models.DataType, envelope string, baseVersion int64) models.QueueItem {
	return models.QueueItem{
		ID:          "q-" + string(dataType),
		UserID:      1,
		DataType:    dataType,
		Payload:     envelope,
		BaseVersion: baseVersion,
		ItemsCount:  1,
		Status:      models.QueuePending,
		UpdatedAt:   time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
}

// ── SaveLocal ────────────────────────────────────────────────────────────────

func TestSaveLocal_EnqueuesSealedPayload(t *testing.T) {
	svc, repo, _, snapshots, _ := newTestSyncSvc(t)
	ctx := context.Background()

	snapshots.current[models.DataTypePreferences] = models.SyncSnapshot{ServerVersion: 7, Envelope: "current"}

	err := svc.SaveLocal(ctx, 1, "secret", models.DataTypePreferences, models.Preferences{Theme: "dark"}, 1)
	require.NoError(t, err)

	require.Len(t, repo.inserted, 1)
	saved := repo.inserted[0]
	assert.Equal(t, int64(7), saved.BaseVersion) // from the current snapshot's server version

	// the queued payload is an envelope, never plaintext
	assert.NotContains(t, saved.Payload, "dark")
	var opened models.Preferences
	require.NoError(t, openEnvelope(fakeEnvelopes{}, "secret", saved.Payload, &opened))
	assert.Equal(t, "dark", opened.Theme)
}

func TestSaveLocal_FirstChangeHasZeroBaseVersion(t *testing.T) {
	svc, repo, _, _, _ := newTestSyncSvc(t)

	err := svc.SaveLocal(context.Background(), 1, "secret", models.DataTypeContacts, []models.Contact{{ID: "c1"}}, 1)
	require.NoError(t, err)

	require.Len(t, repo.inserted, 1)
	assert.Equal(t, int64(0), repo.inserted[0].BaseVersion)
}

func TestSaveLocal_InvalidDataType(t *testing.T) {
	svc, _, _, _, _ := newTestSyncSvc(t)

	err := svc.SaveLocal(context.Background(), 1, "secret", "calendar", struct{}{}, 1)
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestSaveLocal_NoKeyMaterial(t *testing.T) {
	svc, repo, _, _, _ := newTestSyncSvc(t)

	err := svc.SaveLocal(context.Background(), 1, "", models.DataTypeContacts, struct{}{}, 1)
	assert.ErrorIs(t, err, ErrNoKeyMaterial)
	assert.Empty(t, repo.inserted)
}

// ── SyncType: pull only ──────────────────────────────────────────────────────

func TestSyncType_AdoptsServerRecord(t *testing.T) {
	svc, _, server, snapshots, audit := newTestSyncSvc(t)
	ctx := context.Background()

	serverEnvelope := mustSeal("secret", map[string]string{"theme": "light"})
	server.pullFn = func(context.Context, models.DataType) (models.RemoteRecord, error) {
		return models.RemoteRecord{DataType: models.DataTypePreferences, Version: 3, Envelope: serverEnvelope, ItemsCount: 1}, nil
	}

	outcome, conflict, err := svc.SyncType(ctx, 1, "device-1", "secret", models.DataTypePreferences)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.True(t, outcome.Synced)

	require.Len(t, snapshots.recorded, 1)
	adopted := snapshots.recorded[0]
	assert.Equal(t, models.OperationPull, adopted.Operation)
	assert.Equal(t, serverEnvelope, adopted.Envelope)
	assert.Equal(t, int64(3), adopted.ServerVersion)
	assert.True(t, adopted.Current)

	assert.Equal(t, models.ActionDownload, audit.lastEntry().Action)
	assert.True(t, audit.lastEntry().Success)
}

func TestSyncType_ServerEmptyNothingPending(t *testing.T) {
	svc, _, _, snapshots, _ := newTestSyncSvc(t)

	outcome, conflict, err := svc.SyncType(context.Background(), 1, "device-1", "secret", models.DataTypePreferences)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.True(t, outcome.Skipped)
	assert.Empty(t, snapshots.recorded)
}

func TestSyncType_ServerUnchangedSkips(t *testing.T) {
	svc, _, server, snapshots, _ := newTestSyncSvc(t)

	envelope := mustSeal("secret", map[string]string{"theme": "dark"})
	snapshots.current[models.DataTypePreferences] = models.SyncSnapshot{Envelope: envelope, ServerVersion: 3}
	server.pullFn = func(context.Context, models.DataType) (models.RemoteRecord, error) {
		// byte-identical envelope means the server has not moved
		return models.RemoteRecord{Version: 3, Envelope: envelope}, nil
	}

	outcome, _, err := svc.SyncType(context.Background(), 1, "device-1", "secret", models.DataTypePreferences)
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.Empty(t, snapshots.recorded)
}

func TestSyncType_WrongSecretNotMistakenForNoData(t *testing.T) {
	svc, _, server, snapshots, audit := newTestSyncSvc(t)

	server.pullFn = func(context.Context, models.DataType) (models.RemoteRecord, error) {
		return models.RemoteRecord{Version: 2, Envelope: mustSeal("other secret", "payload")}, nil
	}

	_, _, err := svc.SyncType(context.Background(), 1, "device-1", "secret", models.DataTypePreferences)
	require.Error(t, err)
	assert.Empty(t, snapshots.recorded)

	// the failed adoption is audited
	assert.False(t, audit.lastEntry().Success)
	assert.Equal(t, models.ActionDownload, audit.lastEntry().Action)
}

// ── SyncType: push pending ───────────────────────────────────────────────────

func TestSyncType_PushesPendingToEmptyServer(t *testing.T) {
	svc, repo, server, snapshots, audit := newTestSyncSvc(t)
	ctx := context.Background()

	envelope := mustSeal("secret", map[string]string{"theme": "dark"})
	pending := pendingItem(models.DataTypePreferences, envelope, 0)
	repo.getPendingFn = func(context.Context, int64, models.DataType) (models.QueueItem, error) {
		return pending, nil
	}
	server.pushFn = func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
		assert.Equal(t, int64(0), req.BaseVersion)
		assert.Equal(t, envelope, req.Envelope)
		return models.PushResponse{Version: 1}, nil
	}

	outcome, conflict, err := svc.SyncType(ctx, 1, "device-1", "secret", models.DataTypePreferences)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.True(t, outcome.Synced)

	assert.Equal(t, []string{pending.ID}, repo.completed)

	require.Len(t, snapshots.recorded, 1)
	pushed := snapshots.recorded[0]
	assert.Equal(t, models.OperationPush, pushed.Operation)
	assert.Equal(t, int64(1), pushed.ServerVersion)
	assert.Equal(t, envelope, pushed.Envelope)
	assert.True(t, pushed.Current)

	assert.Equal(t, models.ActionUpload, audit.lastEntry().Action)
}

func TestSyncType_PushesWhenServerMatchesCurrent(t *testing.T) {
	svc, repo, server, snapshots, _ := newTestSyncSvc(t)

	agreed := mustSeal("secret", map[string]string{"theme": "dark"})
	snapshots.current[models.DataTypePreferences] = models.SyncSnapshot{Envelope: agreed, ServerVersion: 4}

	pending := pendingItem(models.DataTypePreferences, mustSeal("secret", map[string]string{"theme": "light"}), 4)
	repo.getPendingFn = func(context.Context, int64, models.DataType) (models.QueueItem, error) {
		return pending, nil
	}
	server.pullFn = func(context.Context, models.DataType) (models.RemoteRecord, error) {
		return models.RemoteRecord{Version: 4, Envelope: agreed}, nil
	}
	server.pushFn = func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
		// base version comes from the server's current version, not the item
		assert.Equal(t, int64(4), req.BaseVersion)
		return models.PushResponse{Version: 5}, nil
	}

	outcome, conflict, err := svc.SyncType(context.Background(), 1, "device-1", "secret", models.DataTypePreferences)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.True(t, outcome.Synced)
}

func TestSyncType_FastForwardOnIdenticalPayloads(t *testing.T) {
	svc, repo, server, snapshots, audit := newTestSyncSvc(t)

	payload := map[string]string{"theme": "dark"}
	serverEnvelope := mustSeal("secret", payload)

	snapshots.current[models.DataTypePreferences] = models.SyncSnapshot{Envelope: "stale envelope", ServerVersion: 2}
	pending := pendingItem(models.DataTypePreferences, mustSeal("secret", payload), 2)
	repo.getPendingFn = func(context.Context, int64, models.DataType) (models.QueueItem, error) {
		return pending, nil
	}
	server.pullFn = func(context.Context, models.DataType) (models.RemoteRecord, error) {
		return models.RemoteRecord{Version: 6, Envelope: serverEnvelope, ItemsCount: 1}, nil
	}

	outcome, conflict, err := svc.SyncType(context.Background(), 1, "device-1", "secret", models.DataTypePreferences)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.True(t, outcome.Synced)

	// no push happened: the server's copy was adopted instead
	assert.Empty(t, server.pushes)
	assert.Equal(t, []string{pending.ID}, repo.completed)

	require.Len(t, snapshots.recorded, 1)
	assert.Equal(t, models.OperationPull, snapshots.recorded[0].Operation)
	assert.Equal(t, int64(6), snapshots.recorded[0].ServerVersion)

	assert.Contains(t, audit.lastEntry().Detail, "fast-forwarded")
}

func TestSyncType_DivergentPayloadsConflict(t *testing.T) {
	svc, repo, server, snapshots, _ := newTestSyncSvc(t)

	snapshots.current[models.DataTypeSignatures] = models.SyncSnapshot{Version: 3, Envelope: "stale", ServerVersion: 3}
	pending := pendingItem(models.DataTypeSignatures, mustSeal("secret", models.Signature{ID: "s1", SignatureHTML: "<b>local</b>"}), 3)
	repo.getPendingFn = func(context.Context, int64, models.DataType) (models.QueueItem, error) {
		return pending, nil
	}
	serverAt := time.Date(2026, 8, 21, 9, 0, 0, 0, time.UTC)
	server.pullFn = func(context.Context, models.DataType) (models.RemoteRecord, error) {
		return models.RemoteRecord{
			Version:   8,
			Envelope:  mustSeal("secret", models.Signature{ID: "s1", SignatureHTML: "<b>server</b>"}),
			UpdatedAt: serverAt,
		}, nil
	}

	outcome, conflict, err := svc.SyncType(context.Background(), 1, "device-1", "secret", models.DataTypeSignatures)
	require.NoError(t, err)
	assert.True(t, outcome.Conflict)

	require.NotNil(t, conflict)
	assert.Equal(t, models.DataTypeSignatures, conflict.DataType)
	assert.Equal(t, int64(3), conflict.LocalVersion)
	assert.Equal(t, int64(8), conflict.ServerVersion)
	assert.Contains(t, conflict.FieldChanges, "signature_html")
	assert.Equal(t, serverAt, conflict.ServerUpdatedAt)

	// nothing was pushed or completed; the pending change awaits resolution
	assert.Empty(t, server.pushes)
	assert.Empty(t, repo.completed)

	// a conflict snapshot is recorded but never becomes current
	require.Len(t, snapshots.recorded, 1)
	assert.Equal(t, models.StatusConflict, snapshots.recorded[0].SyncStatus)
	assert.False(t, snapshots.recorded[0].Current)
	assert.Contains(t, snapshots.recorded[0].ErrorMessage, "server advanced to version 8")
}

func TestSyncType_PushRaceResolvedByFastForward(t *testing.T) {
	svc, repo, server, _, _ := newTestSyncSvc(t)

	payload := map[string]string{"theme": "dark"}
	pending := pendingItem(models.DataTypePreferences, mustSeal("secret", payload), 0)
	repo.getPendingFn = func(context.Context, int64, models.DataType) (models.QueueItem, error) {
		return pending, nil
	}
	// pull says empty, but another device pushes between pull and push
	server.pushFn = func(context.Context, models.PushRequest) (models.PushResponse, error) {
		return models.PushResponse{}, &adapter.VersionConflictError{
			Server: models.RemoteRecord{Version: 1, Envelope: mustSeal("secret", payload)},
		}
	}

	outcome, conflict, err := svc.SyncType(context.Background(), 1, "device-1", "secret", models.DataTypePreferences)
	require.NoError(t, err)
	assert.Nil(t, conflict)
	assert.True(t, outcome.Synced)
	assert.Equal(t, []string{pending.ID}, repo.completed)
}

func TestSyncType_LockBusy(t *testing.T) {
	svc, _, _, _, _ := newTestSyncSvc(t)

	require.True(t, svc.locks.TryLock(models.DataTypeContacts))
	defer svc.locks.Unlock(models.DataTypeContacts)

	_, _, err := svc.SyncType(context.Background(), 1, "device-1", "secret", models.DataTypeContacts)
	assert.ErrorIs(t, err, ErrSyncInProgress)
}

// ── SyncAll ──────────────────────────────────────────────────────────────────

func TestSyncAll_CoversEveryDataType(t *testing.T) {
	svc, _, _, _, _ := newTestSyncSvc(t)

	result, err := svc.SyncAll(context.Background(), 1, "device-1", "secret")
	require.NoError(t, err)

	assert.Len(t, result.Outcomes, len(models.AllDataTypes))
	for _, dataType := range models.AllDataTypes {
		assert.Contains(t, result.Outcomes, dataType)
	}
}

func TestSyncAll_BusyTypeReportedSkipped(t *testing.T) {
	svc, _, _, _, _ := newTestSyncSvc(t)

	require.True(t, svc.locks.TryLock(models.DataTypeContacts))
	defer svc.locks.Unlock(models.DataTypeContacts)

	result, err := svc.SyncAll(context.Background(), 1, "device-1", "secret")
	require.NoError(t, err)

	assert.True(t, result.Outcomes[models.DataTypeContacts].Skipped)
	assert.Empty(t, result.Errors) // a busy type is not an error
}

func TestSyncAll_TypeFailureDoesNotAbortCycle(t *testing.T) {
	svc, _, server, _, _ := newTestSyncSvc(t)

	server.pullFn = func(_ context.Context, dataType models.DataType) (models.RemoteRecord, error) {
		if dataType == models.DataTypeAccounts {
			return models.RemoteRecord{}, adapter.ErrTransport
		}
		return models.RemoteRecord{}, adapter.ErrNotFound
	}

	result, err := svc.SyncAll(context.Background(), 1, "device-1", "secret")
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "accounts")
	assert.NotEmpty(t, result.Outcomes[models.DataTypeAccounts].Error)
	assert.True(t, result.Outcomes[models.DataTypeContacts].Skipped)
}

// ── DetectConflicts ──────────────────────────────────────────────────────────

func TestDetectConflicts_ReadOnly(t *testing.T) {
	svc, repo, server, snapshots, _ := newTestSyncSvc(t)

	snapshots.current[models.DataTypePreferences] = models.SyncSnapshot{Version: 2, Envelope: "stale", ServerVersion: 2}
	pending := pendingItem(models.DataTypePreferences, mustSeal("secret", map[string]string{"theme": "dark"}), 2)
	repo.getPendingFn = func(_ context.Context, _ int64, dataType models.DataType) (models.QueueItem, error) {
		if dataType == models.DataTypePreferences {
			return pending, nil
		}
		return models.QueueItem{}, store.ErrQueueItemNotFound
	}
	server.pullFn = func(_ context.Context, dataType models.DataType) (models.RemoteRecord, error) {
		if dataType == models.DataTypePreferences {
			return models.RemoteRecord{Version: 5, Envelope: mustSeal("secret", map[string]string{"theme": "light"})}, nil
		}
		return models.RemoteRecord{}, adapter.ErrNotFound
	}

	conflicts, err := svc.DetectConflicts(context.Background(), 1, "secret")
	require.NoError(t, err)

	require.Len(t, conflicts, 1)
	assert.Equal(t, models.DataTypePreferences, conflicts[0].DataType)
	assert.Equal(t, []string{"theme"}, conflicts[0].FieldChanges)

	// detection mutates nothing
	assert.Empty(t, server.pushes)
	assert.Empty(t, repo.completed)
	assert.Empty(t, snapshots.recorded)
}

func TestDetectConflicts_EqualPayloadsNotAConflict(t *testing.T) {
	svc, repo, server, _, _ := newTestSyncSvc(t)

	payload := map[string]string{"theme": "dark"}
	repo.getPendingFn = func(context.Context, int64, models.DataType) (models.QueueItem, error) {
		return pendingItem(models.DataTypePreferences, mustSeal("secret", payload), 0), nil
	}
	server.pullFn = func(context.Context, models.DataType) (models.RemoteRecord, error) {
		return models.RemoteRecord{Version: 3, Envelope: mustSeal("secret", payload)}, nil
	}

	conflicts, err := svc.DetectConflicts(context.Background(), 1, "secret")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestDetectConflicts_NothingPending(t *testing.T) {
	svc, _, server, _, _ := newTestSyncSvc(t)

	server.pullFn = func(context.Context, models.DataType) (models.RemoteRecord, error) {
		return models.RemoteRecord{Version: 1, Envelope: mustSeal("secret", "anything")}, nil
	}

	conflicts, err := svc.DetectConflicts(context.Background(), 1, "secret")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

// ── Resolve ──────────────────────────────────────────────────────────────────

func TestResolve_UseLocal(t *testing.T) {
	svc, repo, server, snapshots, audit := newTestSyncSvc(t)

	localEnvelope := mustSeal("secret", map[string]string{"theme": "dark"})
	pending := pendingItem(models.DataTypePreferences, localEnvelope, 2)
	repo.getPendingFn = func(context.Context, int64, models.DataType) (models.QueueItem, error) {
		return pending, nil
	}
	server.pullFn = func(context.Context, models.DataType) (models.RemoteRecord, error) {
		return models.RemoteRecord{Version: 7, Envelope: mustSeal("secret", map[string]string{"theme": "light"})}, nil
	}
	server.pushFn = func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
		// the force push bases on the server's current version
		assert.Equal(t, int64(7), req.BaseVersion)
		assert.Equal(t, localEnvelope, req.Envelope)
		return models.PushResponse{Version: 8}, nil
	}

	err := svc.Resolve(context.Background(), 1, "device-1", models.DataTypePreferences, models.ResolveUseLocal, "secret")
	require.NoError(t, err)

	assert.Equal(t, []string{pending.ID}, repo.completed)

	require.Len(t, snapshots.recorded, 1)
	merged := snapshots.recorded[0]
	assert.Equal(t, models.OperationMerge, merged.Operation)
	assert.Equal(t, localEnvelope, merged.Envelope)
	assert.Equal(t, int64(8), merged.ServerVersion)
	assert.True(t, merged.Current)

	assert.Contains(t, audit.lastEntry().Detail, "use_local")
}

func TestResolve_UseServer(t *testing.T) {
	svc, repo, server, snapshots, audit := newTestSyncSvc(t)

	serverEnvelope := mustSeal("secret", map[string]string{"theme": "light"})
	pending := pendingItem(models.DataTypePreferences, mustSeal("secret", map[string]string{"theme": "dark"}), 2)
	repo.getPendingFn = func(context.Context, int64, models.DataType) (models.QueueItem, error) {
		return pending, nil
	}
	server.pullFn = func(context.Context, models.DataType) (models.RemoteRecord, error) {
		return models.RemoteRecord{Version: 7, Envelope: serverEnvelope, ItemsCount: 1}, nil
	}

	err := svc.Resolve(context.Background(), 1, "device-1", models.DataTypePreferences, models.ResolveUseServer, "secret")
	require.NoError(t, err)

	// the local pending change is discarded, nothing is pushed
	assert.Empty(t, server.pushes)
	assert.Equal(t, []string{pending.ID}, repo.completed)

	require.Len(t, snapshots.recorded, 1)
	assert.Equal(t, serverEnvelope, snapshots.recorded[0].Envelope)
	assert.Equal(t, int64(7), snapshots.recorded[0].ServerVersion)

	assert.Contains(t, audit.lastEntry().Detail, "use_server")
}

func TestResolve_InvalidStrategy(t *testing.T) {
	svc, _, _, _, _ := newTestSyncSvc(t)

	err := svc.Resolve(context.Background(), 1, "device-1", models.DataTypePreferences, "merge_fields", "secret")
	assert.ErrorIs(t, err, ErrInvalidResolutionStrategy)
}

func TestResolve_NothingPending(t *testing.T) {
	svc, _, _, _, _ := newTestSyncSvc(t)

	err := svc.Resolve(context.Background(), 1, "device-1", models.DataTypePreferences, models.ResolveUseLocal, "secret")
	assert.ErrorIs(t, err, ErrNothingToResolve)
}

func TestResolve_UseServerAgainstEmptyServer(t *testing.T) {
	svc, repo, _, _, _ := newTestSyncSvc(t)

	repo.getPendingFn = func(context.Context, int64, models.DataType) (models.QueueItem, error) {
		return pendingItem(models.DataTypePreferences, "envelope", 0), nil
	}

	err := svc.Resolve(context.Background(), 1, "device-1", models.DataTypePreferences, models.ResolveUseServer, "secret")
	assert.ErrorIs(t, err, ErrNothingToResolve)
}

func TestResolve_LockBusy(t *testing.T) {
	svc, _, _, _, _ := newTestSyncSvc(t)

	require.True(t, svc.locks.TryLock(models.DataTypePreferences))
	defer svc.locks.Unlock(models.DataTypePreferences)

	err := svc.Resolve(context.Background(), 1, "device-1", models.DataTypePreferences, models.ResolveUseLocal, "secret")
	assert.ErrorIs(t, err, ErrSyncInProgress)
}
