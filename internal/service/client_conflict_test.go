package service

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MKhiriev/go-mail-sync/models"
	"github.com/stretchr/testify/assert"
)

// ── payloadsEqual ────────────────────────────────────────────────────────────

func TestPayloadsEqual(t *testing.T) {
	tests := []struct {
		name   string
		local  string
		server string
		want   bool
	}{
		{name: "identical", local: `{"a":1}`, server: `{"a":1}`, want: true},
		{name: "formatting only", local: `{"a": 1}`, server: "{\n  \"a\": 1\n}", want: true},
		{name: "different values", local: `{"a":1}`, server: `{"a":2}`, want: false},
		{name: "different fields", local: `{"a":1}`, server: `{"b":1}`, want: false},
		{name: "arrays equal", local: `[1,2,3]`, server: `[1, 2, 3]`, want: true},
		{name: "invalid local", local: `{`, server: `{"a":1}`, want: false},
		{name: "invalid server", local: `{"a":1}`, server: `{`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := payloadsEqual(json.RawMessage(tt.local), json.RawMessage(tt.server))
			assert.Equal(t, tt.want, got)
		})
	}
}

// ── fieldChanges ─────────────────────────────────────────────────────────────

func TestFieldChanges(t *testing.T) {
	local := json.RawMessage(`{"theme":"dark","language":"en","messages_per_page":50}`)
	server := json.RawMessage(`{"theme":"light","language":"en","notify_on_new_mail":true}`)

	changes := fieldChanges(local, server)

	// changed value, local-only field, server-only field; sorted
	assert.Equal(t, []string{"messages_per_page", "notify_on_new_mail", "theme"}, changes)
}

func TestFieldChanges_NoDifference(t *testing.T) {
	payload := json.RawMessage(`{"theme":"dark"}`)
	assert.Empty(t, fieldChanges(payload, payload))
}

func TestFieldChanges_NonObjectPayload(t *testing.T) {
	// top-level arrays cannot be diffed field by field
	local := json.RawMessage(`[{"id":"c1"}]`)
	server := json.RawMessage(`[{"id":"c2"}]`)

	assert.Nil(t, fieldChanges(local, server))
}

func TestFieldChanges_FormattingIgnored(t *testing.T) {
	local := json.RawMessage(`{"signature_html": "<b>hi</b>"}`)
	server := json.RawMessage("{\"signature_html\":\"<b>hi</b>\"}")

	assert.Empty(t, fieldChanges(local, server))
}

// ── newConflictInfo ──────────────────────────────────────────────────────────

func TestNewConflictInfo(t *testing.T) {
	local := json.RawMessage(`{"theme":"dark"}`)
	server := json.RawMessage(`{"theme":"light"}`)
	localAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	serverAt := time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC)

	info := newConflictInfo(models.DataTypePreferences, local, server, 4, 7, localAt, serverAt)

	assert.Equal(t, models.DataTypePreferences, info.DataType)
	assert.Equal(t, int64(4), info.LocalVersion)
	assert.Equal(t, int64(7), info.ServerVersion)
	assert.Equal(t, []string{"theme"}, info.FieldChanges)
	assert.Equal(t, localAt, info.LocalUpdatedAt)
	assert.Equal(t, serverAt, info.ServerUpdatedAt)
	assert.Equal(t, "local and server changed independently", info.ConflictDetails)
}

func TestNewConflictInfo_FieldDiffUnavailable(t *testing.T) {
	local := json.RawMessage(`[1]`)
	server := json.RawMessage(`[2]`)

	info := newConflictInfo(models.DataTypeContacts, local, server, 1, 2, time.Time{}, time.Time{})

	assert.Empty(t, info.FieldChanges)
	assert.Equal(t, "record-level difference; field diff unavailable", info.ConflictDetails)
}
