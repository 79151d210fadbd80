package service

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"github.com/MKhiriev/go-mail-sync/models"
)

// payloadsEqual reports whether two decrypted payloads are semantically the
// same JSON document. Both sides are compacted first so formatting never
// fakes a difference.
func payloadsEqual(local, server json.RawMessage) bool {
	var l, s bytes.Buffer
	if err := json.Compact(&l, local); err != nil {
		return false
	}
	if err := json.Compact(&s, server); err != nil {
		return false
	}
	return bytes.Equal(l.Bytes(), s.Bytes())
}

// fieldChanges computes the ordered symmetric difference of top-level JSON
// fields between two payloads: fields present on one side only, plus fields
// whose values differ. Returns nil when either payload is not a JSON object
// (e.g. a top-level array) — the caller falls back to whole-record display.
func fieldChanges(local, server json.RawMessage) []string {
	var localFields, serverFields map[string]json.RawMessage
	if err := json.Unmarshal(local, &localFields); err != nil {
		return nil
	}
	if err := json.Unmarshal(server, &serverFields); err != nil {
		return nil
	}

	changed := make(map[string]struct{})
	for name, localValue := range localFields {
		serverValue, ok := serverFields[name]
		if !ok || !payloadsEqual(localValue, serverValue) {
			changed[name] = struct{}{}
		}
	}
	for name := range serverFields {
		if _, ok := localFields[name]; !ok {
			changed[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(changed))
	for name := range changed {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// newConflictInfo assembles the transient conflict presentation for divergent
// local and server payloads.
func newConflictInfo(dataType models.DataType, local, server json.RawMessage, localVersion, serverVersion int64, localUpdatedAt, serverUpdatedAt time.Time) models.ConflictInfo {
	info := models.ConflictInfo{
		DataType:        dataType,
		LocalData:       local,
		ServerData:      server,
		LocalVersion:    localVersion,
		ServerVersion:   serverVersion,
		FieldChanges:    fieldChanges(local, server),
		LocalUpdatedAt:  localUpdatedAt,
		ServerUpdatedAt: serverUpdatedAt,
		ConflictDetails: "local and server changed independently",
	}

	if len(info.FieldChanges) == 0 {
		info.ConflictDetails = "record-level difference; field diff unavailable"
	}

	return info
}
