// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// AuditAction is the kind of data movement an audit entry records.
type AuditAction string

const (
	ActionUpload   AuditAction = "upload"
	ActionDownload AuditAction = "download"
	ActionDelete   AuditAction = "delete"
	// ActionSync covers whole-cycle events that are not tied to one transfer
	// direction, such as a scheduler tick skipped for missing key material.
	ActionSync AuditAction = "sync"
)

// AuditLogEntry is one append-only, immutable record of a sync operation.
// Entries are never updated or deleted; the log is the user-visible history
// of everything the engine did with their data.
type AuditLogEntry struct {
	ID           int64       `json:"id"`
	UserID       int64       `json:"-"`
	Timestamp    time.Time   `json:"timestamp"`
	DataType     DataType    `json:"data_type"`
	Action       AuditAction `json:"action"`
	DeviceID     string      `json:"device_id"`
	IPAddress    string      `json:"ip_address,omitempty"`
	Success      bool        `json:"success"`
	Detail       string      `json:"detail,omitempty"`
	ErrorMessage string      `json:"error_message,omitempty"`
}

// AuditFilter narrows an audit log query. Nil/zero fields are ignored.
type AuditFilter struct {
	DataType  *DataType    `json:"data_type,omitempty"`
	Action    *AuditAction `json:"action,omitempty"`
	Success   *bool        `json:"success,omitempty"`
	StartDate *time.Time   `json:"start_date,omitempty"`
	EndDate   *time.Time   `json:"end_date,omitempty"`
	Page      int          `json:"page"`
	Limit     int          `json:"limit"`
}

// Pagination describes the page of results returned by a filtered query.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}
