// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used across the
// mail-sync server handlers and middleware.
//
// All Msg* constants are human-readable message strings that are written into
// HTTP response bodies or log entries to describe the outcome of an operation.
// Keeping them in one place ensures consistent wording throughout the API.
package app

const (
	// MsgInvalidJSON is returned when the request body is not valid JSON.
	MsgInvalidJSON = "Invalid JSON was passed"

	// MsgInvalidDataProvided is returned when the request body decodes but
	// fails basic validation (e.g. missing required fields).
	MsgInvalidDataProvided = "invalid data provided"

	// MsgInvalidEmailPassword is returned when the supplied email/password
	// combination does not match any existing account.
	MsgInvalidEmailPassword = "invalid email/password"

	// MsgInvalidOneTimeCode is returned when a TOTP or backup code is
	// rejected. The wording deliberately avoids the phrase used by
	// MsgTwoFactorRequired: clients distinguish the gate prompt from a bad
	// code by the body text.
	MsgInvalidOneTimeCode = "invalid one-time code"

	// MsgEmailAlreadyExists is returned when a registration attempt targets
	// an email that is already in use.
	MsgEmailAlreadyExists = "email already exists"

	// MsgDeviceRevoked is returned when the device named in a token or login
	// request has been revoked and may no longer sync.
	MsgDeviceRevoked = "device is revoked"

	// MsgNoUserIDProvided is returned when a handler requires a user ID
	// (extracted from the JWT claim) but none is present in the request
	// context.
	MsgNoUserIDProvided = "no user ID was given"

	// MsgNoRecordForDataType is returned when a pull targets a data type the
	// account has never pushed.
	MsgNoRecordForDataType = "no record for data type"
)
