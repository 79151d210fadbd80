// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-mail-sync/internal/crypto"
)

// Wire format of a stored/transmitted envelope: "<base64 salt>$<blob>".
//
// The salt is prefixed so any of the user's devices can re-derive the key
// from the shared master secret alone; it is not a secret. The separator is
// safe because '$' does not occur in standard base64 output.
const envelopeSeparator = "$"

// sealEnvelope encrypts payload under a key derived from masterSecret and a
// fresh random salt, and returns the salt-prefixed wire form.
func sealEnvelope(envelopes crypto.EnvelopeService, masterSecret string, payload any) (string, error) {
	if masterSecret == "" {
		return "", ErrNoKeyMaterial
	}

	salt, err := envelopes.GenerateSalt()
	if err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := envelopes.DeriveKey(masterSecret, salt)
	blob, err := envelopes.Encrypt(payload, key)
	if err != nil {
		return "", fmt.Errorf("encrypt payload: %w", err)
	}

	return base64.StdEncoding.EncodeToString(salt) + envelopeSeparator + blob, nil
}

// openEnvelope decrypts a salt-prefixed envelope into target. A wrong master
// secret surfaces as an error wrapping crypto.ErrDecryptionFailed.
func openEnvelope(envelopes crypto.EnvelopeService, masterSecret, envelope string, target any) error {
	if masterSecret == "" {
		return ErrNoKeyMaterial
	}

	saltPart, blob, found := strings.Cut(envelope, envelopeSeparator)
	if !found || saltPart == "" || blob == "" {
		return ErrMalformedEnvelope
	}

	salt, err := base64.StdEncoding.DecodeString(saltPart)
	if err != nil {
		return fmt.Errorf("%w: bad salt encoding: %v", ErrMalformedEnvelope, err)
	}

	key := envelopes.DeriveKey(masterSecret, salt)
	return envelopes.Decrypt(blob, key, target)
}

// openEnvelopeRaw decrypts an envelope and returns the plaintext as raw JSON,
// for payload comparison and conflict presentation.
func openEnvelopeRaw(envelopes crypto.EnvelopeService, masterSecret, envelope string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := openEnvelope(envelopes, masterSecret, envelope, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
