// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/MKhiriev/go-mail-sync/models"
)

func TestInitHasherPoolAndHash(t *testing.T) {
	key := "secret-key"
	InitHasherPool(key)

	data := []byte("test-data")

	sum1 := Hash(data)
	sum2 := Hash(data)

	if len(sum1) == 0 {
		t.Fatal("hash result is empty")
	}

	if !bytes.Equal(sum1, sum2) {
		t.Fatal("hash must be deterministic for the same input")
	}

	// verify against direct HMAC computation
	h := hmac.New(sha256.New, []byte(key))
	h.Write(data)
	expected := h.Sum(nil)

	if !bytes.Equal(sum1, expected) {
		t.Fatalf("unexpected hash value\nwant: %x\ngot:  %x", expected, sum1)
	}
}

const testHashKey = "test-secret-key"

func TestHash_WithRealPayload(t *testing.T) {
	InitHasherPool(testHashKey)

	payload := models.PushRequest{
		DataType:    models.DataTypeSignatures,
		BaseVersion: 7,
		Envelope:    "b64-ciphertext-blob",
		ItemsCount:  2,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	got := hex.EncodeToString(Hash(payloadBytes))

	// reference digest computed directly with crypto/hmac
	mac := hmac.New(sha256.New, []byte(testHashKey))
	mac.Write(payloadBytes)
	want := hex.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Errorf("Hash mismatch:\n  got:  %s\n  want: %s", got, want)
	}
}

func TestHash_DifferentPayloads(t *testing.T) {
	InitHasherPool(testHashKey)

	bytes1, _ := json.Marshal(models.PushRequest{DataType: models.DataTypeContacts, Envelope: "blob-1"})
	bytes2, _ := json.Marshal(models.PushRequest{DataType: models.DataTypeContacts, Envelope: "blob-2"})

	hash1 := hex.EncodeToString(Hash(bytes1))
	hash2 := hex.EncodeToString(Hash(bytes2))

	if hash1 == hash2 {
		t.Error("different payloads must produce different hashes")
	}
}

func TestHash_DifferentKeys(t *testing.T) {
	payloadBytes, _ := json.Marshal(models.PushRequest{DataType: models.DataTypePreferences, Envelope: "blob"})

	InitHasherPool("key-one")
	hash1 := hex.EncodeToString(Hash(payloadBytes))

	InitHasherPool("key-two")
	hash2 := hex.EncodeToString(Hash(payloadBytes))

	if hash1 == hash2 {
		t.Error("different keys must produce different hashes for the same payload")
	}
}

func TestHashString_MatchesManualComputation(t *testing.T) {
	got := HashString("login-password", testHashKey)

	mac := hmac.New(sha256.New, []byte(testHashKey))
	mac.Write([]byte("login-password"))
	want := hex.EncodeToString(mac.Sum(nil))

	if got != want {
		t.Errorf("HashString mismatch:\n  got:  %s\n  want: %s", got, want)
	}
}
