// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

// ErrDecryptionFailed marks a failed envelope decryption: wrong master secret
// or corrupted ciphertext. It is distinct from transport errors so callers
// never mistake it for "no data".
var ErrDecryptionFailed = errors.New("envelope decryption failed")

// envelopeService is the private implementation of [EnvelopeService].
type envelopeService struct {
	// Argon2id tuning parameters. Stored in the struct so they can be
	// adjusted per deployment target (e.g. mobile vs. desktop).
	argonTime    uint32
	argonMemory  uint32
	argonThreads uint8
	argonKeyLen  uint32
}

// NewEnvelopeService constructs an [EnvelopeService] with the Argon2id
// parameters recommended by OWASP (2024):
//   - time cost:   1 iteration
//   - memory cost: 64 MiB
//   - parallelism: 4 threads
//   - key length:  32 bytes (256 bits)
func NewEnvelopeService() EnvelopeService {
	return &envelopeService{
		argonTime:    1,
		argonMemory:  64 * 1024, // 64 MiB
		argonThreads: 4,
		argonKeyLen:  32, // 256 bits
	}
}

// GenerateSalt implements [EnvelopeService]. It reads 16 random bytes from
// the OS CSPRNG. Returns an error if the random read fails.
func (e *envelopeService) GenerateSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// DeriveKey implements [EnvelopeService]. It derives a 256-bit key from
// masterSecret and salt using Argon2id with the parameters stored in the
// receiver. The result exists only in client memory and is never transmitted
// to the server.
func (e *envelopeService) DeriveKey(masterSecret string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(masterSecret),
		salt,
		e.argonTime,
		e.argonMemory,
		e.argonThreads,
		e.argonKeyLen,
	)
}

// Encrypt implements [EnvelopeService]. It marshals payload to JSON, then
// encrypts it with key using AES-256-GCM. The output is a Base64 (standard
// encoding) string of the blob: nonce (12 bytes) ‖ ciphertext. Returns an
// error if marshalling, cipher creation, or nonce generation fails.
func (e *envelopeService) Encrypt(payload any, key []byte) (string, error) {
	// 1. Serialize to JSON
	plaintext, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	// 2. Build AES-GCM cipher from the derived key
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("create gcm: %w", err)
	}

	// 3. Generate a random nonce
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	// 4. Encrypt: nonce || ciphertext
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)
	blob := append(nonce, ciphertext...)

	return base64.StdEncoding.EncodeToString(blob), nil
}

// Decrypt implements [EnvelopeService]. It Base64-decodes envelope, splits
// out the nonce, decrypts the ciphertext with key via AES-256-GCM, and
// unmarshals the resulting JSON into target. target must be a non-nil
// pointer, identical to the requirement of [encoding/json.Unmarshal].
//
// A wrong key or tampered ciphertext fails the GCM authentication tag and
// returns an error wrapping [ErrDecryptionFailed]; a malformed blob (bad
// base64, too short) is reported the same way so callers have a single
// sentinel for "this envelope cannot be opened".
func (e *envelopeService) Decrypt(envelope string, key []byte, target any) error {
	// 1. Decode base64 blob
	blob, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return fmt.Errorf("%w: decode base64: %v", ErrDecryptionFailed, err)
	}

	// 2. Build AES-GCM cipher from the derived key
	block, err := aes.NewCipher(key)
	if err != nil {
		return fmt.Errorf("create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("create gcm: %w", err)
	}

	// 3. Split nonce and ciphertext
	nonceSize := gcm.NonceSize()
	if len(blob) < nonceSize {
		return fmt.Errorf("%w: ciphertext too short", ErrDecryptionFailed)
	}
	nonce, ciphertext := blob[:nonceSize], blob[nonceSize:]

	// 4. Decrypt and verify auth tag. An error here almost always means the
	// user entered the wrong master secret.
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	// 5. Unmarshal JSON into target
	if err := json.Unmarshal(plaintext, target); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	return nil
}
