package crypto

// EnvelopeService owns all client-side cryptography. It knows nothing about
// the network, the database, or users; its single job is to turn plaintext
// payloads into opaque envelopes and back.
//
// Scheme:
//
//	key      = DeriveKey(masterSecret, salt)      per operation, never cached
//	envelope = Encrypt(payload, key)              stored/transmitted
//	payload  = Decrypt(envelope, key, &target)    fails on wrong key
//
// The master secret is supplied by the caller for each operation and must not
// outlive it. The salt is not a secret — it is stored alongside the local
// state so the same secret always derives the same key on every device.
type EnvelopeService interface {
	// GenerateSalt returns a random 16-byte salt for key derivation.
	GenerateSalt() ([]byte, error)

	// DeriveKey derives a 256-bit encryption key from the user-held master
	// secret and salt via Argon2id. The key exists only in client memory and
	// is never transmitted to the server.
	DeriveKey(masterSecret string, salt []byte) []byte

	// Encrypt serializes payload to JSON and encrypts it with key using
	// AES-256-GCM. Returns a base64-encoded blob (nonce || ciphertext) safe
	// to store on the server.
	Encrypt(payload any, key []byte) (string, error)

	// Decrypt decrypts a base64-encoded blob with key and unmarshals the
	// result into target (same contract as json.Unmarshal). A wrong key or a
	// corrupted blob returns an error wrapping ErrDecryptionFailed — never a
	// zero-valued target.
	Decrypt(envelope string, key []byte, target any) error
}
