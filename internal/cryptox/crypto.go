// Package cryptox implements the key derivation and symmetric encryption
// primitives behind the encrypted journal store and the sync blob.
//
// Two keys exist per unlocked session, both derived from the same password:
//
//   - the local key, derived with a random per-installation salt, protects
//     record payloads at rest;
//   - the sync key, derived with a fixed salt, protects the remote snapshot
//     blob. The fixed salt is what lets every device reach the same sync key
//     from the same password without a key-exchange step.
//
// Neither key is ever written to disk.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mateotomas2/ai-journaling-sub001/internal/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// DefaultIterations is the PBKDF2 iteration count for newly derived keys.
	DefaultIterations = 310_000

	// LegacyIterations supported keys derived before the iteration bump.
	// Only used as a fallback when a stored record predates the persisted
	// iteration-count field.
	LegacyIterations = 100_000

	// SaltSize is the size of a per-installation salt in bytes.
	SaltSize = 16

	// KeySize is the derived key size in bytes (AES-256).
	KeySize = 32

	nonceSize = 12
)

// syncSalt is the fixed salt for sync-key derivation. It is deliberately
// public: secrecy comes from the iteration count and from the remote blob
// sitting behind an OAuth-gated private store.
var syncSalt = []byte{
	0x6a, 0x72, 0x6e, 0x6c, 0x2d, 0x73, 0x79, 0x6e,
	0x63, 0x2d, 0x76, 0x31, 0x00, 0x00, 0x00, 0x01,
}

var ErrMalformedBlob = errors.New("malformed encrypted blob")

// DeriveKey derives a KeySize-byte key from the password using
// PBKDF2-SHA256. Deterministic: same inputs always produce the same key.
func DeriveKey(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
}

// DeriveSyncKey derives the cross-device sync key using the fixed salt.
func DeriveSyncKey(password []byte, iterations int) []byte {
	return DeriveKey(password, syncSalt, iterations)
}

// GenerateSalt returns a fresh random per-installation salt. The salt is
// not secret and is persisted in plaintext next to the iteration count.
func GenerateSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// KeyID returns a short cleartext fingerprint of a key: the first 8 bytes
// of SHA-256(key), hex-encoded. It lets the sync engine tell "blob sealed
// under a different password" apart from "blob corrupted" without ever
// exposing key material.
func KeyID(key []byte) string {
	sum := sha256.Sum256(key)
	return hex.EncodeToString(sum[:8])
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// SealBlob encrypts plaintext with AES-GCM and returns
// base64(nonce ‖ ciphertext). This is the wire form of the sync blob.
func SealBlob(plaintext, key []byte) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := common.GenerateRandByteArray(nonceSize)
	ct := aead.Seal(nil, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(append(nonce, ct...)), nil
}

// OpenBlob reverses SealBlob. A wrong key or a damaged blob returns an
// error; it never yields wrong plaintext (GCM authenticates).
func OpenBlob(encoded string, key []byte) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedBlob, err)
	}
	if len(raw) < nonceSize {
		return nil, ErrMalformedBlob
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
}

// SealRecord serializes v to JSON and encrypts it with AES-GCM. The
// ciphertext and the random nonce are returned separately; the store keeps
// them in adjacent columns.
func SealRecord(v any, key []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}
	nonce = common.GenerateRandByteArray(nonceSize)
	ciphertext = aead.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// OpenRecord decrypts a SealRecord payload and unmarshals it into v.
func OpenRecord(ciphertext, nonce, key []byte, v any) error {
	aead, err := newGCM(key)
	if err != nil {
		return err
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(plaintext, v)
}
