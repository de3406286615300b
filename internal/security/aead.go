// Package security implements the two cryptographic primitives AuraDB is
// built on: a symmetric AEAD for page- and channel-level confidentiality,
// and a post-quantum KEM for session establishment.
package security

import (
	"crypto/rand"

	"github.com/auradb/aura/internal/aerr"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the length in bytes of a symmetric AEAD key.
const KeySize = chacha20poly1305.KeySize // 32

// NonceSize is the length in bytes of the random nonce prepended to every
// ciphertext. XChaCha20-Poly1305's extended 192-bit nonce makes random
// selection safe at the volume of nonces a long-lived page store generates
// under one key.
const NonceSize = chacha20poly1305.NonceSizeX // 24

// TagSize is the length in bytes of the Poly1305 authentication tag
// appended to every ciphertext.
const TagSize = chacha20poly1305.Overhead // 16

// GenerateKey returns a fresh random 256-bit AEAD key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, aerr.Wrap("generate aead key", err)
	}
	return key, nil
}

// Encrypt seals plaintext under key using XChaCha20-Poly1305 with a fresh
// random nonce. The returned slice is nonce ‖ ciphertext ‖ tag, of length
// NonceSize + len(plaintext) + TagSize.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, &aerr.Crypto{Reason: "invalid key length: " + err.Error()}
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, aerr.Wrap("generate nonce", err)
	}

	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plaintext, nil)
	return out, nil
}

// Decrypt verifies and opens a nonce ‖ ciphertext ‖ tag blob produced by
// Encrypt. Any bit flip in the nonce, ciphertext, or tag region causes this
// to fail with a Crypto error.
func Decrypt(input, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, &aerr.Crypto{Reason: "invalid key length: " + err.Error()}
	}

	if len(input) < aead.NonceSize()+aead.Overhead() {
		return nil, &aerr.Crypto{Reason: "ciphertext too short"}
	}

	nonce, sealed := input[:aead.NonceSize()], input[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, &aerr.Crypto{Reason: "authentication tag mismatch"}
	}
	return plaintext, nil
}
