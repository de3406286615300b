// Package session implements AuraDB's network protocol: a post-quantum
// KEM handshake followed by a length-framed channel in which every frame
// is sealed with the AEAD key the handshake just negotiated.
package session

import (
	"io"

	"github.com/auradb/aura/internal/aerr"
	"github.com/auradb/aura/internal/security"
)

// ServerHandshake runs the server side of the session establishment over
// conn: generate an ephemeral Kyber-1024 keypair, send its public key,
// read back the client's encapsulation, and decapsulate to recover the
// shared secret used as the channel's AEAD key.
func ServerHandshake(rw io.ReadWriter) (sessionKey []byte, err error) {
	kp, err := security.GenerateKeyPair()
	if err != nil {
		return nil, err
	}

	pubBytes, err := kp.PublicKeyBytes()
	if err != nil {
		return nil, err
	}
	if _, err := rw.Write(pubBytes); err != nil {
		return nil, aerr.Wrap("write handshake public key", err)
	}

	ciphertext := make([]byte, security.CiphertextSize)
	if _, err := io.ReadFull(rw, ciphertext); err != nil {
		return nil, aerr.Wrap("read handshake ciphertext", err)
	}

	sharedSecret, err := security.Decapsulate(ciphertext, kp.Private)
	if err != nil {
		return nil, err
	}
	return sharedSecret, nil
}

// ClientHandshake runs the client side: read the server's public key,
// encapsulate a fresh shared secret against it, send back the resulting
// ciphertext, and return the shared secret as the channel's AEAD key.
func ClientHandshake(rw io.ReadWriter) (sessionKey []byte, err error) {
	pubBytes := make([]byte, security.PublicKeySize)
	if _, err := io.ReadFull(rw, pubBytes); err != nil {
		return nil, aerr.Wrap("read handshake public key", err)
	}

	sharedSecret, ciphertext, err := security.Encapsulate(pubBytes)
	if err != nil {
		return nil, err
	}

	if _, err := rw.Write(ciphertext); err != nil {
		return nil, aerr.Wrap("write handshake ciphertext", err)
	}
	return sharedSecret, nil
}
