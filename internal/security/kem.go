package security

import (
	"github.com/auradb/aura/internal/aerr"
	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"
)

// Fixed wire sizes for Kyber-1024 (ML-KEM-1024): the public key and the
// encapsulated ciphertext are both 1568 bytes; the shared secret is 32
// bytes. These are asserted against the scheme's own reported sizes in
// init so a dependency upgrade that changes them fails loudly.
const (
	PublicKeySize    = 1568
	CiphertextSize   = 1568
	SharedSecretSize = 32
)

func init() {
	scheme := kyber1024.Scheme()
	if scheme.PublicKeySize() != PublicKeySize ||
		scheme.CiphertextSize() != CiphertextSize ||
		scheme.SharedKeySize() != SharedSecretSize {
		panic("security: kyber1024 scheme sizes no longer match the wire contract")
	}
}

// KeyPair is an ephemeral Kyber-1024 identity used for one handshake.
type KeyPair struct {
	Public  kem.PublicKey
	Private kem.PrivateKey
}

// GenerateKeyPair creates a fresh Kyber-1024 keypair from the system CSPRNG.
func GenerateKeyPair() (*KeyPair, error) {
	pk, sk, err := kyber1024.Scheme().GenerateKeyPair()
	if err != nil {
		return nil, &aerr.Crypto{Reason: "kem keypair generation failed: " + err.Error()}
	}
	return &KeyPair{Public: pk, Private: sk}, nil
}

// PublicKeyBytes returns the fixed PublicKeySize-byte wire encoding of the
// keypair's public half.
func (kp *KeyPair) PublicKeyBytes() ([]byte, error) {
	b, err := kp.Public.MarshalBinary()
	if err != nil {
		return nil, &aerr.Crypto{Reason: "marshal public key: " + err.Error()}
	}
	return b, nil
}

// Encapsulate consumes a peer's PublicKeySize-byte public key and produces a
// shared secret together with the CiphertextSize-byte ciphertext that
// encapsulates it for that peer.
func Encapsulate(pkBytes []byte) (sharedSecret, ciphertext []byte, err error) {
	if len(pkBytes) != PublicKeySize {
		return nil, nil, &aerr.Crypto{Reason: "public key has wrong length"}
	}
	scheme := kyber1024.Scheme()
	pk, err := scheme.UnmarshalBinaryPublicKey(pkBytes)
	if err != nil {
		return nil, nil, &aerr.Crypto{Reason: "malformed public key: " + err.Error()}
	}
	ct, ss, err := scheme.Encapsulate(pk)
	if err != nil {
		return nil, nil, &aerr.Crypto{Reason: "encapsulate failed: " + err.Error()}
	}
	return ss, ct, nil
}

// Decapsulate recovers the shared secret from a CiphertextSize-byte
// ciphertext using the holder's private key.
func Decapsulate(ciphertext []byte, sk kem.PrivateKey) ([]byte, error) {
	if len(ciphertext) != CiphertextSize {
		return nil, &aerr.Crypto{Reason: "ciphertext has wrong length"}
	}
	ss, err := kyber1024.Scheme().Decapsulate(sk, ciphertext)
	if err != nil {
		return nil, &aerr.Crypto{Reason: "decapsulate failed: " + err.Error()}
	}
	return ss, nil
}
