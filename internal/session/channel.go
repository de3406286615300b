package session

import (
	"encoding/binary"
	"io"

	"github.com/auradb/aura/internal/aerr"
	"github.com/auradb/aura/internal/security"
)

// MaxFrameSize bounds a single frame's sealed payload, guarding against a
// peer claiming an unreasonable length prefix and forcing an enormous
// allocation.
const MaxFrameSize = 16 * 1024 * 1024

// Channel wraps a connection with the session's negotiated AEAD key,
// applying 4-byte big-endian length framing around every sealed message.
// This closes the gap the original protocol left open, where the
// handshake negotiated a key that nothing afterward ever used.
type Channel struct {
	rw  io.ReadWriter
	key []byte
}

// NewChannel wraps rw with sessionKey, the shared secret produced by
// ServerHandshake or ClientHandshake.
func NewChannel(rw io.ReadWriter, sessionKey []byte) *Channel {
	return &Channel{rw: rw, key: sessionKey}
}

// Send seals payload under the session key and writes it as one
// length-prefixed frame.
func (c *Channel) Send(payload []byte) error {
	sealed, err := security.Encrypt(payload, c.key)
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(sealed)))
	if _, err := c.rw.Write(lenBuf[:]); err != nil {
		return aerr.Wrap("write frame length", err)
	}
	if _, err := c.rw.Write(sealed); err != nil {
		return aerr.Wrap("write frame body", err)
	}
	return nil
}

// Receive reads one length-prefixed frame and opens it under the session
// key.
func (c *Channel) Receive() ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(c.rw, lenBuf[:]); err != nil {
		return nil, aerr.Wrap("read frame length", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, &aerr.Serialization{Reason: "frame exceeds maximum size"}
	}

	sealed := make([]byte, n)
	if _, err := io.ReadFull(c.rw, sealed); err != nil {
		return nil, aerr.Wrap("read frame body", err)
	}

	plaintext, err := security.Decrypt(sealed, c.key)
	if err != nil {
		return nil, err
	}
	return plaintext, nil
}
