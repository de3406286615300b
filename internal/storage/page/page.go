// Package page implements AuraDB's fixed-size page image: the unit of data
// that the pager reads, writes, and encrypts as a whole.
package page

import (
	"encoding/binary"

	"github.com/auradb/aura/internal/aerr"
)

// ───────────────────────────────────────────────────────────────────────────
// Layout
// ───────────────────────────────────────────────────────────────────────────

const (
	// Size is the total plaintext size of one page image in bytes.
	Size = 4096

	// headerSize is id(4) + kind(1) + usedSpace(2) + nextPage(4) + reserved(88).
	headerSize = 4 + 1 + 2 + 4 + 88

	// DataSize is the number of payload bytes available to callers once the
	// fixed header is accounted for.
	DataSize = Size - headerSize // 3997
)

// Kind identifies what a page's payload holds.
type Kind uint8

const (
	KindData  Kind = 1
	KindIndex Kind = 2
)

// Page is one fixed-size page image. Data is always exactly DataSize bytes;
// UsedSpace records how much of it is meaningful.
type Page struct {
	ID        uint32
	Kind      Kind
	UsedSpace uint16
	NextPage  uint32
	Data      [DataSize]byte
}

// New allocates a zeroed page of the given id and kind.
func New(id uint32, kind Kind) *Page {
	return &Page{ID: id, Kind: kind}
}

// SetPayload copies payload into the page's data area and records its
// length. Returns a Serialization error if payload exceeds DataSize.
func (p *Page) SetPayload(payload []byte) error {
	if len(payload) > DataSize {
		return &aerr.Serialization{Reason: "page payload exceeds 3997 bytes"}
	}
	var zero [DataSize]byte
	p.Data = zero
	copy(p.Data[:], payload)
	p.UsedSpace = uint16(len(payload))
	return nil
}

// Payload returns the meaningful prefix of the page's data area.
func (p *Page) Payload() []byte {
	return p.Data[:p.UsedSpace]
}

// Encode writes the byte-exact little-endian page image (Size bytes total).
func (p *Page) Encode() []byte {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint32(buf[0:4], p.ID)
	buf[4] = byte(p.Kind)
	binary.LittleEndian.PutUint16(buf[5:7], p.UsedSpace)
	binary.LittleEndian.PutUint32(buf[7:11], p.NextPage)
	// bytes [11:99) are the 88-byte reserved region, left zeroed.
	copy(buf[headerSize:], p.Data[:])
	return buf
}

// Decode parses a Size-byte page image produced by Encode.
func Decode(buf []byte) (*Page, error) {
	if len(buf) != Size {
		return nil, &aerr.Serialization{Reason: "page image is not exactly 4096 bytes"}
	}
	p := &Page{
		ID:        binary.LittleEndian.Uint32(buf[0:4]),
		Kind:      Kind(buf[4]),
		UsedSpace: binary.LittleEndian.Uint16(buf[5:7]),
		NextPage:  binary.LittleEndian.Uint32(buf[7:11]),
	}
	if int(p.UsedSpace) > DataSize {
		return nil, &aerr.Serialization{Reason: "page used_space exceeds payload capacity"}
	}
	copy(p.Data[:], buf[headerSize:])
	return p, nil
}
