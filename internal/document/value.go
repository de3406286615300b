// Package document implements AuraDB's in-memory data model: the tagged
// union Value type and the Document record built from it, together with
// the binary encoding used to persist both to page storage.
package document

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/auradb/aura/internal/aerr"
)

// Kind identifies which variant of the Value tagged union is populated.
type Kind byte

const (
	KindNull Kind = iota
	KindBoolean
	KindInteger
	KindFloat
	KindText
	KindBinary
	KindEncrypted
	KindArray
	KindObject
)

// Value is a tagged union covering every shape a document field can take.
// Only the field matching Kind is meaningful; zero values elsewhere.
type Value struct {
	Kind    Kind
	Boolean bool
	Integer int64
	Float   float64
	Text    string
	Binary  []byte

	// Encrypted holds opaque ciphertext bytes. No arithmetic is defined over
	// this variant, and Equal only compares its bytes; it exists purely as a
	// placeholder for data a caller has already sealed out-of-band.
	Encrypted []byte

	Array  []Value
	Object map[string]Value
}

func Null() Value                { return Value{Kind: KindNull} }
func Bool(b bool) Value          { return Value{Kind: KindBoolean, Boolean: b} }
func Int(i int64) Value          { return Value{Kind: KindInteger, Integer: i} }
func Float64(f float64) Value    { return Value{Kind: KindFloat, Float: f} }
func Text(s string) Value        { return Value{Kind: KindText, Text: s} }
func Binary(b []byte) Value      { return Value{Kind: KindBinary, Binary: append([]byte(nil), b...)} }
func Encrypted(b []byte) Value   { return Value{Kind: KindEncrypted, Encrypted: append([]byte(nil), b...)} }
func Array(vs ...Value) Value    { return Value{Kind: KindArray, Array: vs} }
func Object(m map[string]Value) Value {
	return Value{Kind: KindObject, Object: m}
}

// Equal reports whether two Values are structurally identical, recursing
// into Array and Object variants.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBoolean:
		return v.Boolean == other.Boolean
	case KindInteger:
		return v.Integer == other.Integer
	case KindFloat:
		return v.Float == other.Float
	case KindText:
		return v.Text == other.Text
	case KindBinary:
		return bytesEqual(v.Binary, other.Binary)
	case KindEncrypted:
		return bytesEqual(v.Encrypted, other.Encrypted)
	case KindArray:
		if len(v.Array) != len(other.Array) {
			return false
		}
		for i := range v.Array {
			if !v.Array[i].Equal(other.Array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(v.Object) != len(other.Object) {
			return false
		}
		for k, lhs := range v.Object {
			rhs, ok := other.Object[k]
			if !ok || !lhs.Equal(rhs) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// encodeValue appends the self-describing encoding of v to buf and returns
// the extended buffer. Every variant starts with a one-byte Kind tag;
// variable-length payloads are prefixed with a uint32 length in the
// teacher's row_codec.go style.
func encodeValue(buf []byte, v Value) []byte {
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case KindNull:
		// no payload
	case KindBoolean:
		if v.Boolean {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindInteger:
		buf = appendUint64(buf, uint64(v.Integer))
	case KindFloat:
		buf = appendUint64(buf, floatBits(v.Float))
	case KindText:
		buf = appendLenPrefixed(buf, []byte(v.Text))
	case KindBinary:
		buf = appendLenPrefixed(buf, v.Binary)
	case KindEncrypted:
		buf = appendLenPrefixed(buf, v.Encrypted)
	case KindArray:
		buf = appendUint32(buf, uint32(len(v.Array)))
		for _, elem := range v.Array {
			buf = encodeValue(buf, elem)
		}
	case KindObject:
		keys := make([]string, 0, len(v.Object))
		for k := range v.Object {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = appendUint32(buf, uint32(len(keys)))
		for _, k := range keys {
			buf = appendLenPrefixed(buf, []byte(k))
			buf = encodeValue(buf, v.Object[k])
		}
	}
	return buf
}

// decodeValue reads one self-describing Value from buf starting at offset
// off, returning the value and the offset immediately past it.
func decodeValue(buf []byte, off int) (Value, int, error) {
	if off >= len(buf) {
		return Value{}, 0, &aerr.Serialization{Reason: "truncated value: missing kind tag"}
	}
	kind := Kind(buf[off])
	off++

	switch kind {
	case KindNull:
		return Value{Kind: KindNull}, off, nil
	case KindBoolean:
		if off >= len(buf) {
			return Value{}, 0, &aerr.Serialization{Reason: "truncated boolean"}
		}
		return Value{Kind: KindBoolean, Boolean: buf[off] != 0}, off + 1, nil
	case KindInteger:
		u, next, err := readUint64(buf, off)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindInteger, Integer: int64(u)}, next, nil
	case KindFloat:
		u, next, err := readUint64(buf, off)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindFloat, Float: bitsFloat(u)}, next, nil
	case KindText:
		b, next, err := readLenPrefixed(buf, off)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindText, Text: string(b)}, next, nil
	case KindBinary:
		b, next, err := readLenPrefixed(buf, off)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindBinary, Binary: b}, next, nil
	case KindEncrypted:
		b, next, err := readLenPrefixed(buf, off)
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindEncrypted, Encrypted: b}, next, nil
	case KindArray:
		n, next, err := readUint32(buf, off)
		if err != nil {
			return Value{}, 0, err
		}
		off = next
		elems := make([]Value, 0, n)
		for i := uint32(0); i < n; i++ {
			var elem Value
			elem, off, err = decodeValue(buf, off)
			if err != nil {
				return Value{}, 0, err
			}
			elems = append(elems, elem)
		}
		return Value{Kind: KindArray, Array: elems}, off, nil
	case KindObject:
		n, next, err := readUint32(buf, off)
		if err != nil {
			return Value{}, 0, err
		}
		off = next
		obj := make(map[string]Value, n)
		for i := uint32(0); i < n; i++ {
			keyBytes, afterKey, err := readLenPrefixed(buf, off)
			if err != nil {
				return Value{}, 0, err
			}
			off = afterKey
			var val Value
			val, off, err = decodeValue(buf, off)
			if err != nil {
				return Value{}, 0, err
			}
			obj[string(keyBytes)] = val
		}
		return Value{Kind: KindObject, Object: obj}, off, nil
	default:
		return Value{}, 0, &aerr.Serialization{Reason: fmt.Sprintf("unknown value kind tag %d", kind)}
	}
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendLenPrefixed(buf, payload []byte) []byte {
	buf = appendUint32(buf, uint32(len(payload)))
	return append(buf, payload...)
}

func readUint32(buf []byte, off int) (uint32, int, error) {
	if off+4 > len(buf) {
		return 0, 0, &aerr.Serialization{Reason: "truncated uint32"}
	}
	return binary.LittleEndian.Uint32(buf[off : off+4]), off + 4, nil
}

func readUint64(buf []byte, off int) (uint64, int, error) {
	if off+8 > len(buf) {
		return 0, 0, &aerr.Serialization{Reason: "truncated uint64"}
	}
	return binary.LittleEndian.Uint64(buf[off : off+8]), off + 8, nil
}

func readLenPrefixed(buf []byte, off int) ([]byte, int, error) {
	n, next, err := readUint32(buf, off)
	if err != nil {
		return nil, 0, err
	}
	if next+int(n) > len(buf) {
		return nil, 0, &aerr.Serialization{Reason: "truncated length-prefixed payload"}
	}
	out := append([]byte(nil), buf[next:next+int(n)]...)
	return out, next + int(n), nil
}

func floatBits(f float64) uint64 {
	return math.Float64bits(f)
}

func bitsFloat(u uint64) float64 {
	return math.Float64frombits(u)
}
