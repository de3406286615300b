package document

import "sort"

// Document is a single record: a primary key, a version counter, and a
// flat map of named Values. Nesting lives inside Object/Array Values, not
// in Document itself.
type Document struct {
	ID      string
	Version uint64
	Data    map[string]Value
}

// New builds a Document at version 1, the state every freshly inserted
// row starts at.
func New(id string, data map[string]Value) Document {
	return Document{ID: id, Version: 1, Data: data}
}

// Equal reports whether two Documents have identical id, version, and data.
func (d Document) Equal(other Document) bool {
	if d.ID != other.ID || d.Version != other.Version {
		return false
	}
	if len(d.Data) != len(other.Data) {
		return false
	}
	for k, v := range d.Data {
		ov, ok := other.Data[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// ToBytes produces the self-describing binary encoding of the document:
// length-prefixed id, little-endian version, then field count followed by
// sorted key/value pairs. Field order is normalized so two documents with
// the same data always produce byte-identical output.
func (d Document) ToBytes() []byte {
	buf := make([]byte, 0, 128)
	buf = appendLenPrefixed(buf, []byte(d.ID))
	buf = appendUint64(buf, d.Version)

	keys := make([]string, 0, len(d.Data))
	for k := range d.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf = appendUint32(buf, uint32(len(keys)))
	for _, k := range keys {
		buf = appendLenPrefixed(buf, []byte(k))
		buf = encodeValue(buf, d.Data[k])
	}
	return buf
}

// FromBytes reverses ToBytes. It returns an *aerr.Serialization error on any
// truncated or malformed input.
func FromBytes(buf []byte) (Document, error) {
	idBytes, off, err := readLenPrefixed(buf, 0)
	if err != nil {
		return Document{}, err
	}
	version, off, err := readUint64(buf, off)
	if err != nil {
		return Document{}, err
	}
	fieldCount, off, err := readUint32(buf, off)
	if err != nil {
		return Document{}, err
	}

	data := make(map[string]Value, fieldCount)
	for i := uint32(0); i < fieldCount; i++ {
		keyBytes, next, err := readLenPrefixed(buf, off)
		if err != nil {
			return Document{}, err
		}
		off = next
		var v Value
		v, off, err = decodeValue(buf, off)
		if err != nil {
			return Document{}, err
		}
		data[string(keyBytes)] = v
	}

	return Document{ID: string(idBytes), Version: version, Data: data}, nil
}
