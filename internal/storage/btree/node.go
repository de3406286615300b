// Package btree implements AuraDB's on-disk B-tree index: an order-51
// tree (at most 50 keys per node) that preemptively splits full nodes on
// the way down during insertion, rather than splitting after the fact on
// the way back up.
package btree

import (
	"encoding/binary"

	"github.com/auradb/aura/internal/aerr"
)

// Order is the tree's branching factor: an internal node may hold up to
// Order-1 keys and Order children.
const Order = 51

// MaxKeys is the largest number of keys a single node may hold before it
// must be split.
const MaxKeys = Order - 1 // 50

// NoParent marks a node with no parent, i.e. the current root.
const NoParent uint32 = 0xFFFFFFFF

// Kind distinguishes a leaf node (no children, keys map directly to
// document page ids) from an internal node (keys are separators, children
// are subtree page ids).
type Kind uint8

const (
	KindLeaf     Kind = 1
	KindInternal Kind = 2
)

// Node is one B-tree node. Keys are document primary keys sorted
// ascending. For a leaf, Values[i] is the document page id for Keys[i].
// For an internal node, Children[i] is the subtree containing keys less
// than Keys[i], and Children[len(Keys)] is the subtree for keys greater
// than or equal to the last separator.
type Node struct {
	ID       uint32
	Parent   uint32
	Kind     Kind
	Keys     []string
	Values   []uint32 // leaf only, parallel to Keys
	Children []uint32 // internal only, len(Children) == len(Keys)+1
}

// NewLeaf returns an empty leaf node with the given page id.
func NewLeaf(id uint32) *Node {
	return &Node{ID: id, Parent: NoParent, Kind: KindLeaf}
}

// NewInternal returns an empty internal node with the given page id.
func NewInternal(id uint32) *Node {
	return &Node{ID: id, Parent: NoParent, Kind: KindInternal}
}

// IsFull reports whether the node already holds MaxKeys keys and must be
// split before another key can be inserted into it.
func (n *Node) IsFull() bool {
	return len(n.Keys) >= MaxKeys
}

// insertionIndex returns the position key would occupy in a leaf's Keys if
// inserted: the first index whose key is already >= the target, so an
// exact match lands on its existing slot instead of past it.
func (n *Node) insertionIndex(key string) int {
	i := 0
	for i < len(n.Keys) && n.Keys[i] < key {
		i++
	}
	return i
}

// childIndex returns which Children slot to descend into for key on an
// internal node: the number of separator keys not exceeding key. A key
// equal to a separator belongs to the subtree to its right, since a
// promoted separator is never itself stored again further up the tree.
func (n *Node) childIndex(key string) int {
	i := 0
	for i < len(n.Keys) && n.Keys[i] <= key {
		i++
	}
	return i
}

// ───────────────────────────────────────────────────────────────────────────
// Encoding
// ───────────────────────────────────────────────────────────────────────────

// Encode serializes the node to a self-describing byte slice suitable for
// storing as a page payload.
func (n *Node) Encode() []byte {
	buf := make([]byte, 0, 256)
	buf = appendUint32(buf, n.Parent)
	buf = append(buf, byte(n.Kind))
	buf = appendUint32(buf, uint32(len(n.Keys)))
	for _, k := range n.Keys {
		buf = appendString(buf, k)
	}
	switch n.Kind {
	case KindLeaf:
		for _, v := range n.Values {
			buf = appendUint32(buf, v)
		}
	case KindInternal:
		for _, c := range n.Children {
			buf = appendUint32(buf, c)
		}
	}
	return buf
}

// Decode parses a node image produced by Encode. id is the page id the
// caller read the image from (not carried in the encoding itself, since
// it is already known to the pager).
func Decode(id uint32, buf []byte) (*Node, error) {
	n := &Node{ID: id}

	parent, off, err := readUint32(buf, 0)
	if err != nil {
		return nil, err
	}
	n.Parent = parent

	if off >= len(buf) {
		return nil, &aerr.Serialization{Reason: "truncated node: missing kind"}
	}
	n.Kind = Kind(buf[off])
	off++

	keyCount, off, err := readUint32(buf, off)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, keyCount)
	for i := uint32(0); i < keyCount; i++ {
		var s string
		s, off, err = readString(buf, off)
		if err != nil {
			return nil, err
		}
		keys = append(keys, s)
	}
	n.Keys = keys

	switch n.Kind {
	case KindLeaf:
		values := make([]uint32, 0, keyCount)
		for i := uint32(0); i < keyCount; i++ {
			var v uint32
			v, off, err = readUint32(buf, off)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		n.Values = values
	case KindInternal:
		children := make([]uint32, 0, keyCount+1)
		for i := uint32(0); i < keyCount+1; i++ {
			var c uint32
			c, off, err = readUint32(buf, off)
			if err != nil {
				return nil, err
			}
			children = append(children, c)
		}
		n.Children = children
	default:
		return nil, &aerr.Serialization{Reason: "unknown node kind tag"}
	}

	return n, nil
}

func appendUint32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendString(buf []byte, s string) []byte {
	buf = appendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

func readUint32(buf []byte, off int) (uint32, int, error) {
	if off+4 > len(buf) {
		return 0, 0, &aerr.Serialization{Reason: "truncated node: missing uint32 field"}
	}
	return binary.LittleEndian.Uint32(buf[off : off+4]), off + 4, nil
}

func readString(buf []byte, off int) (string, int, error) {
	n, next, err := readUint32(buf, off)
	if err != nil {
		return "", 0, err
	}
	if next+int(n) > len(buf) {
		return "", 0, &aerr.Serialization{Reason: "truncated node: missing key bytes"}
	}
	return string(buf[next : next+int(n)]), next + int(n), nil
}
