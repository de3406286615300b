// Package index implements AuraDB's primary index: a text-key to page-id
// map persisted on the reserved index page, kept separate from the B-tree
// as spec.md's component table describes it.
package index

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/auradb/aura/internal/aerr"
	"github.com/auradb/aura/internal/storage/page"
)

// pagerLike is the subset of *pager.Pager that Sync/Load need. Defined
// here, rather than imported, so this package does not depend on pager
// (pager depends on page and security only; index sits above it).
type pagerLike interface {
	WritePage(pg *page.Page) error
	ReadPage(id uint32) (*page.Page, error)
}

// PrimaryIndex maps a document's primary key to the page id its row is
// stored in.
type PrimaryIndex struct {
	mu    sync.RWMutex
	byKey map[string]uint32
	dirty bool
}

// New returns an empty primary index.
func New() *PrimaryIndex {
	return &PrimaryIndex{byKey: make(map[string]uint32)}
}

// Insert records that key lives at pageID, marking the index dirty so the
// next Sync call persists the change.
func (idx *PrimaryIndex) Insert(key string, pageID uint32) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.byKey[key] = pageID
	idx.dirty = true
}

// Get looks up key, returning false if it is absent.
func (idx *PrimaryIndex) Get(key string) (uint32, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	id, ok := idx.byKey[key]
	return id, ok
}

// Dirty reports whether the index has unpersisted changes.
func (idx *PrimaryIndex) Dirty() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dirty
}

// ClearDirty marks the index as persisted. Called by Sync after the index
// page has been written successfully.
func (idx *PrimaryIndex) ClearDirty() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.dirty = false
}

// ToBytes serializes the index deterministically: a uint32 entry count
// followed by length-prefixed key / uint32 page-id pairs in sorted key
// order. Callers are responsible for checking the result fits within one
// page's payload before writing it.
func (idx *PrimaryIndex) ToBytes() []byte {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := make([]string, 0, len(idx.byKey))
	for k := range idx.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := make([]byte, 4, 64)
	binary.LittleEndian.PutUint32(buf, uint32(len(keys)))
	for _, k := range keys {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(k)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, k...)
		var idBuf [4]byte
		binary.LittleEndian.PutUint32(idBuf[:], idx.byKey[k])
		buf = append(buf, idBuf[:]...)
	}
	return buf
}

// indexPageID is the page reserved for the primary index's persisted
// image. Mirrors pager.IndexPageID without importing the pager package.
const indexPageID uint32 = 0

// Sync writes the index's current contents to the reserved index page if
// dirty, then clears the dirty flag. A no-op when nothing has changed
// since the last sync.
func (idx *PrimaryIndex) Sync(p pagerLike) error {
	if !idx.Dirty() {
		return nil
	}

	encoded := idx.ToBytes()
	if len(encoded) > page.DataSize {
		return &aerr.Serialization{Reason: "primary index no longer fits in one page"}
	}

	pg := page.New(indexPageID, page.KindIndex)
	if err := pg.SetPayload(encoded); err != nil {
		return err
	}
	if err := p.WritePage(pg); err != nil {
		return err
	}
	idx.ClearDirty()
	return nil
}

// Load reads the reserved index page from p and rebuilds a PrimaryIndex
// from it. Any failure to recover the persisted image — a read error such
// as tampering, a page kind other than KindIndex, or a corrupt encoding —
// degrades to an empty index rather than failing the open. Load never
// writes to p, so a tampered page 0 is left exactly as it was found.
func Load(p pagerLike) (*PrimaryIndex, error) {
	pg, err := p.ReadPage(indexPageID)
	if err != nil {
		return New(), nil
	}
	if pg.Kind != page.KindIndex {
		return New(), nil
	}
	if pg.UsedSpace == 0 {
		return New(), nil
	}
	idx, err := FromBytes(pg.Payload())
	if err != nil {
		return New(), nil
	}
	return idx, nil
}

// FromBytes rebuilds a PrimaryIndex from the encoding produced by ToBytes.
func FromBytes(buf []byte) (*PrimaryIndex, error) {
	if len(buf) < 4 {
		return nil, &aerr.Serialization{Reason: "truncated index: missing entry count"}
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	off := 4

	byKey := make(map[string]uint32, count)
	for i := uint32(0); i < count; i++ {
		if off+4 > len(buf) {
			return nil, &aerr.Serialization{Reason: "truncated index: missing key length"}
		}
		keyLen := int(binary.LittleEndian.Uint32(buf[off : off+4]))
		off += 4
		if off+keyLen+4 > len(buf) {
			return nil, &aerr.Serialization{Reason: "truncated index: missing key or page id"}
		}
		key := string(buf[off : off+keyLen])
		off += keyLen
		pageID := binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
		byKey[key] = pageID
	}

	return &PrimaryIndex{byKey: byKey}, nil
}
