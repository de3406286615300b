// Package pager implements AuraDB's encrypted page store: every page is
// sealed with the symmetric AEAD before it touches disk and verified on
// every read. Unlike a general-purpose storage engine, there is no WAL, no
// buffer pool, and no multi-page transaction support — each page write is
// independently atomic and that is the only durability guarantee offered.
package pager

import (
	"os"
	"sync"

	"github.com/auradb/aura/internal/aerr"
	"github.com/auradb/aura/internal/security"
	"github.com/auradb/aura/internal/storage/page"
)

// EncryptedPageSize is the on-disk footprint of one page: the plaintext
// page image plus the AEAD nonce and tag.
const EncryptedPageSize = page.Size + security.NonceSize + security.TagSize

// IndexPageID is the fixed page reserved for the primary index's persisted
// image; the B-tree and document pages never get this id from AllocatePage.
const IndexPageID uint32 = 0

// BTreeRootPointerPageID is the fixed page reserved for the B-tree
// manager's root pointer: a single uint32 naming which page currently
// holds the root node, so the root survives across a reopen of the file.
const BTreeRootPointerPageID uint32 = 1

// Pager owns a single database file and the master key used to seal every
// page written to it. All methods are safe for concurrent use.
type Pager struct {
	mu         sync.Mutex
	file       *os.File
	masterKey  []byte
	totalPages uint32
}

// Open opens (creating if necessary) the database file at path and derives
// the current page count from its size. masterKey must be
// security.KeySize bytes.
func Open(path string, masterKey []byte) (*Pager, error) {
	if len(masterKey) != security.KeySize {
		return nil, &aerr.Crypto{Reason: "master key has wrong length"}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, aerr.Wrap("open database file", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, aerr.Wrap("stat database file", err)
	}

	total := uint32(info.Size() / EncryptedPageSize)

	p := &Pager{
		file:       f,
		masterKey:  masterKey,
		totalPages: total,
	}

	if total == 0 {
		// Pages 0 and 1 are always reserved for the primary index image
		// and the B-tree root pointer, even before either has real
		// content.
		if err := p.writePageLocked(page.New(IndexPageID, page.KindIndex)); err != nil {
			f.Close()
			return nil, err
		}
		if err := p.writePageLocked(page.New(BTreeRootPointerPageID, page.KindIndex)); err != nil {
			f.Close()
			return nil, err
		}
	}

	return p, nil
}

// Close releases the underlying file handle.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return aerr.Wrap("close database file", p.file.Close())
}

// TotalPages reports how many pages currently exist in the file.
func (p *Pager) TotalPages() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.totalPages
}

// AllocatePage reserves and returns the id of a fresh page beyond the
// current end of the file. The page is not written until the caller calls
// WritePage with it. Open always reserves pages 0 and 1 up front, so the
// first allocation here never collides with them.
func (p *Pager) AllocatePage() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.totalPages
	p.totalPages = id + 1
	return id
}

// WritePage seals pg's image under the master key and writes it at its
// page-id's offset, extending the file if necessary.
func (p *Pager) WritePage(pg *page.Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writePageLocked(pg)
}

func (p *Pager) writePageLocked(pg *page.Page) error {
	plaintext := pg.Encode()
	ciphertext, err := security.Encrypt(plaintext, p.masterKey)
	if err != nil {
		return err
	}
	if len(ciphertext) != EncryptedPageSize {
		return &aerr.Serialization{Reason: "encrypted page has unexpected size"}
	}

	offset := int64(pg.ID) * EncryptedPageSize
	if _, err := p.file.WriteAt(ciphertext, offset); err != nil {
		return aerr.Wrap("write page", err)
	}
	if pg.ID >= p.totalPages {
		p.totalPages = pg.ID + 1
	}
	return nil
}

// ReadPage reads, verifies, and decodes the page at id. Returns
// *aerr.PageNotFound if id is not below the current page count, or
// *aerr.Tampered if the AEAD check fails.
func (p *Pager) ReadPage(id uint32) (*page.Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if id >= p.totalPages {
		return nil, &aerr.PageNotFound{ID: id}
	}

	ciphertext := make([]byte, EncryptedPageSize)
	offset := int64(id) * EncryptedPageSize
	if _, err := p.file.ReadAt(ciphertext, offset); err != nil {
		return nil, aerr.Wrap("read page", err)
	}

	plaintext, err := security.Decrypt(ciphertext, p.masterKey)
	if err != nil {
		return nil, &aerr.Tampered{ID: id}
	}

	pg, err := page.Decode(plaintext)
	if err != nil {
		return nil, &aerr.Tampered{ID: id}
	}
	return pg, nil
}
