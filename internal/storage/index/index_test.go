package index

import (
	"path/filepath"
	"testing"

	"github.com/auradb/aura/internal/security"
	"github.com/auradb/aura/internal/storage/page"
	"github.com/auradb/aura/internal/storage/pager"
)

func TestInsertGetRoundTrip(t *testing.T) {
	idx := New()
	idx.Insert("user_007", 12)
	idx.Insert("user_008", 13)

	id, ok := idx.Get("user_007")
	if !ok || id != 12 {
		t.Fatalf("Get(user_007) = (%d, %v), want (12, true)", id, ok)
	}
	if _, ok := idx.Get("user_999"); ok {
		t.Fatal("Get should report false for an absent key")
	}
}

func TestToFromBytesRoundTrip(t *testing.T) {
	idx := New()
	idx.Insert("b", 2)
	idx.Insert("a", 1)
	idx.Insert("c", 3)

	encoded := idx.ToBytes()
	decoded, err := FromBytes(encoded)
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{"a", "b", "c"} {
		want, _ := idx.Get(key)
		got, ok := decoded.Get(key)
		if !ok || got != want {
			t.Fatalf("key %q: got (%d, %v), want (%d, true)", key, got, ok, want)
		}
	}
}

func TestSyncAndLoadThroughPager(t *testing.T) {
	key, err := security.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "aura_main.db")
	p, err := pager.Open(path, key)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	idx := New()
	idx.Insert("user_007", 12)
	if !idx.Dirty() {
		t.Fatal("index should be dirty after Insert")
	}
	if err := idx.Sync(p); err != nil {
		t.Fatal(err)
	}
	if idx.Dirty() {
		t.Fatal("index should not be dirty after Sync")
	}

	loaded, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	id, ok := loaded.Get("user_007")
	if !ok || id != 12 {
		t.Fatalf("loaded index: Get(user_007) = (%d, %v)", id, ok)
	}
}

// stubPager is a minimal pagerLike that always hands back a fixed page (or
// error) from ReadPage, letting these tests force Load into its degraded
// paths without needing to corrupt bytes on an actual file.
type stubPager struct {
	pg  *page.Page
	err error
}

func (s *stubPager) WritePage(pg *page.Page) error { return nil }
func (s *stubPager) ReadPage(id uint32) (*page.Page, error) {
	return s.pg, s.err
}

func TestLoadDegradesToEmptyIndexOnReadError(t *testing.T) {
	loaded, err := Load(&stubPager{err: &fakeTamperedError{}})
	if err != nil {
		t.Fatalf("Load must not propagate a read error, got %v", err)
	}
	if _, ok := loaded.Get("anything"); ok {
		t.Fatal("expected an empty index when page 0 cannot be read")
	}
}

func TestLoadDegradesToEmptyIndexOnWrongPageKind(t *testing.T) {
	pg := page.New(indexPageID, page.KindData)
	if err := pg.SetPayload([]byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(&stubPager{pg: pg})
	if err != nil {
		t.Fatalf("Load must not fail on a mis-kinded page 0, got %v", err)
	}
	if _, ok := loaded.Get("anything"); ok {
		t.Fatal("expected an empty index when page 0 has the wrong kind")
	}
}

func TestLoadDegradesToEmptyIndexOnCorruptEncoding(t *testing.T) {
	pg := page.New(indexPageID, page.KindIndex)
	if err := pg.SetPayload([]byte{0xFF}); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(&stubPager{pg: pg})
	if err != nil {
		t.Fatalf("Load must not fail on a corrupt index encoding, got %v", err)
	}
	if _, ok := loaded.Get("anything"); ok {
		t.Fatal("expected an empty index when page 0's payload does not decode")
	}
}

type fakeTamperedError struct{}

func (e *fakeTamperedError) Error() string { return "page 0 failed integrity check" }

func TestLoadFreshDatabaseYieldsEmptyIndex(t *testing.T) {
	key, err := security.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "aura_main.db")
	p, err := pager.Open(path, key)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	loaded, err := Load(p)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := loaded.Get("anything"); ok {
		t.Fatal("fresh database should have an empty index")
	}
}
