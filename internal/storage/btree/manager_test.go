package btree

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/auradb/aura/internal/security"
	"github.com/auradb/aura/internal/storage/pager"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	key, err := security.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "aura_main.db")
	p, err := pager.Open(path, key)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { p.Close() })
	m, err := Open(p)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSearchMissingKey(t *testing.T) {
	m := newTestManager(t)
	if err := m.Insert("user_001", 101); err != nil {
		t.Fatal(err)
	}
	_, ok, err := m.Search("user_999")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected Search to report false for a missing key")
	}
}

func TestInsertAndSearchSingleKey(t *testing.T) {
	m := newTestManager(t)
	if err := m.Insert("user_007", 207); err != nil {
		t.Fatal(err)
	}
	got, ok, err := m.Search("user_007")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != 207 {
		t.Fatalf("Search(user_007) = (%d, %v), want (207, true)", got, ok)
	}
}

func TestBTreeSplitAndGrowth(t *testing.T) {
	m := newTestManager(t)

	const n = 60
	for i := 0; i < n; i++ {
		key := fmt.Sprintf("user_%03d", i)
		if err := m.Insert(key, uint32(100+i)); err != nil {
			t.Fatalf("Insert(%s): %v", key, err)
		}
	}

	for i := 0; i < n; i++ {
		key := fmt.Sprintf("user_%03d", i)
		got, ok, err := m.Search(key)
		if err != nil {
			t.Fatalf("Search(%s): %v", key, err)
		}
		if !ok {
			t.Fatalf("Search(%s) reported missing after insert", key)
		}
		if got != uint32(100+i) {
			t.Fatalf("Search(%s) = %d, want %d", key, got, 100+i)
		}
	}

	got5, ok, err := m.Search("user_005")
	if err != nil || !ok || got5 != 105 {
		t.Fatalf("Search(user_005) = (%d, %v, %v)", got5, ok, err)
	}
	got55, ok, err := m.Search("user_055")
	if err != nil || !ok || got55 != 155 {
		t.Fatalf("Search(user_055) = (%d, %v, %v)", got55, ok, err)
	}
}

func TestInsertOverwritesExistingKey(t *testing.T) {
	m := newTestManager(t)
	if err := m.Insert("user_001", 101); err != nil {
		t.Fatal(err)
	}
	if err := m.Insert("user_001", 999); err != nil {
		t.Fatal(err)
	}
	got, ok, err := m.Search("user_001")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != 999 {
		t.Fatalf("Search(user_001) = (%d, %v), want (999, true)", got, ok)
	}
}

func TestRootPointerSurvivesReopen(t *testing.T) {
	key, err := security.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "aura_main.db")

	p1, err := pager.Open(path, key)
	if err != nil {
		t.Fatal(err)
	}
	m1, err := Open(p1)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 60; i++ {
		if err := m1.Insert(fmt.Sprintf("user_%03d", i), uint32(100+i)); err != nil {
			t.Fatal(err)
		}
	}
	p1.Close()

	p2, err := pager.Open(path, key)
	if err != nil {
		t.Fatal(err)
	}
	defer p2.Close()
	m2, err := Open(p2)
	if err != nil {
		t.Fatal(err)
	}
	if m2.RootID() != m1.RootID() {
		t.Fatalf("root id changed across reopen: got %d want %d", m2.RootID(), m1.RootID())
	}
	got, ok, err := m2.Search("user_055")
	if err != nil || !ok || got != 155 {
		t.Fatalf("Search(user_055) after reopen = (%d, %v, %v)", got, ok, err)
	}
}
