package runstore

import (
	"errors"
	"os"
	"testing"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	in := []int32{5, -3, 1 << 30, 0}
	if err := s.Put(1, 2, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	in[0] = 99 // the store must hold its own copy
	got, err := s.Get(1, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []int32{5, -3, 1 << 30, 0}
	if len(got) != len(want) {
		t.Fatalf("Get len=%d; want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Get[%d]=%d; want %d", i, got[i], want[i])
		}
	}
	if _, err := s.Get(2, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing err=%v; want ErrNotFound", err)
	}
	if err := s.Put(1, 3, nil); err != nil {
		t.Fatalf("Put empty: %v", err)
	}
	if got, err := s.Get(1, 3); err != nil || len(got) != 0 {
		t.Fatalf("Get empty = %v, %v", got, err)
	}
	if err := s.Delete(1, 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(1, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err=%v; want ErrNotFound", err)
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	exerciseStore(t, s)
	if s.Len() != 1 {
		t.Fatalf("Len=%d; want 1", s.Len())
	}
}

func TestBadgerStoreInMemory(t *testing.T) {
	s, err := OpenBadger("")
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestBadgerStoreOnDisk(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenBadger(dir)
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	exerciseStore(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestScratchStoreRemovesItsDirectory(t *testing.T) {
	root := t.TempDir()
	a, err := OpenScratch(root)
	if err != nil {
		t.Fatalf("OpenScratch: %v", err)
	}
	b, err := OpenScratch(root)
	if err != nil {
		t.Fatalf("second OpenScratch: %v", err)
	}
	if a.Dir() == b.Dir() {
		t.Fatalf("scratch stores share %s", a.Dir())
	}
	exerciseStore(t, a)
	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(a.Dir()); !os.IsNotExist(err) {
		t.Fatalf("scratch dir still present: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := OpenScratch("/"); err == nil {
		t.Fatalf("expected / to be rejected")
	}
}
