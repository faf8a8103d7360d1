package store

import (
	"context"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := dir + "/sub/liftlog.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "k", "v"); err != nil {
		t.Fatal(err)
	}
	s.Close()

	// Reopen: data survives and migrations do not run again.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	v, ok, err := s2.Get(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != "v" {
		t.Fatalf("expected persisted value, got %q ok=%v", v, ok)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

// ============================================================
// Key-value operations
// ============================================================

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	v, ok, err := s.Get(context.Background(), "missing")
	if err != nil {
		t.Fatal(err)
	}
	if ok || v != "" {
		t.Fatalf("expected missing key, got %q ok=%v", v, ok)
	}
}

func TestSetOverwrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.Set(ctx, "marker", `{"skipped":true}`); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "marker", `{"skipped":false}`); err != nil {
		t.Fatal(err)
	}

	v, ok, err := s.Get(ctx, "marker")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != `{"skipped":false}` {
		t.Fatalf("expected overwritten value, got %q", v)
	}

	var n int
	s.db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n)
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Set(ctx, "snapshot", "{}")
	if err := s.Delete(ctx, "snapshot"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := s.Get(ctx, "snapshot"); ok {
		t.Fatal("key should be gone")
	}

	// Deleting again is fine.
	if err := s.Delete(ctx, "snapshot"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestClosedStoreErrors(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	s.Close()

	ctx := context.Background()
	if _, _, err := s.Get(ctx, "k"); err == nil {
		t.Fatal("expected error from closed store")
	}
	if err := s.Delete(ctx, "k"); err == nil {
		t.Fatal("expected error from closed store")
	}
}
