package kv

import (
	"context"
	"testing"
)

func TestMemoryStoreGetSetRemove(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "theme"); err != nil || ok {
		t.Fatalf("expected absent key, ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "theme", "dark"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	v, ok, err := s.Get(ctx, "theme")
	if err != nil || !ok || v != "dark" {
		t.Fatalf("unexpected get: %q %v %v", v, ok, err)
	}
	if err := s.Remove(ctx, "theme"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := s.Remove(ctx, "theme"); err != nil {
		t.Fatalf("Remove of absent key failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "theme"); ok {
		t.Fatal("expected key removed")
	}
}

func TestMemoryStoreCompareAndSwap(t *testing.T) {
	testCompareAndSwap(t, NewMemoryStore())
}

func testCompareAndSwap(t *testing.T, s CASStore) {
	t.Helper()
	ctx := context.Background()

	ok, err := s.CompareAndSwap(ctx, "users", "", false, "[]")
	if err != nil || !ok {
		t.Fatalf("create-if-absent swap failed: ok=%v err=%v", ok, err)
	}
	ok, err = s.CompareAndSwap(ctx, "users", "", false, "[1]")
	if err != nil || ok {
		t.Fatalf("expected swap on existing key to be refused: ok=%v err=%v", ok, err)
	}
	ok, err = s.CompareAndSwap(ctx, "users", "stale", true, "[2]")
	if err != nil || ok {
		t.Fatalf("expected stale swap to be refused: ok=%v err=%v", ok, err)
	}
	ok, err = s.CompareAndSwap(ctx, "users", "[]", true, "[3]")
	if err != nil || !ok {
		t.Fatalf("matching swap failed: ok=%v err=%v", ok, err)
	}
	v, _, err := s.Get(ctx, "users")
	if err != nil || v != "[3]" {
		t.Fatalf("unexpected value after swap: %q %v", v, err)
	}
	ok, err = s.CompareAndSwap(ctx, "absent", "x", true, "y")
	if err != nil || ok {
		t.Fatalf("expected swap on absent key with prev to be refused: ok=%v err=%v", ok, err)
	}
}
