package store

import (
	"context"
	"testing"

	"github.com/rushteam/divrec/core"
)

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if _, err := s.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}

	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Fatalf("Get = (%q, %v), want (v, nil)", got, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !core.IsStoreNotFound(err) {
		t.Fatalf("expected not-found after delete, got %v", err)
	}
}

func TestMemoryStore_BatchOps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	if err := s.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}); err != nil {
		t.Fatalf("BatchSet: %v", err)
	}
	got, err := s.BatchGet(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("BatchGet: %v", err)
	}
	if len(got) != 2 || string(got["a"]) != "1" || string(got["b"]) != "2" {
		t.Fatalf("BatchGet = %v", got)
	}
}

func TestMemoryStore_ZSetOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	// 同分成员按字典序，保证可复现
	s.ZAdd(ctx, "z", 3, "c")
	s.ZAdd(ctx, "z", 5, "a")
	s.ZAdd(ctx, "z", 3, "b")

	got, err := s.ZRange(ctx, "z", 0, -1)
	if err != nil {
		t.Fatalf("ZRange: %v", err)
	}
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("ZRange = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ZRange = %v, want %v", got, want)
		}
	}

	// 截取 Top 2
	got, _ = s.ZRange(ctx, "z", 0, 1)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("ZRange(0, 1) = %v, want [a b]", got)
	}

	score, err := s.ZScore(ctx, "z", "a")
	if err != nil || score != 5 {
		t.Fatalf("ZScore = (%v, %v), want (5, nil)", score, err)
	}
	if _, err := s.ZScore(ctx, "z", "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestMemoryStore_Hash(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	s.HSet(ctx, "h", "f1", []byte("v1"))
	s.HSet(ctx, "h", "f2", []byte("v2"))

	got, err := s.HGet(ctx, "h", "f1")
	if err != nil || string(got) != "v1" {
		t.Fatalf("HGet = (%q, %v)", got, err)
	}

	all, err := s.HGetAll(ctx, "h")
	if err != nil || len(all) != 2 {
		t.Fatalf("HGetAll = (%v, %v)", all, err)
	}
	if _, err := s.HGet(ctx, "h", "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}
