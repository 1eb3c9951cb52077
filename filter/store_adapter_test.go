package filter

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/store"
)

func TestStoreAdapter_GetBlacklist(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	defer memStore.Close()

	if err := memStore.Set(ctx, "blacklist:global", []byte(`[1, 2, 3]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	a := NewStoreAdapter(memStore)
	ids, err := a.GetBlacklist(ctx, "blacklist:global")
	if err != nil {
		t.Fatalf("GetBlacklist: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Fatalf("ids = %v, want [1 2 3]", ids)
	}

	if _, err := a.GetBlacklist(ctx, "blacklist:missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("err = %v, want store not found", err)
	}
}

func TestStoreAdapter_GetInteractedItems_PlainIDs(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	defer memStore.Close()

	if err := memStore.Set(ctx, "user:history:u-1", []byte(`[10, 20]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	a := NewStoreAdapter(memStore)
	ids, err := a.GetInteractedItems(ctx, "u-1", "user:history", 0)
	if err != nil {
		t.Fatalf("GetInteractedItems: %v", err)
	}
	if len(ids) != 2 || ids[0] != 10 || ids[1] != 20 {
		t.Fatalf("ids = %v, want [10 20]", ids)
	}
}

func TestStoreAdapter_GetInteractedItems_TimeWindow(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	defer memStore.Close()

	now := time.Now().Unix()
	payload := fmt.Sprintf(
		`[{"item_id": 1, "timestamp": %d}, {"item_id": 2, "timestamp": %d}]`,
		now-10, now-3600*24,
	)
	if err := memStore.Set(ctx, "user:history:u-2", []byte(payload)); err != nil {
		t.Fatalf("Set: %v", err)
	}

	a := NewStoreAdapter(memStore)

	// 窗口 1 小时：只保留最近的交互
	ids, err := a.GetInteractedItems(ctx, "u-2", "user:history", 3600)
	if err != nil {
		t.Fatalf("GetInteractedItems: %v", err)
	}
	if len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("ids = %v, want [1]", ids)
	}

	// 窗口为 0：不过滤
	ids, err = a.GetInteractedItems(ctx, "u-2", "user:history", 0)
	if err != nil {
		t.Fatalf("GetInteractedItems: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("ids = %v, want both entries", ids)
	}
}

// stubBloomChecker 按 key 记录命中，模拟外部布隆过滤器。
type stubBloomChecker struct {
	hits    map[string][]int64
	queried []string
}

func (c *stubBloomChecker) CheckInBloomFilter(_ context.Context, key string, itemID int64) (bool, error) {
	c.queried = append(c.queried, key)
	for _, id := range c.hits[key] {
		if id == itemID {
			return true, nil
		}
	}
	return false, nil
}

func TestStoreAdapter_CheckInteractedInBloomFilter(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	defer memStore.Close()

	yesterday := time.Now().AddDate(0, 0, -1).Format("20060102")
	checker := &stubBloomChecker{hits: map[string][]int64{
		"user:history:bloom:u-3:" + yesterday: {42},
	}}
	a := NewStoreAdapterWithBloomFilter(memStore, checker)

	hit, err := a.CheckInteractedInBloomFilter(ctx, "u-3", 42, "user:history", 7)
	if err != nil {
		t.Fatalf("CheckInteractedInBloomFilter: %v", err)
	}
	if !hit {
		t.Error("item 42 should hit yesterday's bloom filter")
	}

	hit, err = a.CheckInteractedInBloomFilter(ctx, "u-3", 99, "user:history", 7)
	if err != nil {
		t.Fatalf("CheckInteractedInBloomFilter: %v", err)
	}
	if hit {
		t.Error("item 99 must not hit any bloom filter")
	}
	if len(checker.queried) == 0 {
		t.Fatal("checker was never queried")
	}
}

func TestStoreAdapter_BloomFilterDisabled(t *testing.T) {
	ctx := context.Background()
	memStore := store.NewMemoryStore()
	defer memStore.Close()

	a := NewStoreAdapter(memStore) // 无 checker
	hit, err := a.CheckInteractedInBloomFilter(ctx, "u", 1, "user:history", 7)
	if err != nil || hit {
		t.Fatalf("CheckInteractedInBloomFilter = (%v, %v), want (false, nil)", hit, err)
	}

	checker := &stubBloomChecker{}
	a = NewStoreAdapterWithBloomFilter(memStore, checker)
	hit, err = a.CheckInteractedInBloomFilter(ctx, "u", 1, "user:history", 0) // dayWindow 0
	if err != nil || hit {
		t.Fatalf("zero day window = (%v, %v), want (false, nil)", hit, err)
	}
	if len(checker.queried) != 0 {
		t.Error("checker must not be queried with zero day window")
	}
}
