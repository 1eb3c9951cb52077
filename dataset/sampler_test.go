package dataset

import (
	"testing"
)

func samplerDataset(t *testing.T) *Dataset {
	t.Helper()
	train := []Interaction{
		{UserID: 0, ItemID: 0}, {UserID: 0, ItemID: 1},
		{UserID: 1, ItemID: 0},
		{UserID: 2, ItemID: 0}, {UserID: 2, ItemID: 3},
	}
	ds, err := New(3, 4, train, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return ds
}

func TestNegativeSampler_NeverSamplesPositives(t *testing.T) {
	ds := samplerDataset(t)
	s := NewNegativeSampler(ds, 42)
	history := ds.TrainHistory(0)
	for i := 0; i < 200; i++ {
		neg := s.Sample(0)
		if history[neg] {
			t.Fatalf("sampled positive item %d for user 0", neg)
		}
		if neg < 0 || neg >= ds.NumItems {
			t.Fatalf("sampled out-of-range item %d", neg)
		}
	}
}

func TestNegativeSampler_IsDeterministic(t *testing.T) {
	ds := samplerDataset(t)
	a, b := NewNegativeSampler(ds, 42), NewNegativeSampler(ds, 42)
	for i := 0; i < 50; i++ {
		if a.Sample(0) != b.Sample(0) {
			t.Fatal("same seed must produce same sample sequence")
		}
	}
}

func TestNegativeSampler_AllItemsInteracted(t *testing.T) {
	train := []Interaction{
		{UserID: 0, ItemID: 0}, {UserID: 0, ItemID: 1},
	}
	ds, err := New(1, 2, train, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	// 用户交互过全部物品时退化为均匀随机，不能死循环
	s := NewNegativeSampler(ds, 42)
	neg := s.Sample(0)
	if neg < 0 || neg >= 2 {
		t.Fatalf("sampled out-of-range item %d", neg)
	}
}

func TestOversampleTail_DuplicatesTailInteractions(t *testing.T) {
	ds := samplerDataset(t)
	// item 0 流行度 3（头部）；item 1/3 流行度 1，item 2 流行度 0（长尾）
	out := OversampleTail(ds, 0.5, 42)
	if len(out) <= len(ds.Train) {
		t.Fatalf("expected oversampled train > %d, got %d", len(ds.Train), len(out))
	}

	count := func(ins []Interaction, item int64) int {
		n := 0
		for _, in := range ins {
			if in.ItemID == item {
				n++
			}
		}
		return n
	}
	// 头部物品不被复制
	if count(out, 0) != count(ds.Train, 0) {
		t.Errorf("head item 0 interactions changed: %d -> %d", count(ds.Train, 0), count(out, 0))
	}
}

func TestOversampleTail_ZeroRatioIsNoop(t *testing.T) {
	ds := samplerDataset(t)
	out := OversampleTail(ds, 0, 42)
	if len(out) != len(ds.Train) {
		t.Fatalf("expected noop, got %d interactions", len(out))
	}
}

func TestUndersampleHead_OnlyDropsHeadInteractions(t *testing.T) {
	ds := samplerDataset(t)
	out := UndersampleHead(ds, 0.25, 42) // 只有 item 0 属于前 25% 头部
	if len(out) > len(ds.Train) {
		t.Fatalf("undersampling must not grow train set: %d -> %d", len(ds.Train), len(out))
	}
	// 非头部物品的交互全部保留
	keep := 0
	for _, in := range out {
		if in.ItemID != 0 {
			keep++
		}
	}
	wantKeep := 0
	for _, in := range ds.Train {
		if in.ItemID != 0 {
			wantKeep++
		}
	}
	if keep != wantKeep {
		t.Errorf("non-head interactions dropped: %d -> %d", wantKeep, keep)
	}
}
