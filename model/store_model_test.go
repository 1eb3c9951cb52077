package model

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/store"
)

func newStoreWithVectors(t *testing.T, items map[int64][]float64, users map[int64][]float64) core.EmbeddingStore {
	t.Helper()
	emb := store.NewMemoryEmbeddingStore(2)
	ctx := context.Background()
	for id, vec := range items {
		if err := emb.PutItemVector(ctx, id, vec); err != nil {
			t.Fatalf("PutItemVector(%d): %v", id, err)
		}
	}
	for id, vec := range users {
		if err := emb.PutUserVector(ctx, id, vec); err != nil {
			t.Fatalf("PutUserVector(%d): %v", id, err)
		}
	}
	return emb
}

func TestStoreModel_FullSortPredictDotProducts(t *testing.T) {
	emb := newStoreWithVectors(t,
		map[int64][]float64{
			0: {1, 0},
			1: {0, 1},
			2: {1, 1},
		},
		map[int64][]float64{
			0: {2, 3},
		},
	)
	m, err := NewStoreModel(emb)
	if err != nil {
		t.Fatalf("NewStoreModel: %v", err)
	}

	scores, err := m.FullSortPredict(context.Background(), []int64{0})
	if err != nil {
		t.Fatalf("FullSortPredict: %v", err)
	}
	want := []float64{2, 3, 5}
	row := scores.Row(0)
	for i, w := range want {
		if math.Abs(row[i]-w) > 1e-12 {
			t.Errorf("score[%d] = %v, want %v", i, row[i], w)
		}
	}
}

func TestStoreModel_CatalogRequiresContiguousIDs(t *testing.T) {
	emb := newStoreWithVectors(t,
		map[int64][]float64{
			0: {1, 0},
			2: {0, 1}, // 缺 1
		},
		nil,
	)
	m, err := NewStoreModel(emb)
	if err != nil {
		t.Fatalf("NewStoreModel: %v", err)
	}
	if _, err := m.Catalog(); !core.IsDimensionMismatch(err) {
		t.Fatalf("expected DIMENSION_MISMATCH, got %v", err)
	}
}

func TestNewStoreModel_NilStore(t *testing.T) {
	if _, err := NewStoreModel(nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}
