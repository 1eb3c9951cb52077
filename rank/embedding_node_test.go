package rank

import (
	"context"
	"math"
	"testing"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/store"
)

func newTestEmbeddings(t *testing.T) *store.MemoryEmbeddingStore {
	t.Helper()
	ctx := context.Background()
	emb := store.NewMemoryEmbeddingStore(2)
	for id, vec := range map[int64][]float64{
		0: {1, 0},
		1: {0, 1},
		2: {1, 1},
	} {
		if err := emb.PutItemVector(ctx, id, vec); err != nil {
			t.Fatalf("PutItemVector(%d): %v", id, err)
		}
	}
	if err := emb.PutUserVector(ctx, 7, []float64{2, 1}); err != nil {
		t.Fatalf("PutUserVector: %v", err)
	}
	return emb
}

func TestEmbeddingNode_ScoresAndSorts(t *testing.T) {
	n := &EmbeddingNode{Embeddings: newTestEmbeddings(t)}
	rctx := core.NewRecommendContext("u-7")
	rctx.UserIndex = 7

	items := []*core.Item{core.NewItem(0), core.NewItem(1), core.NewItem(2)}
	out, err := n.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	// user {2,1} 内积：item0=2, item1=1, item2=3
	if out[0].ID != 2 || out[1].ID != 0 || out[2].ID != 1 {
		t.Fatalf("order = [%d %d %d], want [2 0 1]", out[0].ID, out[1].ID, out[2].ID)
	}
	if math.Abs(out[0].Score-3) > 1e-12 {
		t.Errorf("top score = %v, want 3", out[0].Score)
	}
	if out[0].Labels["rank_model"].Value != "embedding_dot" {
		t.Errorf("rank_model = %q, want embedding_dot", out[0].Labels["rank_model"].Value)
	}
}

func TestEmbeddingNode_UsesContextUserVector(t *testing.T) {
	n := &EmbeddingNode{Embeddings: newTestEmbeddings(t), ModelName: "ctx_vec"}
	rctx := core.NewRecommendContext("anonymous")
	// UserIndex 留 -1，由请求携带向量
	rctx.UserVector = []float64{0, 1}

	items := []*core.Item{core.NewItem(0), core.NewItem(1)}
	out, err := n.Process(context.Background(), rctx, items)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if out[0].ID != 1 {
		t.Fatalf("top = %d, want 1 (aligned with ctx vector)", out[0].ID)
	}
	if out[0].Labels["rank_model"].Value != "ctx_vec" {
		t.Errorf("rank_model = %q, want ctx_vec", out[0].Labels["rank_model"].Value)
	}
}

func TestEmbeddingNode_UnknownUserIndex(t *testing.T) {
	n := &EmbeddingNode{Embeddings: newTestEmbeddings(t)}
	rctx := core.NewRecommendContext("anonymous") // UserIndex = -1

	_, err := n.Process(context.Background(), rctx, []*core.Item{core.NewItem(0)})
	if !core.IsInvalidParameter(err) {
		t.Fatalf("err = %v, want INVALID_PARAMETER", err)
	}
}

func TestEmbeddingNode_DimensionMismatch(t *testing.T) {
	n := &EmbeddingNode{Embeddings: newTestEmbeddings(t)}
	rctx := core.NewRecommendContext("u")
	rctx.UserVector = []float64{1, 2, 3} // 与物品向量维度不一致

	_, err := n.Process(context.Background(), rctx, []*core.Item{core.NewItem(0)})
	if !core.IsDimensionMismatch(err) {
		t.Fatalf("err = %v, want DIMENSION_MISMATCH", err)
	}
}

func TestEmbeddingNode_EmptyInput(t *testing.T) {
	n := &EmbeddingNode{}
	out, err := n.Process(context.Background(), core.NewRecommendContext("u"), nil)
	if err != nil || out != nil {
		t.Fatalf("Process = (%v, %v), want (nil, nil)", out, err)
	}
}
