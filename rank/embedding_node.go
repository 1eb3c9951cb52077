package rank

import (
	"context"
	"sort"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/pipeline"
	"github.com/rushteam/divrec/pkg/utils"
)

// EmbeddingNode 是基于嵌入内积的排序 Node：
// 从 EmbeddingStore 取用户向量与候选物品向量，用内积打分。
//   - 写入 labels：rank_model
//   - 更新 item.Score 并按分数降序排序（分数相同保持输入相对顺序）
//
// 如果 rctx.UserVector 非空则直接使用，不再查询 EmbeddingStore。
type EmbeddingNode struct {
	Embeddings core.EmbeddingStore
	ModelName  string // 写入 rank_model label 的名字，默认 "embedding_dot"
}

func (n *EmbeddingNode) Name() string        { return "rank.embedding" }
func (n *EmbeddingNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *EmbeddingNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	userVec := rctx.UserVector
	if len(userVec) == 0 {
		if n.Embeddings == nil {
			return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidParameter, "embedding store is nil and rctx has no user vector")
		}
		if rctx.UserIndex < 0 {
			return nil, core.NewDomainError(core.ModuleRank, core.ErrorCodeInvalidParameter, "rctx has no user index for embedding lookup")
		}
		vec, err := n.Embeddings.GetUserVector(ctx, rctx.UserIndex)
		if err != nil {
			return nil, err
		}
		userVec = vec
	}

	modelName := n.ModelName
	if modelName == "" {
		modelName = "embedding_dot"
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		itemVec, err := n.Embeddings.GetItemVector(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		if len(itemVec) != len(userVec) {
			return nil, core.NewDomainErrorf(core.ModuleRank, core.ErrorCodeDimensionMismatch,
				"item %d vector dim %d != user vector dim %d", it.ID, len(itemVec), len(userVec))
		}
		var score float64
		for i := range userVec {
			score += userVec[i] * itemVec[i]
		}
		it.Score = score
		it.PutLabel("rank_model", utils.Label{Value: modelName, Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

var _ pipeline.Node = (*EmbeddingNode)(nil)
