package rerank

import (
	"context"
	"fmt"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/pipeline"
	"github.com/rushteam/divrec/pkg/utils"
)

// MMRNode 是 MMR 重排的 Pipeline Node 形态：对上游（通常是 Rank 节点）
// 产出的候选列表做多样性重排，物品向量从 EmbeddingStore 查表获取。
//
// 与批量接口 MMRReranker.Rerank 的差异：这里的候选就是当前 items 列表，
// 相似度矩阵按列表规模即时构造，适合在线单用户请求；离线全量评估请走批量接口。
//
// 使用示例：
//
//	node := &rerank.MMRNode{
//	    Config:     core.DefaultRerankConfig(),
//	    Embeddings: embStore,
//	}
type MMRNode struct {
	Config     core.RerankConfig
	Embeddings core.EmbeddingStore
}

func (n *MMRNode) Name() string        { return "rerank.mmr" }
func (n *MMRNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *MMRNode) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	if err := n.Config.Validate(); err != nil {
		return nil, err
	}
	if n.Embeddings == nil {
		return nil, core.NewDomainError(core.ModuleRerank, core.ErrorCodeInvalidInput, "mmr node requires an embedding store")
	}

	valid := make([]*core.Item, 0, len(items))
	vectors := make([][]float64, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		vec, err := n.Embeddings.GetItemVector(ctx, it.ID)
		if err != nil {
			return nil, fmt.Errorf("mmr get item vector %d: %w", it.ID, err)
		}
		valid = append(valid, it)
		vectors = append(vectors, vec)
	}
	if len(valid) == 0 {
		return []*core.Item{}, nil
	}

	// 列表内局部下标即"物品 ID"，贪心循环与批量接口共用
	catalog, err := core.NewItemCatalog(vectors)
	if err != nil {
		return nil, err
	}
	sim, err := CosineSimilarity(catalog)
	if err != nil {
		return nil, err
	}

	row := make([]float64, len(valid))
	for i, it := range valid {
		row[i] = it.Score
	}

	reranker := &MMRReranker{Config: n.Config}
	ranking := reranker.rerankRow(row, sim)

	out := make([]*core.Item, 0, len(ranking.Items))
	for pos, idx := range ranking.Items {
		it := valid[idx]
		it.PutLabel("rerank_model", utils.Label{Value: "mmr", Source: "rerank"})
		it.PutLabel("rerank_position", utils.Label{Value: fmt.Sprintf("%d", pos), Source: "rerank"})
		out = append(out, it)
	}
	return out, nil
}

// 确保 MMRNode 实现 pipeline.Node
var _ pipeline.Node = (*MMRNode)(nil)
