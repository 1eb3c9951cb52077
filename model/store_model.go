package model

import (
	"context"
	"sort"

	"github.com/rushteam/divrec/core"
)

// StoreModel 是 embedding 查表模型：用户/物品向量来自 core.EmbeddingStore，
// 适合"离线训练、在线查表"的部署形态（如 Redis 中的 embedding 表）。
//
// 目录在首次使用时从 Store 拉全量物品向量构建并缓存；Store 中的物品
// ID 必须是 [0, N) 的连续行号。
type StoreModel struct {
	Store core.EmbeddingStore

	catalog *core.ItemCatalog
}

// NewStoreModel 创建查表模型。
func NewStoreModel(store core.EmbeddingStore) (*StoreModel, error) {
	if store == nil {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeInvalidInput, "embedding store is nil")
	}
	return &StoreModel{Store: store}, nil
}

func (m *StoreModel) Name() string { return "store" }

// UserEmbedding 从 Store 查用户向量。
func (m *StoreModel) UserEmbedding(u int64) ([]float64, error) {
	return m.Store.GetUserVector(context.Background(), u)
}

// Catalog 拉取全量物品向量并构建目录（只构建一次）。
// 物品 ID 不连续时返回 DIMENSION_MISMATCH。
func (m *StoreModel) Catalog() (*core.ItemCatalog, error) {
	if m.catalog != nil {
		return m.catalog, nil
	}

	vectors, err := m.Store.GetAllItemVectors(context.Background())
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(vectors))
	for id := range vectors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rows := make([][]float64, 0, len(ids))
	for want, id := range ids {
		if id != int64(want) {
			return nil, core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeDimensionMismatch,
				"item ids must be contiguous from 0, missing %d", want)
		}
		rows = append(rows, vectors[id])
	}

	catalog, err := core.NewItemCatalog(rows)
	if err != nil {
		return nil, err
	}
	m.catalog = catalog
	return catalog, nil
}

// FullSortPredict 对每个用户计算其向量与全量物品向量的内积。
func (m *StoreModel) FullSortPredict(ctx context.Context, userIdx []int64) (*core.ScoreMatrix, error) {
	catalog, err := m.Catalog()
	if err != nil {
		return nil, err
	}

	scores := core.NewScoreMatrix(len(userIdx), catalog.Len())
	for row, u := range userIdx {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ue, err := m.Store.GetUserVector(ctx, u)
		if err != nil {
			return nil, err
		}
		out := scores.Row(row)
		for i := 0; i < catalog.Len(); i++ {
			out[i] = dotProduct(ue, catalog.Vector(i))
		}
	}
	return scores, nil
}

var (
	_ core.ScoreProducer = (*StoreModel)(nil)
	_ EmbeddingModel     = (*StoreModel)(nil)
)
