package model

import (
	"context"
	"math/rand"

	"github.com/rushteam/divrec/core"
)

// RandomModel 是随机分数基线：对每个 (用户, 物品) 给出 [0, 1) 均匀随机分数。
// 用于评估指标的下界对照，embedding 同样随机初始化（供 MMR 相似度使用）。
// 分数由 seed 与用户 ID 共同决定，相同输入两次调用产出相同分数。
type RandomModel struct {
	EmbeddingSize int
	Seed          int64

	numItems int64
	itemEmb  []float64
}

// NewRandomModel 创建随机基线模型。
func NewRandomModel(numItems int64, embeddingSize int, seed int64) (*RandomModel, error) {
	if numItems <= 0 || embeddingSize <= 0 {
		return nil, core.NewDomainErrorf(core.ModuleModel, core.ErrorCodeInvalidParameter,
			"item count and embedding size must be > 0, got %d/%d", numItems, embeddingSize)
	}
	m := &RandomModel{
		EmbeddingSize: embeddingSize,
		Seed:          seed,
		numItems:      numItems,
		itemEmb:       make([]float64, numItems*int64(embeddingSize)),
	}
	rng := rand.New(rand.NewSource(seed))
	for i := range m.itemEmb {
		m.itemEmb[i] = rng.NormFloat64()
	}
	return m, nil
}

func (m *RandomModel) Name() string { return "random" }

// UserEmbedding 返回由 seed 与用户 ID 派生的确定性随机向量。
func (m *RandomModel) UserEmbedding(u int64) ([]float64, error) {
	rng := rand.New(rand.NewSource(m.Seed ^ (u + 1)))
	vec := make([]float64, m.EmbeddingSize)
	for i := range vec {
		vec[i] = rng.NormFloat64()
	}
	return vec, nil
}

// Catalog 导出随机物品 embedding 目录。
func (m *RandomModel) Catalog() (*core.ItemCatalog, error) {
	return core.NewItemCatalogFromFlat(m.itemEmb, int(m.numItems), m.EmbeddingSize)
}

// FullSortPredict 对每个用户产出确定性的伪随机分数行。
func (m *RandomModel) FullSortPredict(_ context.Context, userIdx []int64) (*core.ScoreMatrix, error) {
	scores := core.NewScoreMatrix(len(userIdx), int(m.numItems))
	for row, u := range userIdx {
		rng := rand.New(rand.NewSource(m.Seed ^ (u + 1)))
		out := scores.Row(row)
		for i := range out {
			out[i] = rng.Float64()
		}
	}
	return scores, nil
}

var _ core.ScoreProducer = (*RandomModel)(nil)
