package rerank

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/divrec/core"
)

// UserRanking 是单个用户的重排结果。
// Items 按选中顺序排列（第 0 个 = 初始相关性最高的物品，其后相关性与多样性交替主导），
// 产出后不再按最终分数重新排序。Scores[i] 恒为 Items[i] 的原始相关性分数。
type UserRanking struct {
	Items  []int64
	Scores []float64
}

// MMRReranker 是 MMR（Maximal Marginal Relevance）重排器。
//
// 对每个用户独立执行：先按分数预筛出 n_items 个候选，再贪心最大化
//
//	mmr(c) = λ·relevance(c) − (1−λ)·Σ_{s∈已选} sim(c, s)
//
// 直到选满 top_k 或候选耗尽。λ=1 退化为纯相关性排序，λ=0 退化为纯多样性。
//
// 确定性约定（分数/MMR 值相同时）：取物品 ID 较小者。
// 相同输入的两次运行产出逐位一致的结果。
type MMRReranker struct {
	Config core.RerankConfig

	// MaxConcurrent 是批量重排时的并发用户数，<= 0 时取 GOMAXPROCS。
	MaxConcurrent int
}

// NewMMRReranker 创建重排器并校验配置；参数越界返回 INVALID_PARAMETER。
func NewMMRReranker(cfg core.RerankConfig) (*MMRReranker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &MMRReranker{Config: cfg}, nil
}

// Rerank 对分数矩阵中的每个用户独立重排。
//
// 相似度矩阵按批次构造一次（目录在用户间共享且只读），之后各用户并发执行，
// 期间无共享可变状态。任何校验失败都发生在每用户计算开始之前，不产出部分结果；
// ctx 取消会中止尚未完成的用户并使整个请求失败。
func (r *MMRReranker) Rerank(
	ctx context.Context,
	catalog *core.ItemCatalog,
	scores *core.ScoreMatrix,
) ([]UserRanking, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}
	if scores == nil {
		return nil, core.NewDomainError(core.ModuleRerank, core.ErrorCodeInvalidInput, "score matrix is nil")
	}
	if err := scores.ValidateAgainst(catalog); err != nil {
		return nil, err
	}

	sim, err := CosineSimilarity(catalog)
	if err != nil {
		return nil, err
	}
	return r.RerankWithSimilarity(ctx, sim, scores)
}

// RerankWithSimilarity 复用已构造的相似度矩阵做批量重排。
// 同一目录上做 λ 网格搜索时可避免重复的 O(N²·D) 相似度计算。
func (r *MMRReranker) RerankWithSimilarity(
	ctx context.Context,
	sim *SimilarityMatrix,
	scores *core.ScoreMatrix,
) ([]UserRanking, error) {
	if err := r.Config.Validate(); err != nil {
		return nil, err
	}
	if sim == nil {
		return nil, core.NewDomainError(core.ModuleRerank, core.ErrorCodeInvalidInput, "similarity matrix is nil")
	}
	if scores == nil {
		return nil, core.NewDomainError(core.ModuleRerank, core.ErrorCodeInvalidInput, "score matrix is nil")
	}
	if sim.Len() != scores.Items() {
		return nil, core.NewDomainErrorf(core.ModuleRerank, core.ErrorCodeDimensionMismatch,
			"similarity matrix has %d items, score matrix has %d columns", sim.Len(), scores.Items())
	}

	users := scores.Users()
	results := make([]UserRanking, users)

	limit := r.MaxConcurrent
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)
	for u := 0; u < users; u++ {
		u := u
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[u] = r.rerankRow(scores.Row(u), sim)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// rerankRow 对单个用户执行预筛 + 贪心 MMR 选择。
// 纯同步确定性循环；候选数小于 top_k 时产出更短的列表（不补齐、不报错）。
func (r *MMRReranker) rerankRow(row []float64, sim *SimilarityMatrix) UserRanking {
	pool := topKByScore(row, r.Config.NItems)
	if len(pool) == 0 {
		return UserRanking{Items: []int64{}, Scores: []float64{}}
	}

	topK := r.Config.TopK
	if topK > len(pool) {
		topK = len(pool)
	}

	selected := make([]int64, 0, topK)
	selectedScores := make([]float64, 0, topK)

	// 首位直接取预筛头部（最高分，同分时 ID 较小者，见 topKByScore）
	head := pool[0]
	selected = append(selected, head.id)
	selectedScores = append(selectedScores, head.score)

	remaining := pool[1:]
	// simToSelected[i] 是 remaining[i] 与已选集合的相似度累计和。
	// 每轮选中后只为每个剩余候选追加一项，避免每轮对整个已选集合重新求和。
	simToSelected := make([]float64, len(remaining))
	for i, c := range remaining {
		simToSelected[i] = sim.At(c.id, head.id)
	}

	lambda := r.Config.LambdaMMR
	for len(selected) < topK && len(remaining) > 0 {
		best := -1
		var bestVal float64
		for i, c := range remaining {
			val := lambda*c.score - (1-lambda)*simToSelected[i]
			if best < 0 || val > bestVal || (val == bestVal && c.id < remaining[best].id) {
				best = i
				bestVal = val
			}
		}

		picked := remaining[best]
		selected = append(selected, picked.id)
		selectedScores = append(selectedScores, picked.score)

		// 交换删除；确定性由显式的 ID 决胜保证，与剩余池顺序无关
		last := len(remaining) - 1
		remaining[best] = remaining[last]
		simToSelected[best] = simToSelected[last]
		remaining = remaining[:last]
		simToSelected = simToSelected[:last]

		for i, c := range remaining {
			simToSelected[i] += sim.At(c.id, picked.id)
		}
	}

	return UserRanking{Items: selected, Scores: selectedScores}
}
