package rerank

import (
	"math"
	"sort"
)

// candidate 是预筛候选：物品 ID 及其原始相关性分数。
type candidate struct {
	id    int64
	score float64
}

// topKByScore 是贪心选择前的 Top-K 预筛：从整行分数中取出 n 个最高分的
// (score, id) 对，按分数降序排列。同分时按物品 ID 升序，保证输出可复现。
// n 大于候选数时收敛到候选数（不报错）。
//
// 非有限分数（NaN/±Inf）的物品在预筛阶段剔除：上游用 -Inf 屏蔽已交互物品，
// 这些物品不能进入候选池，否则 λ=0 时 λ·score 产生 NaN 并污染贪心决策。
func topKByScore(row []float64, n int) []candidate {
	if n <= 0 {
		return nil
	}

	pool := make([]candidate, 0, len(row))
	for i, s := range row {
		if math.IsInf(s, 0) || math.IsNaN(s) {
			continue
		}
		pool = append(pool, candidate{id: int64(i), score: s})
	}
	if n > len(pool) {
		n = len(pool)
	}
	if n == 0 {
		return nil
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].score != pool[j].score {
			return pool[i].score > pool[j].score
		}
		return pool[i].id < pool[j].id
	})
	return pool[:n]
}
