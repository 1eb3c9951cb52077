package metrics

import (
	"math"
	"sort"

	"github.com/rushteam/divrec/rerank"
)

// 多样性/覆盖类指标：输入是全体用户的推荐列表，衡量系统级的曝光分布。

// ShannonEntropy 推荐分布的香农熵：对全部推荐列表中物品出现次数的
// 归一化分布求 −Σ p·log2(p)。分布越均匀熵越大，越集中于头部熵越小。
func ShannonEntropy(recommendations [][]int64) float64 {
	counts := make(map[int64]int)
	total := 0
	for _, list := range recommendations {
		for _, id := range list {
			counts[id]++
			total++
		}
	}
	if total == 0 {
		return 0
	}

	var entropy float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// ItemCoverage 物品覆盖率：被推荐过的不同物品数 / 目录规模。
func ItemCoverage(recommendations [][]int64, numItems int64) float64 {
	if numItems <= 0 {
		return 0
	}
	seen := make(map[int64]bool)
	for _, list := range recommendations {
		for _, id := range list {
			seen[id] = true
		}
	}
	return float64(len(seen)) / float64(numItems)
}

// TailPercentage 长尾占比：推荐条目中属于长尾物品的比例。
// tailRatio 指定按流行度升序的后分位（如 0.8 表示流行度后 80% 的物品算长尾）。
func TailPercentage(recommendations [][]int64, popularity []int64, tailRatio float64) float64 {
	tail := tailSet(popularity, tailRatio)

	total, inTail := 0, 0
	for _, list := range recommendations {
		for _, id := range list {
			total++
			if tail[id] {
				inTail++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(inTail) / float64(total)
}

// Novelty 新颖度：推荐条目的平均自信息 −log2(pop(i)/Σpop)。
// 推荐越冷门的物品新颖度越高；流行度为零的物品按 1 次计，避免无穷大。
func Novelty(recommendations [][]int64, popularity []int64) float64 {
	var totalPop float64
	for _, p := range popularity {
		totalPop += float64(p)
	}
	if totalPop == 0 {
		return 0
	}

	total := 0
	var sum float64
	for _, list := range recommendations {
		for _, id := range list {
			p := float64(popularity[id])
			if p == 0 {
				p = 1
			}
			sum += -math.Log2(p / totalPop)
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return sum / float64(total)
}

// IntraListSimilarity 列表内相似度：每个列表内物品两两余弦相似度的均值，
// 再对用户取平均。值越低表示列表越多样，是 MMR 直接优化的量。
func IntraListSimilarity(recommendations [][]int64, sim *rerank.SimilarityMatrix) float64 {
	var sum float64
	lists := 0
	for _, list := range recommendations {
		if len(list) < 2 {
			continue
		}
		var s float64
		pairs := 0
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				s += sim.At(list[i], list[j])
				pairs++
			}
		}
		sum += s / float64(pairs)
		lists++
	}
	if lists == 0 {
		return 0
	}
	return sum / float64(lists)
}

// tailSet 返回流行度升序后 tailRatio 分位的物品集合。
// 同流行度时 ID 较小者视为更靠尾部，保证集合可复现。
func tailSet(popularity []int64, tailRatio float64) map[int64]bool {
	if tailRatio <= 0 {
		return map[int64]bool{}
	}
	if tailRatio > 1 {
		tailRatio = 1
	}

	ids := make([]int64, len(popularity))
	for i := range ids {
		ids[i] = int64(i)
	}
	sort.Slice(ids, func(i, j int) bool {
		if popularity[ids[i]] != popularity[ids[j]] {
			return popularity[ids[i]] < popularity[ids[j]]
		}
		return ids[i] < ids[j]
	})

	n := int(float64(len(ids)) * tailRatio)
	out := make(map[int64]bool, n)
	for _, id := range ids[:n] {
		out[id] = true
	}
	return out
}
