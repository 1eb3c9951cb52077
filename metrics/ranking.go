// Package metrics 实现排序质量与多样性指标，评估重排后的推荐列表。
package metrics

import "math"

// 排序指标：输入是单用户的推荐列表（按产出顺序）与 ground truth 集合。
// 列表顺序就是曝光顺序，位置折扣按产出位置计算，不做任何重新排序。

// Hit 命中率：列表中出现任一 ground truth 物品则为 1。
func Hit(ranked []int64, truth map[int64]bool) float64 {
	for _, id := range ranked {
		if truth[id] {
			return 1
		}
	}
	return 0
}

// Recall 召回率：命中的 ground truth 数 / ground truth 总数。
func Recall(ranked []int64, truth map[int64]bool) float64 {
	if len(truth) == 0 {
		return 0
	}
	hits := 0
	for _, id := range ranked {
		if truth[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(truth))
}

// Precision 准确率：命中的 ground truth 数 / 列表长度。
func Precision(ranked []int64, truth map[int64]bool) float64 {
	if len(ranked) == 0 {
		return 0
	}
	hits := 0
	for _, id := range ranked {
		if truth[id] {
			hits++
		}
	}
	return float64(hits) / float64(len(ranked))
}

// MRR 平均倒数排名：首个命中位置的倒数（位置从 1 计）。
func MRR(ranked []int64, truth map[int64]bool) float64 {
	for pos, id := range ranked {
		if truth[id] {
			return 1 / float64(pos+1)
		}
	}
	return 0
}

// NDCG 归一化折损累计增益：DCG / IDCG，增益为 0/1 相关性。
func NDCG(ranked []int64, truth map[int64]bool) float64 {
	if len(truth) == 0 || len(ranked) == 0 {
		return 0
	}

	var dcg float64
	for pos, id := range ranked {
		if truth[id] {
			dcg += 1 / math.Log2(float64(pos)+2)
		}
	}

	ideal := len(truth)
	if ideal > len(ranked) {
		ideal = len(ranked)
	}
	var idcg float64
	for pos := 0; pos < ideal; pos++ {
		idcg += 1 / math.Log2(float64(pos)+2)
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}
