package metrics

import (
	"math"
	"testing"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/rerank"
)

func TestShannonEntropy(t *testing.T) {
	// 4 个物品各出现一次 → 均匀分布，熵 = log2(4) = 2
	recs := [][]int64{{0, 1}, {2, 3}}
	if got := ShannonEntropy(recs); math.Abs(got-2) > tol {
		t.Errorf("entropy = %v, want 2", got)
	}

	// 全部曝光同一物品 → 熵 0
	recs = [][]int64{{0, 0}, {0}}
	if got := ShannonEntropy(recs); got != 0 {
		t.Errorf("entropy of degenerate distribution = %v, want 0", got)
	}

	if got := ShannonEntropy(nil); got != 0 {
		t.Errorf("entropy of no recommendations = %v, want 0", got)
	}
}

func TestItemCoverage(t *testing.T) {
	recs := [][]int64{{0, 1}, {1, 2}}
	if got := ItemCoverage(recs, 10); math.Abs(got-0.3) > tol {
		t.Errorf("coverage = %v, want 0.3", got)
	}
	if got := ItemCoverage(recs, 0); got != 0 {
		t.Errorf("coverage with empty catalog = %v, want 0", got)
	}
}

func TestTailPercentage(t *testing.T) {
	// 流行度升序: item 3 (0), item 2 (1), item 1 (5), item 0 (9)
	// tailRatio 0.5 → 长尾 = {3, 2}
	popularity := []int64{9, 5, 1, 0}
	recs := [][]int64{{0, 2}, {3, 1}}
	if got := TailPercentage(recs, popularity, 0.5); math.Abs(got-0.5) > tol {
		t.Errorf("tail percentage = %v, want 0.5", got)
	}

	if got := TailPercentage(recs, popularity, 0); got != 0 {
		t.Errorf("tail percentage with ratio 0 = %v, want 0", got)
	}
}

func TestNovelty(t *testing.T) {
	popularity := []int64{8, 2, 0}
	totalPop := 10.0

	// 推荐 item 0 与 item 2（零流行度按 1 次计）
	recs := [][]int64{{0, 2}}
	want := (-math.Log2(8/totalPop) - math.Log2(1/totalPop)) / 2
	if got := Novelty(recs, popularity); math.Abs(got-want) > tol {
		t.Errorf("novelty = %v, want %v", got, want)
	}

	if got := Novelty(recs, []int64{0, 0, 0}); got != 0 {
		t.Errorf("novelty with zero total popularity = %v, want 0", got)
	}
}

func TestIntraListSimilarity(t *testing.T) {
	catalog, err := core.NewItemCatalog([][]float64{
		{1, 0},
		{1, 0},
		{0, 1},
	})
	if err != nil {
		t.Fatalf("NewItemCatalog: %v", err)
	}
	sim, err := rerank.CosineSimilarity(catalog)
	if err != nil {
		t.Fatalf("CosineSimilarity: %v", err)
	}

	// 列表 {0, 1}: 相似度 1；列表 {0, 2}: 相似度 0 → 平均 0.5
	recs := [][]int64{{0, 1}, {0, 2}}
	if got := IntraListSimilarity(recs, sim); math.Abs(got-0.5) > tol {
		t.Errorf("ILS = %v, want 0.5", got)
	}

	// 单物品列表被跳过
	if got := IntraListSimilarity([][]int64{{0}}, sim); got != 0 {
		t.Errorf("ILS of single-item lists = %v, want 0", got)
	}
}
