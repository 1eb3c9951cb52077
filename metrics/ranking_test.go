package metrics

import (
	"math"
	"testing"
)

const tol = 1e-9

func truthSet(ids ...int64) map[int64]bool {
	out := make(map[int64]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

func TestRankingMetrics_KnownValues(t *testing.T) {
	ranked := []int64{5, 1, 9, 3}
	truth := truthSet(1, 3, 7)

	tests := []struct {
		name string
		fn   func([]int64, map[int64]bool) float64
		want float64
	}{
		{"Hit", Hit, 1},
		{"Recall", Recall, 2.0 / 3.0},
		{"Precision", Precision, 2.0 / 4.0},
		{"MRR", MRR, 1.0 / 2.0}, // 首个命中在第 2 位
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(ranked, truth); math.Abs(got-tt.want) > tol {
				t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestRankingMetrics_NoHits(t *testing.T) {
	ranked := []int64{5, 9}
	truth := truthSet(1)

	if Hit(ranked, truth) != 0 || Recall(ranked, truth) != 0 ||
		Precision(ranked, truth) != 0 || MRR(ranked, truth) != 0 || NDCG(ranked, truth) != 0 {
		t.Error("all metrics must be 0 without hits")
	}
}

func TestNDCG_KnownValue(t *testing.T) {
	// 命中位置 1 和 3（0 起），truth 共 2 个
	ranked := []int64{1, 8, 3, 9}
	truth := truthSet(1, 3)

	dcg := 1/math.Log2(2) + 1/math.Log2(4)
	idcg := 1/math.Log2(2) + 1/math.Log2(3)
	want := dcg / idcg
	if got := NDCG(ranked, truth); math.Abs(got-want) > tol {
		t.Errorf("NDCG = %v, want %v", got, want)
	}
}

func TestNDCG_PerfectRankingIsOne(t *testing.T) {
	ranked := []int64{1, 3}
	truth := truthSet(1, 3)
	if got := NDCG(ranked, truth); math.Abs(got-1) > tol {
		t.Errorf("NDCG of perfect ranking = %v, want 1", got)
	}
}

func TestRankingMetrics_EmptyInputs(t *testing.T) {
	if Recall(nil, map[int64]bool{}) != 0 {
		t.Error("Recall with empty truth must be 0")
	}
	if Precision(nil, truthSet(1)) != 0 {
		t.Error("Precision of empty list must be 0")
	}
	if NDCG(nil, truthSet(1)) != 0 {
		t.Error("NDCG of empty list must be 0")
	}
}
