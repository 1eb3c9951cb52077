package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rushteam/divrec/dataset"
	"github.com/rushteam/divrec/rerank"
)

// Report 是一次评估的指标归档：指标名 -> 数值。
// 指标名带 @K 后缀（如 "Recall@20"），与评估时的列表长度对应。
type Report map[string]float64

// SaveJSON 把指标结果写入 JSON 文件（原始系统的 metrics_results 归档格式）。
func (r Report) SaveJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// LoadReportJSON 从 JSON 文件读取指标归档。
func LoadReportJSON(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return r, nil
}

// Names 返回按字典序排列的指标名（用于稳定输出）。
func (r Report) Names() []string {
	names := make([]string, 0, len(r))
	for k := range r {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Evaluator 对一批用户的重排结果计算指标。
type Evaluator struct {
	// TopK 是指标名中的 @K 后缀；0 时取首个列表的长度。
	TopK int

	// TailRatio 是 TailPercentage 的长尾分位，默认 0.8。
	TailRatio float64
}

// Evaluate 计算全部排序与多样性指标。
//
// rankings[i] 是 users[i] 的重排结果；ground truth 取自数据集的测试交互。
// sim 可为 nil，此时跳过 IntraListSimilarity。
func (e *Evaluator) Evaluate(
	rankings []rerank.UserRanking,
	users []int64,
	ds *dataset.Dataset,
	sim *rerank.SimilarityMatrix,
) Report {
	topK := e.TopK
	if topK == 0 && len(rankings) > 0 {
		topK = len(rankings[0].Items)
	}
	tailRatio := e.TailRatio
	if tailRatio == 0 {
		tailRatio = 0.8
	}

	var hit, recall, precision, mrr, ndcg float64
	evaluated := 0
	lists := make([][]int64, 0, len(rankings))

	for i, ranking := range rankings {
		lists = append(lists, ranking.Items)

		truthItems := ds.TestItems(users[i])
		if len(truthItems) == 0 {
			continue
		}
		truth := make(map[int64]bool, len(truthItems))
		for _, id := range truthItems {
			truth[id] = true
		}

		hit += Hit(ranking.Items, truth)
		recall += Recall(ranking.Items, truth)
		precision += Precision(ranking.Items, truth)
		mrr += MRR(ranking.Items, truth)
		ndcg += NDCG(ranking.Items, truth)
		evaluated++
	}

	report := Report{}
	if evaluated > 0 {
		n := float64(evaluated)
		report[fmt.Sprintf("Hit@%d", topK)] = hit / n
		report[fmt.Sprintf("Recall@%d", topK)] = recall / n
		report[fmt.Sprintf("Precision@%d", topK)] = precision / n
		report[fmt.Sprintf("MRR@%d", topK)] = mrr / n
		report[fmt.Sprintf("NDCG@%d", topK)] = ndcg / n
	}

	pop := ds.ItemPopularity()
	report[fmt.Sprintf("ShannonEntropy@%d", topK)] = ShannonEntropy(lists)
	report[fmt.Sprintf("ItemCoverage@%d", topK)] = ItemCoverage(lists, ds.NumItems)
	report[fmt.Sprintf("TailPercentage@%d", topK)] = TailPercentage(lists, pop, tailRatio)
	report[fmt.Sprintf("Novelty@%d", topK)] = Novelty(lists, pop)
	if sim != nil {
		report[fmt.Sprintf("IntraListSimilarity@%d", topK)] = IntraListSimilarity(lists, sim)
	}
	return report
}
