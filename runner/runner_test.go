package runner

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/dataset"
)

func tinyDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	train := []dataset.Interaction{
		{UserID: 0, ItemID: 0}, {UserID: 0, ItemID: 1},
		{UserID: 1, ItemID: 1}, {UserID: 1, ItemID: 2},
		{UserID: 2, ItemID: 2}, {UserID: 2, ItemID: 3},
	}
	test := []dataset.Interaction{
		{UserID: 0, ItemID: 2},
		{UserID: 1, ItemID: 3},
		{UserID: 2, ItemID: 0},
	}
	ds, err := dataset.New(3, 4, train, test)
	if err != nil {
		t.Fatalf("dataset.New: %v", err)
	}
	return ds
}

func tinyRunConfig() RunConfig {
	cfg := DefaultRunConfig()
	cfg.Model = ModelConfig{Method: "random", EmbeddingSize: 8, Seed: 1}
	cfg.Rerank.RerankConfig = core.RerankConfig{LambdaMMR: 0.5, TopK: 2, NItems: 4}
	cfg.Eval = EvalConfig{TopK: 2, TailRatio: 0.8}
	return cfg
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, nil); !core.IsInvalidParameter(err) {
		t.Fatalf("err = %v, want INVALID_PARAMETER", err)
	}
}

func TestRunner_Run(t *testing.T) {
	cfg := tinyRunConfig()
	cfg.Output = filepath.Join(t.TempDir(), "metrics.json")

	r, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Dataset = tinyDataset(t)

	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, name := range []string{"Hit@2", "Recall@2", "NDCG@2", "MRR@2", "ItemCoverage@2", "IntraListSimilarity@2"} {
		if _, ok := report[name]; !ok {
			t.Errorf("report missing %q, have %v", name, report.Names())
		}
	}

	// 指标报告落盘为 JSON
	data, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var saved map[string]float64
	if err := json.Unmarshal(data, &saved); err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(saved) != len(report) {
		t.Errorf("saved %d metrics, report has %d", len(saved), len(report))
	}
}

func TestRunner_RunIsDeterministic(t *testing.T) {
	run := func() string {
		cfg := tinyRunConfig()
		r, err := New(&cfg, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		r.Dataset = tinyDataset(t)
		report, err := r.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		data, _ := json.Marshal(report)
		return string(data)
	}
	if a, b := run(), run(); a != b {
		t.Errorf("two runs diverge:\n%s\n%s", a, b)
	}
}

func TestRunner_PredictMaskedHidesTrainHistory(t *testing.T) {
	cfg := tinyRunConfig()
	r, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ds := tinyDataset(t)
	r.Dataset = ds

	producer, err := r.prepareModel(context.Background(), ds)
	if err != nil {
		t.Fatalf("prepareModel: %v", err)
	}

	users := ds.EvalUsers()
	scores, err := r.predictMasked(context.Background(), ds, producer, users)
	if err != nil {
		t.Fatalf("predictMasked: %v", err)
	}
	for bi, u := range users {
		row := scores.Row(bi)
		for itemID, s := range row {
			seen := ds.HasTrainInteraction(u, int64(itemID))
			if seen && !math.IsInf(s, -1) {
				t.Errorf("user %d item %d: train interaction not masked (score %v)", u, itemID, s)
			}
			if !seen && math.IsInf(s, -1) {
				t.Errorf("user %d item %d: unseen item masked", u, itemID)
			}
		}
	}
}

func TestRunner_GridSearch(t *testing.T) {
	cfg := tinyRunConfig()
	cfg.Rerank.LambdaGrid = []float64{0, 1}
	cfg.Output = filepath.Join(t.TempDir(), "grid.json")

	r, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Dataset = tinyDataset(t)

	reports, err := r.GridSearch(context.Background())
	if err != nil {
		t.Fatalf("GridSearch: %v", err)
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	for _, lambda := range []float64{0, 1} {
		if _, ok := reports[lambda]["Hit@2"]; !ok {
			t.Errorf("lambda %v report missing Hit@2: %v", lambda, reports[lambda].Names())
		}
	}

	data, err := os.ReadFile(cfg.Output)
	if err != nil {
		t.Fatalf("read grid output: %v", err)
	}
	var merged map[string]float64
	if err := json.Unmarshal(data, &merged); err != nil {
		t.Fatalf("parse grid output: %v", err)
	}
	if _, ok := merged["lambda=0/Hit@2"]; !ok {
		t.Errorf("merged output missing lambda=0/Hit@2, keys: %v", len(merged))
	}
	if _, ok := merged["lambda=1/Hit@2"]; !ok {
		t.Error("merged output missing lambda=1/Hit@2")
	}
}

func TestRunner_RankingsExcludeTrainHistory(t *testing.T) {
	// 被 -Inf 屏蔽的训练集物品必须排除在推荐列表之外，对网格中的
	// 每个 λ 都成立（λ=0 时 λ·(-Inf) 为 NaN，是最容易泄漏的配置）。
	// 每个用户有 2 条训练交互、目录共 4 个物品，top_k=4 下列表收窄到 2。
	for _, lambda := range []float64{0, 0.5, 1} {
		cfg := tinyRunConfig()
		cfg.Rerank.RerankConfig = core.RerankConfig{LambdaMMR: lambda, TopK: 4, NItems: 4}

		r, err := New(&cfg, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		ds := tinyDataset(t)
		r.Dataset = ds

		producer, err := r.prepareModel(context.Background(), ds)
		if err != nil {
			t.Fatalf("prepareModel: %v", err)
		}
		rankings, users, _, err := r.scoreAndRerank(context.Background(), ds, producer, cfg.Rerank.RerankConfig)
		if err != nil {
			t.Fatalf("scoreAndRerank: %v", err)
		}
		for i, u := range users {
			if got := len(rankings[i].Items); got != 2 {
				t.Errorf("lambda=%v user %d: list length %d, want 2 (finite pool)", lambda, u, got)
			}
			for _, item := range rankings[i].Items {
				if ds.HasTrainInteraction(u, item) {
					t.Errorf("lambda=%v user %d: recommended item %d is in train history", lambda, u, item)
				}
			}
		}
	}
}

func TestRunner_GridSearchRequiresGrid(t *testing.T) {
	cfg := tinyRunConfig()
	r, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Dataset = tinyDataset(t)
	if _, err := r.GridSearch(context.Background()); !core.IsInvalidParameter(err) {
		t.Fatalf("err = %v, want INVALID_PARAMETER", err)
	}
}

func TestRunner_LoadsDatasetFromFile(t *testing.T) {
	inter := "user_id:token\titem_id:token\trating:float\ttimestamp:float\n" +
		"0\t0\t5\t1\n0\t1\t4\t2\n0\t2\t3\t3\n" +
		"1\t1\t5\t1\n1\t2\t4\t2\n1\t3\t3\t3\n"
	path := filepath.Join(t.TempDir(), "tiny.inter")
	if err := os.WriteFile(path, []byte(inter), 0o644); err != nil {
		t.Fatalf("write interactions: %v", err)
	}

	cfg := tinyRunConfig()
	cfg.Dataset = DatasetConfig{Path: path, Split: "leave_one_out"}

	r, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report) == 0 {
		t.Fatal("empty report")
	}
}

func TestRunner_BPRCheckpointRoundTrip(t *testing.T) {
	ckpt := filepath.Join(t.TempDir(), "bpr.json")
	cfg := tinyRunConfig()
	cfg.Model = ModelConfig{
		Method: "bpr", EmbeddingSize: 4, Epochs: 2,
		LearningRate: 0.05, Reg: 0.01, Seed: 7,
		Checkpoint: ckpt,
	}

	r, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Dataset = tinyDataset(t)
	first, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if _, err := os.Stat(ckpt); err != nil {
		t.Fatalf("checkpoint not written: %v", err)
	}

	// 第二次运行走检查点加载，指标应完全一致
	r2, err := New(&cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r2.Dataset = tinyDataset(t)
	second, err := r2.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	for name, v := range first {
		if math.Abs(second[name]-v) > 1e-9 {
			t.Errorf("%s: first %v, second %v", name, v, second[name])
		}
	}
}

func TestCountEntities(t *testing.T) {
	interactions := []dataset.Interaction{
		{UserID: 0, ItemID: 5},
		{UserID: 3, ItemID: 2},
	}
	users, items := countEntities(interactions)
	if users != 4 || items != 6 {
		t.Errorf("countEntities = (%d, %d), want (4, 6)", users, items)
	}
}
