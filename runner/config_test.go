package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/divrec/core"
)

func TestDefaultRunConfig(t *testing.T) {
	cfg := DefaultRunConfig()
	if cfg.Model.Method != "bpr" {
		t.Errorf("default method = %q, want bpr", cfg.Model.Method)
	}
	if cfg.Dataset.Split != "ratio" || cfg.Dataset.Ratio != 0.8 {
		t.Errorf("default split = %q/%v", cfg.Dataset.Split, cfg.Dataset.Ratio)
	}
	if cfg.Rerank.LambdaMMR != 0.5 || cfg.Rerank.TopK != 20 {
		t.Errorf("default rerank = %+v", cfg.Rerank.RerankConfig)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
}

func TestRunConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"empty method", func(c *RunConfig) { c.Model.Method = "" }},
		{"unknown split", func(c *RunConfig) { c.Dataset.Split = "kfold" }},
		{"resample conflict", func(c *RunConfig) {
			c.Dataset.OversampleTail = 0.5
			c.Dataset.UndersampleHead = 0.5
		}},
		{"lambda out of range", func(c *RunConfig) { c.Rerank.LambdaMMR = 1.5 }},
		{"grid lambda out of range", func(c *RunConfig) { c.Rerank.LambdaGrid = []float64{0.5, -0.1} }},
		{"zero top_k", func(c *RunConfig) { c.Rerank.TopK = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRunConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadRunConfig(t *testing.T) {
	yaml := `
dataset:
  path: data/ml-100k.inter
  split: leave_one_out
model:
  method: random
  embedding_size: 16
rerank:
  lambda_mmr: 0.7
  top_k: 10
  n_items: 100
  lambda_grid: [0.0, 0.5, 1.0]
eval:
  top_k: 10
batch_size: 128
output: out/metrics.json
`
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadRunConfig(path)
	if err != nil {
		t.Fatalf("LoadRunConfig: %v", err)
	}
	if cfg.Dataset.Split != "leave_one_out" || cfg.Model.Method != "random" {
		t.Errorf("parsed = %+v", cfg)
	}
	if cfg.Rerank.LambdaMMR != 0.7 || cfg.Rerank.TopK != 10 || cfg.Rerank.NItems != 100 {
		t.Errorf("rerank = %+v", cfg.Rerank)
	}
	if len(cfg.Rerank.LambdaGrid) != 3 {
		t.Errorf("lambda_grid = %v", cfg.Rerank.LambdaGrid)
	}
	// 未出现的字段保持默认值
	if cfg.Dataset.Ratio != 0.8 || cfg.Model.Epochs != 10 {
		t.Errorf("defaults not preserved: ratio=%v epochs=%d", cfg.Dataset.Ratio, cfg.Model.Epochs)
	}
	if cfg.BatchSize != 128 || cfg.Output != "out/metrics.json" {
		t.Errorf("batch=%d output=%q", cfg.BatchSize, cfg.Output)
	}
}

func TestLoadRunConfig_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("rerank:\n  lambda_mmr: 2.0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadRunConfig(path); !core.IsInvalidParameter(err) {
		t.Fatalf("err = %v, want INVALID_PARAMETER", err)
	}
}

func TestSupportedMethods(t *testing.T) {
	names := SupportedMethods()
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	if !found["bpr"] || !found["random"] {
		t.Errorf("SupportedMethods = %v, want bpr and random registered", names)
	}
}
