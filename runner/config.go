package runner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/divrec/core"
)

// DatasetConfig 描述数据集加载与切分方式。
type DatasetConfig struct {
	// Path 是 RecBole .inter 风格的 TSV/CSV 交互文件路径
	Path string `yaml:"path"`

	// Split 是切分方式：ratio（按比例随机切分）或 leave_one_out（留一法）
	Split string `yaml:"split"`

	// Ratio 是训练集比例，仅 split=ratio 时生效
	Ratio float64 `yaml:"ratio"`

	// Seed 是切分与重采样的随机种子
	Seed int64 `yaml:"seed"`

	// OversampleTail 长尾过采样比例（0 表示关闭），与 UndersampleHead 互斥
	OversampleTail float64 `yaml:"oversample_tail"`
	// UndersampleHead 头部欠采样比例（0 表示关闭）
	UndersampleHead float64 `yaml:"undersample_head"`
}

// ModelConfig 描述打分模型。
type ModelConfig struct {
	// Method 是模型注册表中的名字，例如 "bpr" / "random"
	Method string `yaml:"method"`

	// EmbeddingSize 是 embedding 维度
	EmbeddingSize int `yaml:"embedding_size"`

	// 训练超参（仅可训练模型使用）
	Epochs       int     `yaml:"epochs"`
	LearningRate float64 `yaml:"learning_rate"`
	Reg          float64 `yaml:"reg"`
	Seed         int64   `yaml:"seed"`

	// Checkpoint 是模型检查点路径；文件存在时直接加载、跳过训练，
	// 训练完成后会保存到该路径（空表示不持久化）
	Checkpoint string `yaml:"checkpoint"`
}

// EvalConfig 描述评估参数。
type EvalConfig struct {
	// TopK 是指标名的 @K 后缀；0 时取重排列表长度
	TopK int `yaml:"top_k"`

	// TailRatio 是 TailPercentage 的长尾分位，默认 0.8
	TailRatio float64 `yaml:"tail_ratio"`
}

// RerankGridConfig 在基础重排配置之上描述 λ 网格搜索。
type RerankGridConfig struct {
	core.RerankConfig `yaml:",inline"`

	// LambdaGrid 非空时，对每个 λ 复用同一相似度矩阵重排并评估
	LambdaGrid []float64 `yaml:"lambda_grid"`
}

// RunConfig 是一次实验的完整配置，加载后不再修改。
type RunConfig struct {
	Dataset DatasetConfig    `yaml:"dataset"`
	Model   ModelConfig      `yaml:"model"`
	Rerank  RerankGridConfig `yaml:"rerank"`
	Eval    EvalConfig       `yaml:"eval"`

	// BatchSize 是全量打分的用户批大小，0 取 512
	BatchSize int `yaml:"batch_size"`

	// Output 是指标 JSON 的输出路径（空表示不落盘）
	Output string `yaml:"output"`
}

// DefaultRunConfig 返回带默认值的运行配置。
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Dataset: DatasetConfig{
			Split: "ratio",
			Ratio: 0.8,
			Seed:  2020,
		},
		Model: ModelConfig{
			Method:        "bpr",
			EmbeddingSize: 64,
			Epochs:        10,
			LearningRate:  0.01,
			Reg:           0.01,
			Seed:          2020,
		},
		Rerank: RerankGridConfig{RerankConfig: core.DefaultRerankConfig()},
		Eval:   EvalConfig{TopK: 20, TailRatio: 0.8},
	}
}

// LoadRunConfig 从 YAML 文件加载运行配置，未出现的字段保持默认值。
func LoadRunConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run config: %w", err)
	}
	cfg := DefaultRunConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse run config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置的基本合法性；重排参数由 core.RerankConfig.Validate 负责。
func (c *RunConfig) Validate() error {
	if c.Model.Method == "" {
		return core.NewDomainError(core.ModuleRunner, core.ErrorCodeInvalidParameter, "model.method is empty")
	}
	switch c.Dataset.Split {
	case "", "ratio", "leave_one_out":
	default:
		return core.NewDomainErrorf(core.ModuleRunner, core.ErrorCodeInvalidParameter,
			"unknown dataset.split %q (supported: ratio, leave_one_out)", c.Dataset.Split)
	}
	if c.Dataset.OversampleTail > 0 && c.Dataset.UndersampleHead > 0 {
		return core.NewDomainError(core.ModuleRunner, core.ErrorCodeInvalidParameter,
			"oversample_tail and undersample_head are mutually exclusive")
	}
	if err := c.Rerank.Validate(); err != nil {
		return err
	}
	for _, lambda := range c.Rerank.LambdaGrid {
		if lambda < 0 || lambda > 1 {
			return core.NewDomainErrorf(core.ModuleRunner, core.ErrorCodeInvalidParameter,
				"lambda_grid value %v out of range [0, 1]", lambda)
		}
	}
	return nil
}
