package core

// RerankConfig 是 MMR 重排的配置值。
//
// 设计原则：
//   - 值类型、不可变：构造后按值传入每次调用，任何 Node/Runner 不得原地修改
//   - 所有参数在计算开始前校验，校验失败不做任何部分工作
type RerankConfig struct {
	// LambdaMMR 是相关性与多样性的权衡系数 λ ∈ [0, 1]。
	// λ = 1 退化为纯相关性排序；λ = 0 退化为纯多样性最大化。
	LambdaMMR float64 `yaml:"lambda_mmr" json:"lambda_mmr"`

	// TopK 是每个用户输出列表的长度上限，必须 > 0。
	TopK int `yaml:"top_k" json:"top_k"`

	// NItems 是贪心选择前的 Top-K 预筛宽度，必须 > 0。
	// 大于目录规模时收敛到目录规模（不报错）。
	NItems int `yaml:"n_items" json:"n_items"`
}

// DefaultRerankConfig 返回默认配置：λ=0.5、top_k=20、n_items=500。
func DefaultRerankConfig() RerankConfig {
	return RerankConfig{
		LambdaMMR: 0.5,
		TopK:      20,
		NItems:    500,
	}
}

// Validate 校验配置参数，越界时返回 INVALID_PARAMETER。
func (c RerankConfig) Validate() error {
	if c.LambdaMMR < 0 || c.LambdaMMR > 1 {
		return NewDomainErrorf(ModuleRerank, ErrorCodeInvalidParameter,
			"lambda_mmr must be in [0, 1], got %v", c.LambdaMMR)
	}
	if c.TopK <= 0 {
		return NewDomainErrorf(ModuleRerank, ErrorCodeInvalidParameter,
			"top_k must be > 0, got %d", c.TopK)
	}
	if c.NItems <= 0 {
		return NewDomainErrorf(ModuleRerank, ErrorCodeInvalidParameter,
			"n_items must be > 0, got %d", c.NItems)
	}
	return nil
}
