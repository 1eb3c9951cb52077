package core

import "github.com/rushteam/divrec/pkg/utils"

// RecommendContext 承载用户/场景信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// UserID 是外部用户标识（通用，支持所有 ID 格式）
	UserID string

	// UserIndex 是用户在 embedding 表中的行号；未知时为 -1
	UserIndex int64

	Scene string

	// UserVector 是用户的 embedding 向量（可选）。
	// 为空时由各 Node 自行从 EmbeddingStore 获取。
	UserVector []float64

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：新用户、重度用户、长尾偏好等
	Labels map[string]utils.Label

	// Params 请求级上下文参数（query、device_type、实时特征等）
	Params map[string]any
}

// NewRecommendContext 创建一个空的请求上下文，UserIndex 默认 -1。
func NewRecommendContext(userID string) *RecommendContext {
	return &RecommendContext{
		UserID:    userID,
		UserIndex: -1,
		Labels:    make(map[string]utils.Label),
		Params:    make(map[string]any),
	}
}

// PutLabel 写入用户级 Label，同名 key 按默认 Merge 规则累积。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}
