package model

import "math"

// EmbeddingModel 是 embedding 模型的统一抽象：用户向量 + 物品目录。
// 实现方同时实现 core.ScoreProducer，向重排/评估层提供全量分数。
type EmbeddingModel interface {
	// Name 返回模型名称（注册表 key）
	Name() string

	// UserEmbedding 返回用户 u 的 embedding 向量
	UserEmbedding(u int64) ([]float64, error)
}

// dotProduct 计算向量内积。
func dotProduct(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// cosineSimilarity 计算余弦相似度。
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}
	dot := dotProduct(a, b)
	normA := 0.0
	normB := 0.0
	for i := range a {
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sigmoid 是标准 sigmoid 函数。
func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
