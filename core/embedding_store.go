package core

import "context"

// EmbeddingStore 是 embedding 查表的领域接口，用于离线训练、在线查表的部署形态。
//
// 实现：
//   - store.MemoryEmbeddingStore 实现此接口
//   - store.RedisEmbeddingStore 实现此接口
type EmbeddingStore interface {
	// GetUserVector 获取用户的 embedding 向量
	GetUserVector(ctx context.Context, userID int64) ([]float64, error)

	// GetItemVector 获取物品的 embedding 向量
	GetItemVector(ctx context.Context, itemID int64) ([]float64, error)

	// GetAllItemVectors 获取所有物品的 embedding 向量（用于构建目录）
	GetAllItemVectors(ctx context.Context) (map[int64][]float64, error)
}
