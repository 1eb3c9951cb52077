package core

import "context"

// ScoreProducer 是分数生产方的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（model）实现
//   - 遵循依赖倒置原则：领域层定义接口，基础设施层实现接口
//
// 使用场景：
//   - 全量排序评估：对给定用户集合，计算其对目录内每个物品的相关性分数
//   - MMR 重排的上游：输出的 ScoreMatrix 与 Catalog 一起交给 rerank
//
// 实现：
//   - model.BPRModel 实现此接口（embedding 点积）
//   - model.RandomModel 实现此接口（随机基线）
//   - model.StoreModel 实现此接口（离线 embedding 查表）
type ScoreProducer interface {
	// Name 返回模型名称（用于注册表/指标归档）
	Name() string

	// FullSortPredict 对 userIdx 中的每个用户计算其对目录内全部物品的分数，
	// 返回 len(userIdx) × N 的分数矩阵。
	FullSortPredict(ctx context.Context, userIdx []int64) (*ScoreMatrix, error)

	// Catalog 返回当前物品 embedding 目录（只读共享）。
	Catalog() (*ItemCatalog, error)
}
