package filter

import (
	"context"

	"github.com/rushteam/divrec/core"
)

// HistoryFilter 是交互历史过滤器，过滤掉用户已经交互过的物品。
// 全量排序评估时用于屏蔽训练集交互（不把用户已看过的物品再推荐给他）。
//
// 支持两种数据源：
// 1. 内存集合（InMemory）- 直接由数据集的训练历史构建，离线评估用
// 2. HistoryStore - 在线形态，ID 列表（近期）+ 布隆过滤器（长周期，按天维度）
type HistoryFilter struct {
	// InMemory 是每用户的已交互物品集合；非 nil 时优先使用，不再访问 Store。
	InMemory map[int64]map[int64]bool

	// Store 用于从存储中读取用户交互历史
	Store HistoryStore

	// KeyPrefix 是 Store 中的 key 前缀
	// 对于 ID 列表：实际 key 为 {KeyPrefix}:{UserID}
	// 对于布隆过滤器：实际 key 为 {KeyPrefix}:bloom:{UserID}:{date}
	KeyPrefix string

	// TimeWindow 是历史时间窗口（秒），用于 ID 列表（近期数据）
	TimeWindow int64

	// BloomFilterDayWindow 是布隆过滤器的时间窗口（天数），用于较长周期数据
	// 如果为 0，则不使用布隆过滤器
	BloomFilterDayWindow int
}

// HistoryStore 是交互历史存储接口。
type HistoryStore interface {
	// GetInteractedItems 获取用户在指定时间窗口内已交互的物品 ID 列表（近期数据）
	GetInteractedItems(ctx context.Context, userID string, keyPrefix string, timeWindow int64) ([]int64, error)

	// CheckInteractedInBloomFilter 检查物品是否在布隆过滤器中（较长周期数据，按天维度）
	// 返回 true 表示可能在布隆过滤器中（存在误判可能），false 表示一定不在
	CheckInteractedInBloomFilter(ctx context.Context, userID string, itemID int64, keyPrefix string, dayWindow int) (bool, error)
}

// NewHistoryFilterFromSets 用内存历史集合创建过滤器（离线评估形态）。
func NewHistoryFilterFromSets(history map[int64]map[int64]bool) *HistoryFilter {
	return &HistoryFilter{InMemory: history}
}

// NewHistoryFilter 用 Store 创建过滤器（在线形态）。
// timeWindow 是 ID 列表的时间窗口（秒）；bloomFilterDayWindow 为 0 时不使用布隆过滤器。
func NewHistoryFilter(storeAdapter *StoreAdapter, keyPrefix string, timeWindow int64, bloomFilterDayWindow int) *HistoryFilter {
	var store HistoryStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &HistoryFilter{
		Store:                store,
		KeyPrefix:            keyPrefix,
		TimeWindow:           timeWindow,
		BloomFilterDayWindow: bloomFilterDayWindow,
	}
}

func (f *HistoryFilter) Name() string {
	return "filter.history"
}

func (f *HistoryFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil {
		return false, nil
	}

	if f.InMemory != nil {
		if rctx.UserIndex < 0 {
			return false, nil
		}
		return f.InMemory[rctx.UserIndex][item.ID], nil
	}

	if f.Store == nil || rctx.UserID == "" {
		return false, nil
	}

	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "user:history"
	}

	// 1. 检查 ID 列表集合（近期数据）
	if f.TimeWindow > 0 {
		ids, err := f.Store.GetInteractedItems(ctx, rctx.UserID, keyPrefix, f.TimeWindow)
		if err == nil {
			for _, id := range ids {
				if item.ID == id {
					return true, nil
				}
			}
		}
		// ID 列表检查失败时继续检查布隆过滤器
	}

	// 2. 检查布隆过滤器（较长周期数据，按天维度）
	if f.BloomFilterDayWindow > 0 {
		exists, err := f.Store.CheckInteractedInBloomFilter(ctx, rctx.UserID, item.ID, keyPrefix, f.BloomFilterDayWindow)
		if err == nil && exists {
			// 布隆过滤器存在误判可能，为安全起见视为已交互
			return true, nil
		}
	}

	return false, nil
}
