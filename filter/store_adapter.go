package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rushteam/divrec/core"
)

// BloomFilterChecker 是布隆过滤器检查器接口。
// 用户可以通过实现此接口来提供自定义的布隆过滤器检查逻辑（见 ext/store/redis）。
type BloomFilterChecker interface {
	// CheckInBloomFilter 检查 itemID 是否在指定 key 的布隆过滤器中
	// key 格式为 {keyPrefix}:bloom:{userID}:{date}
	// 返回 true 表示可能在布隆过滤器中（存在误判可能），false 表示一定不在
	CheckInBloomFilter(ctx context.Context, key string, itemID int64) (bool, error)
}

// StoreAdapter 将 core.Store 适配为过滤器所需的存储接口。
type StoreAdapter struct {
	store core.Store

	// BloomFilterChecker 是可选的布隆过滤器检查器
	// 如果为 nil，CheckInteractedInBloomFilter 将返回 false（未实现）
	BloomFilterChecker BloomFilterChecker
}

// NewStoreAdapter 创建一个 core.Store 适配器。
func NewStoreAdapter(s core.Store) *StoreAdapter {
	return &StoreAdapter{store: s}
}

// NewStoreAdapterWithBloomFilter 创建一个带布隆过滤器检查器的 core.Store 适配器。
func NewStoreAdapterWithBloomFilter(s core.Store, checker BloomFilterChecker) *StoreAdapter {
	return &StoreAdapter{
		store:              s,
		BloomFilterChecker: checker,
	}
}

// GetBlacklist 从 Store 读取黑名单。
func (a *StoreAdapter) GetBlacklist(ctx context.Context, key string) ([]int64, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// GetInteractedItems 从 Store 读取用户交互历史。
// 支持两种存储格式：简单 ID 数组，或带时间戳的 {item_id, timestamp} 数组
// （后者按 timeWindow 过滤过期记录）。
func (a *StoreAdapter) GetInteractedItems(ctx context.Context, userID string, keyPrefix string, timeWindow int64) ([]int64, error) {
	key := keyPrefix + ":" + userID
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var ids []int64
	if err := json.Unmarshal(data, &ids); err == nil {
		return ids, nil
	}

	var items []struct {
		ItemID    int64 `json:"item_id"`
		Timestamp int64 `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &items); err == nil {
		cutoff := time.Now().Unix() - timeWindow
		ids = make([]int64, 0, len(items))
		for _, item := range items {
			if timeWindow > 0 && item.Timestamp < cutoff {
				continue
			}
			ids = append(ids, item.ItemID)
		}
		return ids, nil
	}

	return nil, err
}

// CheckInteractedInBloomFilter 检查物品是否在布隆过滤器中（较长周期数据，按天维度）。
// dayWindow 是时间窗口（天数），检查最近 dayWindow 天内的布隆过滤器。
//
// 布隆过滤器的 key 格式：{keyPrefix}:bloom:{userID}:{date}，其中 date 为 YYYYMMDD 格式。
// 此方法需要设置 BloomFilterChecker，否则返回 false（未实现）。
func (a *StoreAdapter) CheckInteractedInBloomFilter(ctx context.Context, userID string, itemID int64, keyPrefix string, dayWindow int) (bool, error) {
	if a.BloomFilterChecker == nil {
		return false, nil
	}
	if dayWindow <= 0 {
		return false, nil
	}

	now := time.Now()
	for i := 0; i < dayWindow; i++ {
		date := now.AddDate(0, 0, -i)
		key := fmt.Sprintf("%s:bloom:%s:%s", keyPrefix, userID, date.Format("20060102"))

		exists, err := a.BloomFilterChecker.CheckInBloomFilter(ctx, key, itemID)
		if err != nil {
			// 单天检查失败时继续检查其他日期
			continue
		}
		if exists {
			return true, nil
		}
	}
	return false, nil
}

// 确保 StoreAdapter 同时满足历史与黑名单的存储接口
var (
	_ HistoryStore   = (*StoreAdapter)(nil)
	_ BlacklistStore = (*StoreAdapter)(nil)
)
