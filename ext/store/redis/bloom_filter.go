package redis

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/redis/go-redis/v9"

	"github.com/rushteam/divrec/filter"
	divstore "github.com/rushteam/divrec/store"
)

// RedisBloomFilterChecker 是基于 Redis 和 bits-and-blooms/bloom 的布隆过滤器检查器。
// 实现了 filter.BloomFilterChecker 接口，用于历史过滤器的布隆过滤器检查。
//
// 使用方式：
//
//	checker := redis.NewRedisBloomFilterChecker(redisStore, 1000000, 0.01)
//	adapter := filter.NewStoreAdapterWithBloomFilter(store, checker)
//	historyFilter := filter.NewHistoryFilter(adapter, "user:history", 7*24*3600, 30)
//
// 确保实现了 filter.BloomFilterChecker 接口
var _ filter.BloomFilterChecker = (*RedisBloomFilterChecker)(nil)

type RedisBloomFilterChecker struct {
	client *redis.Client

	// capacity 是预期容量（元素数量）
	capacity uint
	// falsePositiveRate 是期望的误判率（例如 0.01 表示 1%）
	falsePositiveRate float64

	// 本地缓存，避免频繁从 Redis 读取和反序列化
	cache map[string]*bloom.BloomFilter
	mu    sync.RWMutex
}

// NewRedisBloomFilterChecker 创建一个新的 Redis 布隆过滤器检查器。
//
// 参数：
//   - store: RedisStore 实例
//   - capacity: 预期容量（元素数量），例如 1000000 表示预期存储 100 万个元素
//   - falsePositiveRate: 期望的误判率，例如 0.01 表示 1% 的误判率
func NewRedisBloomFilterChecker(store *divstore.RedisStore, capacity uint, falsePositiveRate float64) *RedisBloomFilterChecker {
	return &RedisBloomFilterChecker{
		client:            store.GetClient(),
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
		cache:             make(map[string]*bloom.BloomFilter),
	}
}

// NewRedisBloomFilterCheckerWithClient 使用 *redis.Client 创建布隆过滤器检查器（高级用法）。
func NewRedisBloomFilterCheckerWithClient(client *redis.Client, capacity uint, falsePositiveRate float64) *RedisBloomFilterChecker {
	return &RedisBloomFilterChecker{
		client:            client,
		capacity:          capacity,
		falsePositiveRate: falsePositiveRate,
		cache:             make(map[string]*bloom.BloomFilter),
	}
}

// itemKey 将 int64 物品 ID 编码为布隆过滤器的成员字节串。
func itemKey(itemID int64) []byte {
	return []byte(strconv.FormatInt(itemID, 10))
}

// CheckInBloomFilter 检查 itemID 是否在指定 key 的布隆过滤器中。
// 实现了 filter.BloomFilterChecker 接口。
//
// 返回 true 表示可能在布隆过滤器中（存在误判可能），false 表示一定不在。
func (r *RedisBloomFilterChecker) CheckInBloomFilter(ctx context.Context, key string, itemID int64) (bool, error) {
	r.mu.RLock()
	cached, exists := r.cache[key]
	r.mu.RUnlock()

	if exists && cached != nil {
		return cached.Test(itemKey(itemID)), nil
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		// 布隆过滤器不存在，表示一定不在
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get bloom filter from redis: %w", err)
	}

	bf := bloom.NewWithEstimates(r.capacity, r.falsePositiveRate)
	if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
		return false, fmt.Errorf("failed to deserialize bloom filter: %w", err)
	}

	r.mu.Lock()
	r.cache[key] = bf
	r.mu.Unlock()

	return bf.Test(itemKey(itemID)), nil
}

// AddToBloomFilter 将 itemID 添加到指定 key 的布隆过滤器中。
// 用于数据写入场景（例如交互数据收集）。ttl 为过期时间（秒），0 表示不过期。
func (r *RedisBloomFilterChecker) AddToBloomFilter(ctx context.Context, key string, itemID int64, ttl int) error {
	return r.BatchAddToBloomFilter(ctx, key, []int64{itemID}, ttl)
}

// BatchAddToBloomFilter 批量将 itemIDs 添加到指定 key 的布隆过滤器中。
func (r *RedisBloomFilterChecker) BatchAddToBloomFilter(ctx context.Context, key string, itemIDs []int64, ttl int) error {
	r.mu.RLock()
	cached, exists := r.cache[key]
	r.mu.RUnlock()

	var bf *bloom.BloomFilter
	if exists && cached != nil {
		bf = cached
	} else {
		data, err := r.client.Get(ctx, key).Bytes()
		if err == redis.Nil {
			bf = bloom.NewWithEstimates(r.capacity, r.falsePositiveRate)
		} else if err != nil {
			return fmt.Errorf("failed to get bloom filter from redis: %w", err)
		} else {
			bf = bloom.NewWithEstimates(r.capacity, r.falsePositiveRate)
			if _, err := bf.ReadFrom(bytes.NewReader(data)); err != nil {
				return fmt.Errorf("failed to deserialize bloom filter: %w", err)
			}
		}
	}

	for _, itemID := range itemIDs {
		bf.Add(itemKey(itemID))
	}

	var buf bytes.Buffer
	if _, err := bf.WriteTo(&buf); err != nil {
		return fmt.Errorf("failed to serialize bloom filter: %w", err)
	}

	var expiration time.Duration
	if ttl > 0 {
		expiration = time.Duration(ttl) * time.Second
	}

	if err := r.client.Set(ctx, key, buf.Bytes(), expiration).Err(); err != nil {
		return fmt.Errorf("failed to save bloom filter to redis: %w", err)
	}

	r.mu.Lock()
	r.cache[key] = bf
	r.mu.Unlock()

	return nil
}

// ClearCache 清除本地缓存。
// 当需要强制从 Redis 重新加载布隆过滤器时使用。
func (r *RedisBloomFilterChecker) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[string]*bloom.BloomFilter)
}

// ClearCacheKey 清除指定 key 的本地缓存。
func (r *RedisBloomFilterChecker) ClearCacheKey(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, key)
}
