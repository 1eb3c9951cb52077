package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/rushteam/divrec/core"
)

// MemoryEmbeddingStore 是内存实现的 EmbeddingStore，用于测试/开发/原型。
// 平替 Redis 等外部 embedding 表，线程安全。
type MemoryEmbeddingStore struct {
	mu    sync.RWMutex
	dim   int
	users map[int64][]float64
	items map[int64][]float64
}

// NewMemoryEmbeddingStore 创建内存 embedding 表，dim 是向量维度。
func NewMemoryEmbeddingStore(dim int) *MemoryEmbeddingStore {
	return &MemoryEmbeddingStore{
		dim:   dim,
		users: make(map[int64][]float64),
		items: make(map[int64][]float64),
	}
}

func (m *MemoryEmbeddingStore) Name() string { return "memory_embedding" }

// PutUserVector 写入用户向量；维度不符返回 DIMENSION_MISMATCH。
func (m *MemoryEmbeddingStore) PutUserVector(_ context.Context, userID int64, vec []float64) error {
	if len(vec) != m.dim {
		return core.NewDomainErrorf(core.ModuleStore, core.ErrorCodeDimensionMismatch,
			"user vector dimension %d, expected %d", len(vec), m.dim)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = append([]float64(nil), vec...)
	return nil
}

// PutItemVector 写入物品向量；维度不符返回 DIMENSION_MISMATCH。
func (m *MemoryEmbeddingStore) PutItemVector(_ context.Context, itemID int64, vec []float64) error {
	if len(vec) != m.dim {
		return core.NewDomainErrorf(core.ModuleStore, core.ErrorCodeDimensionMismatch,
			"item vector dimension %d, expected %d", len(vec), m.dim)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[itemID] = append([]float64(nil), vec...)
	return nil
}

func (m *MemoryEmbeddingStore) GetUserVector(_ context.Context, userID int64) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vec, ok := m.users[userID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return vec, nil
}

func (m *MemoryEmbeddingStore) GetItemVector(_ context.Context, itemID int64) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	vec, ok := m.items[itemID]
	if !ok {
		return nil, core.ErrStoreNotFound
	}
	return vec, nil
}

func (m *MemoryEmbeddingStore) GetAllItemVectors(_ context.Context) (map[int64][]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64][]float64, len(m.items))
	for id, vec := range m.items {
		out[id] = vec
	}
	return out, nil
}

var _ core.EmbeddingStore = (*MemoryEmbeddingStore)(nil)

// KVEmbeddingStore 把 embedding 表落在 core.KeyValueStore 的 Hash 上
// （如 RedisStore），向量以 JSON 数组存储。
//
// Key 布局：
//   - 用户向量：hash "{prefix}:user"，field 为用户 ID
//   - 物品向量：hash "{prefix}:item"，field 为物品 ID
type KVEmbeddingStore struct {
	KV     core.KeyValueStore
	Prefix string // 默认 "divrec:emb"
}

// NewKVEmbeddingStore 创建 KV 后端的 embedding 表。
func NewKVEmbeddingStore(kv core.KeyValueStore, prefix string) *KVEmbeddingStore {
	if prefix == "" {
		prefix = "divrec:emb"
	}
	return &KVEmbeddingStore{KV: kv, Prefix: prefix}
}

func (s *KVEmbeddingStore) Name() string { return "kv_embedding" }

func (s *KVEmbeddingStore) userKey() string { return s.Prefix + ":user" }
func (s *KVEmbeddingStore) itemKey() string { return s.Prefix + ":item" }

// PutUserVector 写入用户向量。
func (s *KVEmbeddingStore) PutUserVector(ctx context.Context, userID int64, vec []float64) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal user vector: %w", err)
	}
	return s.KV.HSet(ctx, s.userKey(), strconv.FormatInt(userID, 10), data)
}

// PutItemVector 写入物品向量。
func (s *KVEmbeddingStore) PutItemVector(ctx context.Context, itemID int64, vec []float64) error {
	data, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("marshal item vector: %w", err)
	}
	return s.KV.HSet(ctx, s.itemKey(), strconv.FormatInt(itemID, 10), data)
}

func (s *KVEmbeddingStore) GetUserVector(ctx context.Context, userID int64) ([]float64, error) {
	return s.getVector(ctx, s.userKey(), userID)
}

func (s *KVEmbeddingStore) GetItemVector(ctx context.Context, itemID int64) ([]float64, error) {
	return s.getVector(ctx, s.itemKey(), itemID)
}

func (s *KVEmbeddingStore) getVector(ctx context.Context, key string, id int64) ([]float64, error) {
	data, err := s.KV.HGet(ctx, key, strconv.FormatInt(id, 10))
	if err != nil {
		return nil, err
	}
	var vec []float64
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, fmt.Errorf("parse vector %d: %w", id, err)
	}
	return vec, nil
}

func (s *KVEmbeddingStore) GetAllItemVectors(ctx context.Context) (map[int64][]float64, error) {
	fields, err := s.KV.HGetAll(ctx, s.itemKey())
	if err != nil {
		return nil, err
	}
	out := make(map[int64][]float64, len(fields))
	for field, data := range fields {
		id, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse item id %q: %w", field, err)
		}
		var vec []float64
		if err := json.Unmarshal(data, &vec); err != nil {
			return nil, fmt.Errorf("parse vector %d: %w", id, err)
		}
		out[id] = vec
	}
	return out, nil
}

var _ core.EmbeddingStore = (*KVEmbeddingStore)(nil)
