// Package builders 注册内置 Node 的配置构建器。
// 在 main 或入口处 import _ "github.com/rushteam/divrec/config/builders" 即可启用配置驱动。
package builders

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rushteam/divrec/config"
	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/filter"
	"github.com/rushteam/divrec/pipeline"
	"github.com/rushteam/divrec/pkg/conv"
	"github.com/rushteam/divrec/rank"
	"github.com/rushteam/divrec/recall"
	"github.com/rushteam/divrec/rerank"
	"github.com/rushteam/divrec/store"
)

func init() {
	config.Register("recall.hot", BuildHotNode)
	config.Register("recall.catalog", BuildCatalogNode)
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("rank.embedding", BuildEmbeddingRankNode)
	config.Register("rerank.mmr", BuildMMRNode)
	config.Register("rerank.diversity", BuildDiversityNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("filter", BuildFilterNode)
}

func BuildHotNode(cfg map[string]interface{}) (pipeline.Node, error) {
	ids := conv.SliceAnyToInt64(cfg["ids"])
	if ids == nil {
		ids = []int64{}
	}
	node := &recall.Hot{
		IDs: ids,
		Key: conv.ConfigGet(cfg, "key", ""),
	}
	if n := conv.ConfigGetInt64(cfg, "top_n", 0); n > 0 {
		node.TopN = n
	}
	return node, nil
}

func BuildCatalogNode(cfg map[string]interface{}) (pipeline.Node, error) {
	vectors, err := parseVectorList(cfg["vectors"])
	if err != nil {
		return nil, err
	}
	catalog, err := core.NewItemCatalog(vectors)
	if err != nil {
		return nil, err
	}
	return &recall.Catalog{Items: catalog}, nil
}

func BuildFanoutNode(cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet(sourceMap, "type", "")
		switch sourceType {
		case "hot":
			ids := conv.SliceAnyToInt64(sourceMap["ids"])
			if ids == nil {
				ids = []int64{}
			}
			sources = append(sources, &recall.Hot{IDs: ids, Key: conv.ConfigGet(sourceMap, "key", "")})
		case "catalog":
			vectors, err := parseVectorList(sourceMap["vectors"])
			if err != nil {
				return nil, err
			}
			catalog, err := core.NewItemCatalog(vectors)
			if err != nil {
				return nil, err
			}
			sources = append(sources, &recall.Catalog{Items: catalog})
		default:
			return nil, fmt.Errorf("unknown source type: %s", sourceType)
		}
	}
	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet(cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet(cfg, "merge_strategy", ""),
	}
	if sec := conv.ConfigGetInt64(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	return fanout, nil
}

func BuildEmbeddingRankNode(cfg map[string]interface{}) (pipeline.Node, error) {
	emb, err := buildEmbeddingStore(cfg)
	if err != nil {
		return nil, err
	}
	return &rank.EmbeddingNode{
		Embeddings: emb,
		ModelName:  conv.ConfigGet(cfg, "model_name", ""),
	}, nil
}

func BuildMMRNode(cfg map[string]interface{}) (pipeline.Node, error) {
	emb, err := buildEmbeddingStore(cfg)
	if err != nil {
		return nil, err
	}
	rcfg := core.DefaultRerankConfig()
	rcfg.LambdaMMR = conv.ConfigGetFloat64(cfg, "lambda_mmr", rcfg.LambdaMMR)
	if v := conv.ConfigGetInt64(cfg, "top_k", 0); v > 0 {
		rcfg.TopK = int(v)
	}
	if v := conv.ConfigGetInt64(cfg, "n_items", 0); v > 0 {
		rcfg.NItems = int(v)
	}
	if err := rcfg.Validate(); err != nil {
		return nil, err
	}
	return &rerank.MMRNode{Config: rcfg, Embeddings: emb}, nil
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	labelKey := conv.ConfigGet(cfg, "label_key", "category")
	if labelKey == "" {
		labelKey = "category"
	}
	return &rerank.Diversity{LabelKey: labelKey}, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	return &rerank.TopNNode{N: int(n)}, nil
}

func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "blacklist":
			ids := conv.SliceAnyToInt64(filterMap["item_ids"])
			if ids == nil {
				ids = []int64{}
			}
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, nil, key))
		case "history":
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			timeWindow := conv.ConfigGetInt64(filterMap, "time_window", 0)
			bloomFilterDayWindow := conv.ConfigGet(filterMap, "bloom_filter_day_window", 0)
			filters = append(filters, filter.NewHistoryFilter(nil, keyPrefix, timeWindow, bloomFilterDayWindow))
		case "expr":
			filters = append(filters, filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", "")))
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

// buildEmbeddingStore 根据配置里的内联向量构建 MemoryEmbeddingStore。
// 配置格式：
//
//	dim: 2
//	item_vectors: { "0": [1, 0], "1": [0, 1] }
//	user_vectors: { "42": [0.5, 0.5] }
//
// 在线场景通常在代码中直接注入 Redis 等 EmbeddingStore 实现，而不是内联配置。
func buildEmbeddingStore(cfg map[string]interface{}) (core.EmbeddingStore, error) {
	dim := int(conv.ConfigGetInt64(cfg, "dim", 0))
	if dim <= 0 {
		return nil, fmt.Errorf("dim not found or invalid")
	}
	emb := store.NewMemoryEmbeddingStore(dim)
	ctx := context.Background()

	itemVecs, err := parseVectorMap(cfg["item_vectors"])
	if err != nil {
		return nil, fmt.Errorf("item_vectors: %w", err)
	}
	for id, vec := range itemVecs {
		if err := emb.PutItemVector(ctx, id, vec); err != nil {
			return nil, err
		}
	}

	userVecs, err := parseVectorMap(cfg["user_vectors"])
	if err != nil {
		return nil, fmt.Errorf("user_vectors: %w", err)
	}
	for id, vec := range userVecs {
		if err := emb.PutUserVector(ctx, id, vec); err != nil {
			return nil, err
		}
	}
	return emb, nil
}

// parseVectorMap 解析 { "id": [f, f, ...] } 形式的配置。
func parseVectorMap(v any) (map[int64][]float64, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("expected map of id -> vector, got %T", v)
	}
	out := make(map[int64][]float64, len(m))
	for k, raw := range m {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", k, err)
		}
		vec, err := parseVector(raw)
		if err != nil {
			return nil, fmt.Errorf("id %q: %w", k, err)
		}
		out[id] = vec
	}
	return out, nil
}

// parseVectorList 解析 [[f, f], [f, f], ...] 形式的配置。
func parseVectorList(v any) ([][]float64, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected list of vectors, got %T", v)
	}
	out := make([][]float64, 0, len(list))
	for i, raw := range list {
		vec, err := parseVector(raw)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		out = append(out, vec)
	}
	return out, nil
}

func parseVector(v any) ([]float64, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected vector, got %T", v)
	}
	vec := make([]float64, 0, len(list))
	for _, e := range list {
		f, ok := conv.ToFloat64(e)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", e)
		}
		vec = append(vec, f)
	}
	return vec, nil
}
