package runner

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/dataset"
	"github.com/rushteam/divrec/model"
)

// Method 是模型方法的注册项：Build 从配置构建未训练的模型，
// Load 从检查点恢复（可选，nil 表示该方法不支持检查点）。
type Method struct {
	Build func(cfg ModelConfig, ds *dataset.Dataset) (core.ScoreProducer, error)
	Load  func(path string) (core.ScoreProducer, error)
}

var (
	methods   = make(map[string]Method)
	methodsMu sync.RWMutex
)

// RegisterMethod 注册一个模型方法，供 RunConfig.Model.Method 按名引用。
// 建议在 init 中调用；重复注册会覆盖。
func RegisterMethod(name string, m Method) {
	if name == "" || m.Build == nil {
		return
	}
	methodsMu.Lock()
	defer methodsMu.Unlock()
	methods[name] = m
}

// SupportedMethods 返回已注册的方法名列表（排序），用于错误提示。
func SupportedMethods() []string {
	methodsMu.RLock()
	defer methodsMu.RUnlock()
	names := make([]string, 0, len(methods))
	for n := range methods {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func lookupMethod(name string) (Method, error) {
	methodsMu.RLock()
	m, ok := methods[name]
	methodsMu.RUnlock()
	if !ok {
		return Method{}, fmt.Errorf("unknown model method %q (supported: %v)", name, SupportedMethods())
	}
	return m, nil
}

func init() {
	RegisterMethod("bpr", Method{
		Build: func(cfg ModelConfig, ds *dataset.Dataset) (core.ScoreProducer, error) {
			return model.NewBPRModel(ds.NumUsers, ds.NumItems, cfg.EmbeddingSize, cfg.Seed)
		},
		Load: func(path string) (core.ScoreProducer, error) {
			return model.LoadBPRModel(path)
		},
	})
	RegisterMethod("random", Method{
		Build: func(cfg ModelConfig, ds *dataset.Dataset) (core.ScoreProducer, error) {
			return model.NewRandomModel(ds.NumItems, cfg.EmbeddingSize, cfg.Seed)
		},
	})
}
