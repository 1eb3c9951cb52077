package recall

import (
	"context"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/pipeline"
)

// Catalog 是全量召回源：把物品目录中的所有物品作为候选。
// 用于离线评测场景（全量排序后再过滤/重排），不适合在线大目录。
// Catalog 同时实现了 Source 和 Node 接口。
type Catalog struct {
	Items *core.ItemCatalog
}

func (r *Catalog) Name() string        { return "recall.catalog" }
func (r *Catalog) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Catalog) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Catalog) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Items == nil {
		return nil, core.NewDomainError(core.ModuleRecall, core.ErrorCodeInvalidParameter, "catalog is nil")
	}
	n := r.Items.Len()
	out := make([]*core.Item, 0, n)
	for id := 0; id < n; id++ {
		out = append(out, core.NewItem(int64(id)))
	}
	return out, nil
}

var _ Source = (*Catalog)(nil)
var _ pipeline.Node = (*Catalog)(nil)
