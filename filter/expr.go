package filter

import (
	"context"

	"github.com/rushteam/divrec/core"
	"github.com/rushteam/divrec/pkg/dsl"
)

// ExprFilter 是基于 CEL 表达式的过滤器。
// 表达式返回 true 时过滤该物品，例如：
//   - `item.score < 0.1`
//   - `label.recall_source == "hot" && item.score < 0.5`
//
// 表达式语法见 pkg/dsl。
type ExprFilter struct {
	// Expr 是 CEL 过滤表达式，空表达式不过滤任何物品
	Expr string
}

// NewExprFilter 创建一个表达式过滤器。
func NewExprFilter(expr string) *ExprFilter {
	return &ExprFilter{Expr: expr}
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// ShouldFilter 执行表达式，返回 true 表示应该过滤。
func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Expr == "" {
		return false, nil
	}
	return dsl.NewEval(item, rctx).Evaluate(f.Expr)
}

var _ Filter = (*ExprFilter)(nil)
