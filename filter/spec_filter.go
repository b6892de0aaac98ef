package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/pkg/dsl"
)

// SpecFilter 按 Spec 过滤；item 没有 scheme 快照且无法回填时被过滤。
type SpecFilter struct {
	Spec   Spec
	Lookup SchemeLookup
}

func (f *SpecFilter) Name() string { return "filter.spec" }

func (f *SpecFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	return !f.Spec.Match(schemeOf(item, f.Lookup)), nil
}

// ExprFilter 用 CEL 表达式过滤，表达式返回 false 的 item 被过滤。
// Program 为空时不做任何约束。
type ExprFilter struct {
	Program *dsl.Program
	Lookup  SchemeLookup
}

// NewExprFilter 编译表达式；编译失败时记录日志并返回不约束的过滤器。
func NewExprFilter(expr string, lookup SchemeLookup, logger *zap.Logger) *ExprFilter {
	f := &ExprFilter{Lookup: lookup}
	if expr == "" {
		return f
	}
	prg, err := dsl.Compile(expr)
	if err != nil {
		if logger != nil {
			logger.Warn("filter expression ignored", zap.String("expr", expr), zap.Error(err))
		}
		return f
	}
	f.Program = prg
	return f
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if f.Program == nil {
		return false, nil
	}
	s := schemeOf(item, f.Lookup)
	if s == nil {
		return true, nil
	}
	ok, err := f.Program.Match(s, rctx)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// ForSpec 返回 Spec 对应的过滤器组合（结构化条件 + 可选表达式）。
func ForSpec(spec Spec, lookup SchemeLookup, logger *zap.Logger) []Filter {
	filters := []Filter{&SpecFilter{Spec: spec, Lookup: lookup}}
	if spec.Expr != "" {
		filters = append(filters, NewExprFilter(spec.Expr, lookup, logger))
	}
	return filters
}
