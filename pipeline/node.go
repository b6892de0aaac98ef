package pipeline

import (
	"context"

	"github.com/rushteam/schemekit/core"
)

// Kind 用于标记 Node 所处阶段，方便按阶段打点。
type Kind string

const (
	KindRecall      Kind = "recall"      // 召回：生成候选集
	KindFilter      Kind = "filter"      // 过滤：剔除不满足条件的候选
	KindReRank      Kind = "rerank"      // 重排：排序、截断、分页
	KindPostProcess Kind = "postprocess" // 后处理：回填 scheme 快照等
)

// Node 是 Pipeline 的最小单元，统一为 "items 进 -> items 出"。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeFunc 把普通函数适配为 Node，便于在 service 中拼装一次性的步骤。
type NodeFunc struct {
	NodeName string
	NodeKind Kind
	Fn       func(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)
}

func (f NodeFunc) Name() string { return f.NodeName }
func (f NodeFunc) Kind() Kind   { return f.NodeKind }

func (f NodeFunc) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return f.Fn(ctx, rctx, items)
}
