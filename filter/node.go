package filter

import (
	"context"

	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/pipeline"
	"github.com/rushteam/schemekit/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器。
// 任何一个过滤器返回 true，该 item 就会被过滤掉；过滤器报错时记录日志并视为保留。
type FilterNode struct {
	Filters []Filter
	Logger  *zap.Logger
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	filteredCount := 0

	for _, item := range items {
		if item == nil {
			continue
		}

		filterReason := ""
		for _, f := range n.Filters {
			ok, err := f.ShouldFilter(ctx, rctx, item)
			if err != nil {
				if n.Logger != nil {
					n.Logger.Debug("filter error ignored",
						zap.String("filter", f.Name()),
						zap.Int64("scheme_id", item.ID),
						zap.Error(err),
					)
				}
				continue
			}
			if ok {
				filterReason = f.Name()
				break
			}
		}

		if filterReason != "" {
			filteredCount++
			item.PutLabel("filtered", utils.Label{Value: "true", Source: filterReason})
			continue
		}
		out = append(out, item)
	}

	if n.Logger != nil && filteredCount > 0 {
		n.Logger.Debug("items filtered", zap.Int("in", len(items)), zap.Int("filtered", filteredCount))
	}
	return out, nil
}
