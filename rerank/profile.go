package rerank

import (
	"context"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/filter"
	"github.com/rushteam/schemekit/pipeline"
	"github.com/rushteam/schemekit/pkg/utils"
)

// LabelProfileMatch 标记标签命中用户画像的 item。
const LabelProfileMatch = "profile_match"

// PromoteProfile 把标签命中 tags 的 item 稳定地提到前面，其余 item 保持原有相对顺序。
// 不命中的 item 不会被移除。
func PromoteProfile(items []*core.Item, tags []string) []*core.Item {
	if len(tags) == 0 || len(items) == 0 {
		return items
	}
	hits := make([]*core.Item, 0, len(items))
	var misses []*core.Item
	for _, it := range items {
		if it != nil && filter.HasAnyTag(it.Scheme, tags) {
			it.PutLabel(LabelProfileMatch, utils.Label{Value: "true", Source: "rerank.profile"})
			hits = append(hits, it)
			continue
		}
		misses = append(misses, it)
	}
	return append(hits, misses...)
}

// ProfileBoostNode 按 rctx.User 的画像属性做软加权，放在排序节点之后。
type ProfileBoostNode struct{}

func (n *ProfileBoostNode) Name() string        { return "rerank.profile" }
func (n *ProfileBoostNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *ProfileBoostNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || rctx.User == nil {
		return items, nil
	}
	return PromoteProfile(items, filter.ProfileTagsFor(rctx.User.Attributes)), nil
}
