package filter

import (
	"context"

	"github.com/rushteam/schemekit/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// SchemeLookup 按 ID 查找启用的 scheme，catalog.Index 实现了它。
type SchemeLookup interface {
	Lookup(id int64) (*core.Scheme, bool)
}

// schemeOf 返回 item 携带的 scheme；缺失时尝试从 lookup 回填。
func schemeOf(item *core.Item, lookup SchemeLookup) *core.Scheme {
	if item.Scheme != nil {
		return item.Scheme
	}
	if lookup == nil {
		return nil
	}
	if s, ok := lookup.Lookup(item.ID); ok {
		item.Scheme = s
		return s
	}
	return nil
}
