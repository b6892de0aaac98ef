package rerank

import (
	"context"
	"sort"
	"strings"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/pipeline"
)

// Ordering 是列表排序方式。
type Ordering string

const (
	OrderTitleAsc       Ordering = "title"
	OrderTitleDesc      Ordering = "-title"
	OrderIntroducedAsc  Ordering = "introduced_on"
	OrderIntroducedDesc Ordering = "-introduced_on"
)

// DefaultOrdering 是未指定或无法识别时的排序。
const DefaultOrdering = OrderTitleAsc

// ParseOrdering 解析排序参数；未知值回落到默认（标题升序）。
// 第二个返回值表示调用方是否显式指定了合法的排序。
func ParseOrdering(s string) (Ordering, bool) {
	switch o := Ordering(strings.TrimSpace(s)); o {
	case OrderTitleAsc, OrderTitleDesc, OrderIntroducedAsc, OrderIntroducedDesc:
		return o, true
	default:
		return DefaultOrdering, false
	}
}

// Less 比较两个 scheme；主键相同时按 ID 升序，保证全序。
func (o Ordering) Less(a, b *core.Scheme) bool {
	switch o {
	case OrderTitleDesc:
		if c := compareTitle(a, b); c != 0 {
			return c > 0
		}
	case OrderIntroducedAsc:
		if !a.IntroducedOn.Equal(b.IntroducedOn) {
			return a.IntroducedOn.Before(b.IntroducedOn)
		}
	case OrderIntroducedDesc:
		if !a.IntroducedOn.Equal(b.IntroducedOn) {
			return a.IntroducedOn.After(b.IntroducedOn)
		}
	default:
		if c := compareTitle(a, b); c != 0 {
			return c < 0
		}
	}
	return a.ID < b.ID
}

func compareTitle(a, b *core.Scheme) int {
	return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
}

// SortSchemes 按 ordering 原地排序。
func SortSchemes(schemes []*core.Scheme, o Ordering) {
	sort.SliceStable(schemes, func(i, j int) bool { return o.Less(schemes[i], schemes[j]) })
}

// SortItems 按 ordering 原地排序；没有 scheme 快照的 item 排在最后，按 ID 升序。
func SortItems(items []*core.Item, o Ordering) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Scheme, items[j].Scheme
		switch {
		case a != nil && b != nil:
			return o.Less(a, b)
		case a == nil && b == nil:
			return items[i].ID < items[j].ID
		default:
			return a != nil
		}
	})
}

// SortByScore 按分数降序、ID 升序排序。
func SortByScore(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

// OrderNode 是排序节点；Ordering 为空时按分数降序。
type OrderNode struct {
	Ordering Ordering
}

func (n *OrderNode) Name() string        { return "rerank.order" }
func (n *OrderNode) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *OrderNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	out := make([]*core.Item, len(items))
	copy(out, items)
	if n.Ordering == "" {
		SortByScore(out)
		return out, nil
	}
	SortItems(out, n.Ordering)
	return out, nil
}
