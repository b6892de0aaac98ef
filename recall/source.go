package recall

import (
	"context"

	"github.com/rushteam/schemekit/catalog"
	"github.com/rushteam/schemekit/core"
)

// Source 表示一个可复用的召回源（内容相似 / 协同过滤 / 居住州兜底）。
// 可以理解为"可并发 fan-out 的策略单元"。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// IndexProvider 提供当前 catalog 索引，catalog.Snapshot 实现了它。
type IndexProvider interface {
	Index() *catalog.Index
}

// StaticIndex 把固定索引包装为 IndexProvider。
type StaticIndex struct{ Idx *catalog.Index }

func (s StaticIndex) Index() *catalog.Index { return s.Idx }

// Label keys
const (
	LabelRecallSource   = "recall_source"
	LabelRecallPriority = "recall_priority"
	LabelScore          = "score"
	LabelKeywordMatch   = "keyword_match"
)
