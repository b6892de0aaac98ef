package rerank

import (
	"context"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/pipeline"
)

// TopNNode 是 Top-N 截断节点，通常放在排序之后。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.ContentRecall{...},
//	        &filter.FilterNode{...},
//	        &rerank.TopNNode{N: 10},
//	    },
//	}
type TopNNode struct {
	// N 要保留的数量，<= 0 时不截断；也可由请求参数 top_n 覆盖
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if v, ok := rctx.Param("top_n"); ok {
		if i, ok := v.(int); ok && i > 0 {
			limit = i
		}
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
