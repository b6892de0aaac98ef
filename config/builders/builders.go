// Package builders 把推荐 Node 注册到 config 的构建表中，使 pipeline 可以由 YAML 驱动。
//
// Node 依赖运行期对象（矩阵缓存、catalog、交互存储），因此不在 init 中注册，
// 而是由入口在依赖就绪后调用 Register(deps)。
package builders

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/schemekit/config"
	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/filter"
	"github.com/rushteam/schemekit/metrics"
	"github.com/rushteam/schemekit/pipeline"
	"github.com/rushteam/schemekit/pkg/conv"
	"github.com/rushteam/schemekit/recall"
	"github.com/rushteam/schemekit/rerank"
)

// Deps 是 Node 构建所需的运行期依赖；为空的依赖对应的 Node 构建时报错。
type Deps struct {
	Matrix       recall.MatrixProvider
	Catalog      recall.IndexProvider
	Interactions core.InteractionStore
	Logger       *zap.Logger
}

// Register 注册全部内置 Node。
func Register(d Deps) {
	config.Register("recall.fanout", d.BuildFanoutNode)
	config.Register("recall.content", d.BuildContentNode)
	config.Register("recall.u2i", d.BuildCFNode)
	config.Register("recall.state", d.BuildStateNode)
	config.Register("filter.spec", d.BuildSpecFilterNode)
	config.Register("rerank.order", BuildOrderNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.profile", BuildProfileBoostNode)
}

func (d Deps) source(typ string, cfg map[string]any) (recall.Source, error) {
	switch typ {
	case "content":
		return d.content(cfg)
	case "u2i", "collaborative":
		return d.cf(cfg)
	case "state":
		return d.state()
	default:
		return nil, fmt.Errorf("unknown source type: %s", typ)
	}
}

func (d Deps) content(cfg map[string]any) (*recall.ContentRecall, error) {
	if d.Matrix == nil {
		return nil, fmt.Errorf("recall.content requires a matrix provider")
	}
	return &recall.ContentRecall{
		Matrix:  d.Matrix,
		Catalog: d.Catalog,
		TopN:    int(conv.ConfigGetInt64(cfg, "top_n", 0)),
	}, nil
}

func (d Deps) cf(cfg map[string]any) (*recall.UserBasedCF, error) {
	if d.Interactions == nil {
		return nil, fmt.Errorf("recall.u2i requires an interaction store")
	}
	boost, _ := conv.ToFloat64(cfg["keyword_boost"])
	return &recall.UserBasedCF{
		Store:            d.Interactions,
		Catalog:          d.Catalog,
		MaxNeighbors:     int(conv.ConfigGetInt64(cfg, "max_neighbors", 0)),
		TopN:             int(conv.ConfigGetInt64(cfg, "top_n", 0)),
		KeywordBoost:     boost,
		KeywordsRestrict: conv.ConfigGet(cfg, "keywords_restrict", false),
		Logger:           d.Logger,
	}, nil
}

func (d Deps) state() (*recall.StateRecall, error) {
	if d.Catalog == nil {
		return nil, fmt.Errorf("recall.state requires a catalog")
	}
	return &recall.StateRecall{Catalog: d.Catalog}, nil
}

func (d Deps) BuildFanoutNode(cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		src, err := d.source(conv.ConfigGet(sourceMap, "type", ""), sourceMap)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	fanout := &recall.Fanout{
		Sources:      sources,
		Dedup:        conv.ConfigGet(cfg, "dedup", true),
		Logger:       d.Logger,
		OnSourceDone: metrics.ObserveRecallSource,
	}
	if ms := conv.ConfigGetInt64(cfg, "timeout_ms", 0); ms > 0 {
		fanout.Timeout = time.Duration(ms) * time.Millisecond
	}
	if n := conv.ConfigGetInt64(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = int(n)
	}
	switch s := conv.ConfigGet(cfg, "merge_strategy", recall.MergeFirst); s {
	case recall.MergeFirst, recall.MergeUnion, recall.MergePriority:
		fanout.MergeStrategy = s
	default:
		return nil, fmt.Errorf("unknown merge strategy: %s", s)
	}
	return fanout, nil
}

func (d Deps) BuildContentNode(cfg map[string]any) (pipeline.Node, error) {
	return d.content(cfg)
}

func (d Deps) BuildCFNode(cfg map[string]any) (pipeline.Node, error) {
	return d.cf(cfg)
}

func (d Deps) BuildStateNode(map[string]any) (pipeline.Node, error) {
	return d.state()
}

// BuildSpecFilterNode 读取 spec（与请求体同构的 map）。
func (d Deps) BuildSpecFilterNode(cfg map[string]any) (pipeline.Node, error) {
	specMap, _ := cfg["spec"].(map[string]any)
	spec := filter.ParseSpec(specMap)
	var lookup filter.SchemeLookup
	if d.Catalog != nil {
		lookup = liveLookup{d.Catalog}
	}
	return &filter.FilterNode{Filters: filter.ForSpec(spec, lookup, d.Logger), Logger: d.Logger}, nil
}

// liveLookup 每次查找都读取当前索引，catalog 刷新后立即生效。
type liveLookup struct{ p recall.IndexProvider }

func (l liveLookup) Lookup(id int64) (*core.Scheme, bool) {
	return l.p.Index().Lookup(id)
}

func BuildOrderNode(cfg map[string]any) (pipeline.Node, error) {
	raw := conv.ConfigGet(cfg, "ordering", "")
	if raw == "" || raw == "score" {
		return &rerank.OrderNode{}, nil
	}
	o, ok := rerank.ParseOrdering(raw)
	if !ok {
		return nil, fmt.Errorf("unknown ordering: %s", raw)
	}
	return &rerank.OrderNode{Ordering: o}, nil
}

func BuildProfileBoostNode(map[string]any) (pipeline.Node, error) {
	return &rerank.ProfileBoostNode{}, nil
}

func BuildTopNNode(cfg map[string]any) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n <= 0 {
		return nil, fmt.Errorf("rerank.topn requires n > 0")
	}
	return &rerank.TopNNode{N: int(n)}, nil
}
