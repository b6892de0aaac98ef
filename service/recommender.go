package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/filter"
	"github.com/rushteam/schemekit/logging"
	"github.com/rushteam/schemekit/metrics"
	"github.com/rushteam/schemekit/pipeline"
	"github.com/rushteam/schemekit/recall"
	"github.com/rushteam/schemekit/similarity"
)

// Recommendation 是带相似度的 scheme，JSON 序列化时 scheme 字段平铺。
type Recommendation struct {
	core.Scheme
	Score float64 `json:"score"`
}

// RecommenderOptions 是 SchemeRecommender 的可选参数。
type RecommenderOptions struct {
	DefaultTopN int
	// MaxTopN 是单次请求的上限，超出时截断
	MaxTopN     int
	CacheSize   int
	CacheTTL    time.Duration
	Logger      *zap.Logger
}

// DefaultMaxTopN 是 RecommenderOptions.MaxTopN 的默认值。
const DefaultMaxTopN = 100

// SchemeRecommender 返回与某个 scheme 最相似的 scheme 列表。
// 结果按 (矩阵版本, scheme, topN) 缓存，矩阵替换时清空。
type SchemeRecommender struct {
	matrix  *similarity.Cache
	catalog recall.IndexProvider
	topN    int
	maxTopN int
	cache   *expirable.LRU[string, []Recommendation]
	logger  *zap.Logger
}

func NewSchemeRecommender(matrix *similarity.Cache, catalog recall.IndexProvider, opts RecommenderOptions) *SchemeRecommender {
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = (&core.DefaultRecallConfig{}).DefaultTopN()
	}
	if opts.MaxTopN <= 0 {
		opts.MaxTopN = DefaultMaxTopN
	}
	if opts.DefaultTopN > opts.MaxTopN {
		opts.DefaultTopN = opts.MaxTopN
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 10000
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Hour
	}
	r := &SchemeRecommender{
		matrix:  matrix,
		catalog: catalog,
		topN:    opts.DefaultTopN,
		maxTopN: opts.MaxTopN,
		cache:   expirable.NewLRU[string, []Recommendation](opts.CacheSize, nil, opts.CacheTTL),
		logger:  logging.OrNop(opts.Logger),
	}
	matrix.OnSwap(func(*similarity.Matrix) { r.cache.Purge() })
	return r
}

func cacheKey(version string, schemeID int64, topN int) string {
	return fmt.Sprintf("%s/%d/%d", version, schemeID, topN)
}

// Recommend 返回至多 topN 个相似 scheme，不含自身，按相似度降序、ID 升序。
//
// scheme 不在矩阵中时返回 core.ErrSchemeNotFound；
// 矩阵缺失或过期时记 warn 并返回空列表。
func (r *SchemeRecommender) Recommend(ctx context.Context, schemeID int64, topN int) (out []Recommendation, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRecommend("similar", start, err) }()

	if topN <= 0 {
		topN = r.topN
	}
	topN = min(topN, r.maxTopN)
	if v := r.matrix.Version(); v != "" {
		if cached, ok := r.cache.Get(cacheKey(v, schemeID, topN)); ok {
			metrics.ContentCacheHits.Inc()
			return cached, nil
		}
	}
	metrics.ContentCacheMisses.Inc()

	idx := r.catalog.Index()
	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.ContentRecall{Matrix: r.matrix, Catalog: r.catalog, TopN: topN},
			&filter.FilterNode{Filters: filter.ForSpec(filter.Spec{}, idx, r.logger), Logger: r.logger},
		},
		Observer: observeNode,
	}
	rctx := &core.RecommendContext{Params: map[string]any{
		recall.ParamSchemeID: schemeID,
		recall.ParamTopN:     topN,
	}}
	items, err := p.Run(ctx, rctx, nil)
	switch {
	case err == nil:
	case core.IsUnavailable(err):
		r.logger.Warn("similarity matrix unavailable, no content recommendations",
			zap.Int64("scheme_id", schemeID),
			zap.Error(err),
		)
		return []Recommendation{}, nil
	default:
		return nil, err
	}

	out = make([]Recommendation, 0, len(items))
	for _, it := range items {
		rec := Recommendation{Score: it.Score}
		if it.Scheme != nil {
			rec.Scheme = *it.Scheme
		} else {
			rec.Scheme = core.Scheme{ID: it.ID}
		}
		out = append(out, rec)
	}
	if v := r.matrix.Version(); v != "" {
		r.cache.Add(cacheKey(v, schemeID, topN), out)
	}
	return out, nil
}

// observeNode 记录每个 Pipeline 节点的耗时。
func observeNode(node pipeline.Node, _, _ int, elapsed time.Duration, _ error) {
	metrics.PipelineNodeDuration.WithLabelValues(node.Name()).Observe(elapsed.Seconds())
}
