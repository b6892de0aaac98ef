package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/filter"
	"github.com/rushteam/schemekit/logging"
	"github.com/rushteam/schemekit/metrics"
	"github.com/rushteam/schemekit/pipeline"
	"github.com/rushteam/schemekit/recall"
	"github.com/rushteam/schemekit/rerank"
	"github.com/rushteam/schemekit/text"
)

// HybridRequest 是混合推荐的输入。UserID 为 0 表示匿名。
type HybridRequest struct {
	UserID     int64
	StateID    int64
	Attributes map[string]string
	Feedback   string

	Spec     filter.Spec
	Ordering string

	// TopN 是协同过滤候选数，<= 0 时使用默认值
	TopN  int
	Page  int
	Limit int
}

// HybridOptions 是 HybridService 的可选参数。
type HybridOptions struct {
	Extractor     text.KeywordExtractor
	Paging        rerank.Paging
	SourceTimeout time.Duration
	Logger        *zap.Logger
}

// HybridService 组合协同过滤与居住州兜底，再接上过滤后的全量列表并分页。
//
// 结果分两块：个性化块（协同过滤在前、按权重；居住州在后）与剩余的过滤后全量。
// 画像属性推导出的标签在每块内做软加权，不会剔除 scheme。
// 同一个 scheme 在所有分页中只出现一次。
type HybridService struct {
	cf        *recall.UserBasedCF
	state     *recall.StateRecall
	catalog   recall.IndexProvider
	extractor text.KeywordExtractor
	paging    rerank.Paging
	timeout   time.Duration
	logger    *zap.Logger
}

func NewHybridService(cf *recall.UserBasedCF, catalog recall.IndexProvider, opts HybridOptions) *HybridService {
	if opts.Extractor == nil {
		opts.Extractor = text.StopwordExtractor{}
	}
	if opts.Paging.DefaultLimit <= 0 {
		opts.Paging = rerank.DefaultPaging
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = (&core.DefaultRecallConfig{}).DefaultTimeout()
	}
	return &HybridService{
		cf:        cf,
		state:     &recall.StateRecall{Catalog: catalog},
		catalog:   catalog,
		extractor: opts.Extractor,
		paging:    opts.Paging,
		timeout:   opts.SourceTimeout,
		logger:    logging.OrNop(opts.Logger),
	}
}

func (s *HybridService) profile(req HybridRequest) *core.UserProfile {
	p := core.NewUserProfile(req.UserID)
	p.StateID = req.StateID
	for k, v := range req.Attributes {
		p.SetAttribute(k, v)
	}
	p.Feedback = req.Feedback
	if req.Feedback != "" {
		p.Keywords = s.extractor.Extract(req.Feedback)
	}
	return p
}

// Recommend 返回一页 scheme。
func (s *HybridService) Recommend(ctx context.Context, req HybridRequest) (page *rerank.Page[core.Scheme], err error) {
	start := time.Now()
	defer func() { metrics.ObserveRecommend("hybrid", start, err) }()

	idx := s.catalog.Index()
	filters := filter.ForSpec(req.Spec, idx, s.logger)
	rctx := &core.RecommendContext{
		UserID: req.UserID,
		User:   s.profile(req),
		Params: map[string]any{},
	}
	if req.TopN > 0 {
		rctx.Params[recall.ParamCollaborativeTopN] = req.TopN
	}

	var sources []recall.Source
	if s.cf != nil {
		sources = append(sources, s.cf)
	}
	sources = append(sources, s.state)

	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources:       sources,
				Dedup:         true,
				Timeout:       s.timeout,
				MergeStrategy: recall.MergePriority,
				Logger:        s.logger,
				OnSourceDone:  metrics.ObserveRecallSource,
			},
			&filter.FilterNode{Filters: filters, Logger: s.logger},
		},
		Observer: observeNode,
	}
	personalized, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	seen := make(map[int64]struct{}, len(personalized))
	for _, it := range personalized {
		seen[it.ID] = struct{}{}
	}
	var rest []*core.Item
	for _, sc := range idx.Active() {
		if _, ok := seen[sc.ID]; ok {
			continue
		}
		it := core.NewItem(sc.ID)
		it.Scheme = sc
		rest = append(rest, it)
	}
	rest, err = (&filter.FilterNode{Filters: filters, Logger: s.logger}).Process(ctx, rctx, rest)
	if err != nil {
		return nil, err
	}

	ordering, explicit := rerank.ParseOrdering(req.Ordering)
	if explicit {
		rerank.SortItems(personalized, ordering)
	}
	rerank.SortItems(rest, ordering)

	// 画像标签只在块内提前命中的 scheme
	if tags := filter.ProfileTagsFor(rctx.User.Attributes); len(tags) > 0 {
		personalized = rerank.PromoteProfile(personalized, tags)
		rest = rerank.PromoteProfile(rest, tags)
	}

	all := make([]core.Scheme, 0, len(personalized)+len(rest))
	for _, blk := range [][]*core.Item{personalized, rest} {
		for _, it := range blk {
			if it.Scheme == nil {
				continue
			}
			all = append(all, *it.Scheme)
		}
	}

	s.logger.Debug("hybrid recommendation",
		zap.Int64("user_id", req.UserID),
		zap.Int("personalized", len(personalized)),
		zap.Int("total", len(all)),
	)
	out := rerank.Paginate(all, req.Page, req.Limit, s.paging)
	return &out, nil
}
