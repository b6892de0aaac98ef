package recall

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/pipeline"
	"github.com/rushteam/schemekit/pkg/conv"
	"github.com/rushteam/schemekit/pkg/utils"
	"github.com/rushteam/schemekit/text"
)

// ParamCollaborativeTopN 是协同过滤候选数的请求参数 key。
const ParamCollaborativeTopN = "cf_top_n"

// UserBasedCF 是基于用户共现的协同过滤召回源（User-based CF）。
//
// 核心思想："和我看过/收藏过相同 scheme 的人，还关注了哪些 scheme"
//
// 算法流程：
//  1. 取目标用户 Value > 0 的交互
//  2. 邻居 = 在任一共同 scheme 上 Value > 0 的其他用户，
//     相似度 = Σ min(目标值, 邻居值)（共同 scheme 上的重叠强度）
//  3. 候选权重 = Σ 邻居相似度 × 邻居在该 scheme 上的值，只统计目标用户没交互过的 scheme
//  4. 关键词命中（标题/描述/标签）的候选权重 × KeywordBoost；KeywordsRestrict 时只保留命中的
//  5. 按权重降序、ID 升序取 TopN
//
// 没有交互历史的用户返回空集合而不是错误，由上层兜底。
type UserBasedCF struct {
	Store core.InteractionStore

	// Catalog 可选；设置后过滤未启用的 scheme、回填 Item.Scheme，并支持关键词匹配
	Catalog IndexProvider

	// MaxNeighbors 参与聚合的最相似邻居数，<= 0 时为 50
	MaxNeighbors int

	// TopN 默认候选数，<= 0 时为 5
	TopN int

	// KeywordBoost 关键词命中时的权重倍数，<= 0 时为 2.0
	KeywordBoost float64

	// KeywordsRestrict 为 true 时只保留关键词命中的候选
	KeywordsRestrict bool

	Logger *zap.Logger
}

func (r *UserBasedCF) Name() string        { return "recall.u2i" }
func (r *UserBasedCF) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *UserBasedCF) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 从 rctx 读取用户、反馈关键词与 cf_top_n 参数。
func (r *UserBasedCF) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx.Anonymous() {
		return nil, nil
	}
	topN := 0
	if v, ok := rctx.Param(ParamCollaborativeTopN); ok {
		if n, ok := conv.ToInt64(v); ok {
			topN = int(n)
		}
	}
	var keywords text.KeywordSet
	if p := rctx.User; p != nil && len(p.Keywords) > 0 {
		keywords = text.NewKeywordSet(p.Keywords...)
	}
	return r.Recommend(ctx, rctx.UserID, topN, keywords)
}

type scored struct {
	id    int64
	score float64
}

func sortScored(s []scored) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].score != s[j].score {
			return s[i].score > s[j].score
		}
		return s[i].id < s[j].id
	})
}

// Recommend 返回至多 topN 个候选（已按 ID 去重），Score 为聚合权重。
func (r *UserBasedCF) Recommend(ctx context.Context, userID int64, topN int, keywords text.KeywordSet) ([]*core.Item, error) {
	if r.Store == nil || userID == 0 {
		return nil, nil
	}
	if topN <= 0 {
		topN = r.TopN
	}
	if topN <= 0 {
		topN = (&core.DefaultRecallConfig{}).DefaultCollaborativeTopN()
	}
	maxNeighbors := r.MaxNeighbors
	if maxNeighbors <= 0 {
		maxNeighbors = 50
	}
	boost := r.KeywordBoost
	if boost <= 0 {
		boost = 2.0
	}

	// 1. 目标用户的交互；Value 为 0 的行（例如取消收藏）只用于排除，不参与相似度
	rows, err := r.Store.InteractionsFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]struct{}, len(rows))
	target := make(map[int64]float64, len(rows))
	for _, row := range rows {
		seen[row.SchemeID] = struct{}{}
		if row.Value > 0 {
			target[row.SchemeID] = row.Value
		}
	}
	if len(target) == 0 {
		return nil, nil
	}

	// 2. 共现邻居
	neighborSim := make(map[int64]float64)
	for _, sid := range sortedKeys(target) {
		users, err := r.Store.UsersFor(ctx, sid)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if u.UserID == userID || u.Value <= 0 {
				continue
			}
			neighborSim[u.UserID] += min(target[sid], u.Value)
		}
	}
	if len(neighborSim) == 0 {
		return nil, nil
	}
	neighbors := make([]scored, 0, len(neighborSim))
	for uid, sim := range neighborSim {
		neighbors = append(neighbors, scored{id: uid, score: sim})
	}
	sortScored(neighbors)
	if len(neighbors) > maxNeighbors {
		neighbors = neighbors[:maxNeighbors]
	}

	// 3. 聚合候选
	weights := make(map[int64]float64)
	for _, nb := range neighbors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nrows, err := r.Store.InteractionsFor(ctx, nb.id)
		if err != nil {
			return nil, err
		}
		for _, row := range nrows {
			if row.Value <= 0 {
				continue
			}
			if _, ok := seen[row.SchemeID]; ok {
				continue
			}
			weights[row.SchemeID] += nb.score * row.Value
		}
	}

	// 4. 启用过滤 + 关键词加权
	var idx interface {
		Lookup(id int64) (*core.Scheme, bool)
	}
	if r.Catalog != nil {
		idx = r.Catalog.Index()
	}
	matched := make(map[int64]bool)
	candidates := make([]scored, 0, len(weights))
	schemes := make(map[int64]*core.Scheme, len(weights))
	for sid, w := range weights {
		if idx != nil {
			s, ok := idx.Lookup(sid)
			if !ok {
				continue
			}
			schemes[sid] = s
			if !keywords.Empty() {
				if keywords.MatchAny(SchemeText(s)) {
					matched[sid] = true
					w *= boost
				} else if r.KeywordsRestrict {
					continue
				}
			}
		}
		candidates = append(candidates, scored{id: sid, score: w})
	}
	sortScored(candidates)
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		it := core.NewItem(c.id)
		it.Score = c.score
		it.Scheme = schemes[c.id]
		it.PutLabel(LabelScore, utils.ScoreLabel(c.score, r.Name()))
		if matched[c.id] {
			it.PutLabel(LabelKeywordMatch, utils.Label{Value: "true", Source: r.Name()})
		}
		out = append(out, it)
	}

	if r.Logger != nil {
		r.Logger.Debug("collaborative candidates",
			zap.Int64("user_id", userID),
			zap.Int("neighbors", len(neighbors)),
			zap.Int("candidates", len(weights)),
			zap.Int("returned", len(out)),
		)
	}
	return out, nil
}

// SchemeText 返回用于关键词匹配的文本：标题、描述、标签名。
func SchemeText(s *core.Scheme) string {
	parts := make([]string, 0, 2+len(s.Tags))
	parts = append(parts, s.Title, s.Description)
	parts = append(parts, s.TagNames()...)
	return strings.Join(parts, " ")
}

func sortedKeys(m map[int64]float64) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
