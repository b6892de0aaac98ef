package recall

import (
	"context"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/pipeline"
	"github.com/rushteam/schemekit/pkg/conv"
	"github.com/rushteam/schemekit/pkg/utils"
	"github.com/rushteam/schemekit/similarity"
)

// 请求参数 key
const (
	ParamSchemeID = "scheme_id"
	ParamTopN     = "top_n"
)

// MatrixProvider 提供当前相似度矩阵，similarity.Cache 实现了它。
type MatrixProvider interface {
	Get(ctx context.Context) (*similarity.Matrix, error)
}

// ContentRecall 是基于内容的召回源：以 scheme_id 为种子，从 TF-IDF 余弦矩阵中取最相似的 scheme。
//
// 结果按相似度降序、ID 升序，不包含种子自身；相似度为 0 的 scheme 也会返回以补足 TopN。
type ContentRecall struct {
	Matrix MatrixProvider

	// Catalog 可选；设置后只返回快照中启用的 scheme，并回填 Item.Scheme
	Catalog IndexProvider

	// TopN 默认返回条数，<= 0 时为 10
	TopN int
}

func (r *ContentRecall) Name() string        { return "recall.content" }
func (r *ContentRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall。
func (r *ContentRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 从 rctx.Params 读取 scheme_id（必填）与 top_n（可选）。
func (r *ContentRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	raw, ok := rctx.Param(ParamSchemeID)
	if !ok {
		return nil, nil
	}
	schemeID, ok := conv.ToInt64(raw)
	if !ok {
		return nil, nil
	}
	topN := 0
	if v, ok := rctx.Param(ParamTopN); ok {
		if n, ok := conv.ToInt64(v); ok {
			topN = int(n)
		}
	}
	return r.Similar(ctx, schemeID, topN)
}

// Similar 返回与 schemeID 最相似的 topN 个 scheme。
// scheme 不在矩阵中时返回 core.ErrSchemeNotFound；矩阵不可用时返回 core.ErrMatrixUnavailable / ErrMatrixStale。
func (r *ContentRecall) Similar(ctx context.Context, schemeID int64, topN int) ([]*core.Item, error) {
	if topN <= 0 {
		topN = r.TopN
	}
	if topN <= 0 {
		topN = (&core.DefaultRecallConfig{}).DefaultTopN()
	}

	m, err := r.Matrix.Get(ctx)
	if err != nil {
		return nil, err
	}
	neighbors, err := m.Neighbors(schemeID, 0)
	if err != nil {
		return nil, err
	}

	var idx interface {
		Lookup(id int64) (*core.Scheme, bool)
	}
	if r.Catalog != nil {
		idx = r.Catalog.Index()
	}

	out := make([]*core.Item, 0, min(topN, len(neighbors)))
	for _, nb := range neighbors {
		if len(out) >= topN {
			break
		}
		it := core.NewItem(nb.SchemeID)
		it.Score = nb.Score
		if idx != nil {
			s, ok := idx.Lookup(nb.SchemeID)
			if !ok {
				continue
			}
			it.Scheme = s
		}
		it.PutLabel(LabelScore, utils.ScoreLabel(nb.Score, r.Name()))
		out = append(out, it)
	}
	return out, nil
}
