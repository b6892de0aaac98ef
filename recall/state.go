package recall

import (
	"context"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/pipeline"
	"github.com/rushteam/schemekit/pkg/utils"
	"github.com/rushteam/schemekit/rerank"
)

// StateRecall 是居住州兜底召回：返回用户所在州的全部启用 scheme，按标题、ID 升序。
// 匿名用户或居住州未知时返回空。
type StateRecall struct {
	Catalog IndexProvider
}

func (r *StateRecall) Name() string        { return "recall.state" }
func (r *StateRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *StateRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *StateRecall) Recall(_ context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil || rctx == nil || rctx.User == nil || rctx.User.StateID == 0 {
		return nil, nil
	}
	schemes := r.Catalog.Index().InState(rctx.User.StateID)
	sorted := make([]*core.Scheme, len(schemes))
	copy(sorted, schemes)
	rerank.SortSchemes(sorted, rerank.DefaultOrdering)

	out := make([]*core.Item, 0, len(sorted))
	for _, s := range sorted {
		it := core.NewItem(s.ID)
		it.Scheme = s
		it.PutLabel("state_id", utils.Label{Value: "match", Source: r.Name()})
		out = append(out, it)
	}
	return out, nil
}
