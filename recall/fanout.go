package recall

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/pipeline"
	"github.com/rushteam/schemekit/pkg/utils"
)

// 合并策略
const (
	MergeFirst    = "first"    // 按 ID 去重，保留第一次出现的
	MergeUnion    = "union"    // 不去重
	MergePriority = "priority" // 按 Sources 顺序决定优先级
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并按 Sources 顺序合并结果。
// 单个召回源失败或超时只记日志并返回空结果，不中断其他召回源。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy string
	Logger        *zap.Logger

	// OnSourceDone 在每个召回源结束后调用（用于打点），可为空
	OnSourceDone func(source string, n int, elapsed time.Duration, err error)
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// 每个召回源写自己的槽位，合并时按 Sources 顺序拼接，结果与调度顺序无关
	results := make([][]*core.Item, len(n.Sources))
	eg := new(errgroup.Group)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			start := time.Now()
			items, err := src.Recall(recallCtx, rctx)
			if n.OnSourceDone != nil {
				n.OnSourceDone(src.Name(), len(items), time.Since(start), err)
			}
			if err != nil {
				logger.Warn("recall source failed",
					zap.String("source", src.Name()),
					zap.Int64("user_id", userID(rctx)),
					zap.Error(err),
				)
				return nil
			}

			priority := strconv.Itoa(i)
			for _, it := range items {
				it.PutLabel(LabelRecallSource, utils.Label{Value: src.Name(), Source: "recall"})
				it.PutLabel(LabelRecallPriority, utils.Label{Value: priority, Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []*core.Item
	for _, items := range results {
		all = append(all, items...)
	}

	switch n.MergeStrategy {
	case MergeUnion:
		return all, nil
	case MergePriority:
		return n.mergeByPriority(all), nil
	default:
		return n.mergeFirst(all), nil
	}
}

func userID(rctx *core.RecommendContext) int64 {
	if rctx == nil {
		return 0
	}
	return rctx.UserID
}

// mergeFirst 按 ID 去重，保留第一个出现的，后续出现的 labels 并入。
func (n *Fanout) mergeFirst(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[int64]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				if k == LabelRecallPriority {
					continue
				}
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}

// mergeByPriority 相同 ID 时保留优先级更高（Sources 下标更小）的；
// 输出顺序为各 item 首次出现的位置。
func (n *Fanout) mergeByPriority(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	pos := make(map[int64]int, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		i, exists := pos[it.ID]
		if !exists {
			pos[it.ID] = len(out)
			out = append(out, it)
			continue
		}
		old := out[i]
		if priorityOf(it) < priorityOf(old) {
			for k, v := range old.Labels {
				if k == LabelRecallPriority {
					continue
				}
				it.PutLabel(k, v)
			}
			out[i] = it
			continue
		}
		for k, v := range it.Labels {
			if k == LabelRecallPriority {
				continue
			}
			old.PutLabel(k, v)
		}
	}
	return out
}

func priorityOf(it *core.Item) int {
	if lbl, ok := it.Labels[LabelRecallPriority]; ok {
		if p, err := strconv.Atoi(lbl.Value); err == nil {
			return p
		}
	}
	return 1 << 30
}
