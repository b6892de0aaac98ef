// Package job 包含离线/周期任务。
package job

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rushteam/schemekit/catalog"
	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/corpus"
	"github.com/rushteam/schemekit/logging"
	"github.com/rushteam/schemekit/metrics"
	"github.com/rushteam/schemekit/similarity"
)

// RebuildResult 描述一次重建的结果。
type RebuildResult struct {
	Version   string
	Dimension int
	Saved     bool // false 表示已持久化的版本与新版本一致，跳过写入
	Elapsed   time.Duration
}

// MatrixRebuildJob 刷新 catalog，重建语料与相似度矩阵，持久化并替换缓存。
// 语料未变化时不重复写入存储。任何一步失败都不会改动已持久化的矩阵。
type MatrixRebuildJob struct {
	Catalog *catalog.Snapshot
	Builder *similarity.Builder
	Repo    *similarity.Repository
	Cache   *similarity.Cache // 可选
	Logger  *zap.Logger
}

func (j *MatrixRebuildJob) Name() string { return "matrix_rebuild" }

// Run 满足 schedule.Job。
func (j *MatrixRebuildJob) Run(ctx context.Context) error {
	_, err := j.RunOnce(ctx)
	return err
}

func (j *MatrixRebuildJob) RunOnce(ctx context.Context) (RebuildResult, error) {
	start := time.Now()
	logger := logging.OrNop(j.Logger)

	res, err := j.rebuild(ctx, logger)
	res.Elapsed = time.Since(start)
	metrics.MatrixRebuildDuration.Observe(res.Elapsed.Seconds())
	switch {
	case err != nil:
		metrics.MatrixRebuilds.WithLabelValues("failed").Inc()
		logger.Error("matrix rebuild failed", zap.Error(err), zap.Duration("elapsed", res.Elapsed))
	case res.Saved:
		metrics.MatrixRebuilds.WithLabelValues("built").Inc()
	default:
		metrics.MatrixRebuilds.WithLabelValues("unchanged").Inc()
	}
	return res, err
}

func (j *MatrixRebuildJob) rebuild(ctx context.Context, logger *zap.Logger) (RebuildResult, error) {
	idx, err := j.Catalog.Refresh(ctx)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("refresh catalog: %w", err)
	}
	docs := corpus.Build(idx.Schemes())

	m, err := j.Builder.Build(ctx, docs)
	if err != nil {
		return RebuildResult{}, fmt.Errorf("build matrix: %w", err)
	}
	res := RebuildResult{Version: m.Version, Dimension: m.Len()}

	stored, err := j.Repo.Version(ctx)
	switch {
	case err == nil && stored == m.Version:
		logger.Info("matrix unchanged, skip save", zap.String("version", m.Version))
	case err != nil && !core.IsUnavailable(err):
		return res, fmt.Errorf("read stored matrix: %w", err)
	default:
		if err := j.Repo.Save(ctx, m); err != nil {
			return res, fmt.Errorf("save matrix: %w", err)
		}
		res.Saved = true
	}

	if j.Cache != nil && j.Cache.Version() != m.Version {
		j.Cache.Swap(m)
	}
	metrics.MatrixDimension.Set(float64(m.Len()))
	return res, nil
}
