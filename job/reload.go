package job

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rushteam/schemekit/catalog"
	"github.com/rushteam/schemekit/logging"
	"github.com/rushteam/schemekit/metrics"
	"github.com/rushteam/schemekit/similarity"
)

// MatrixReloadJob 刷新 catalog 并从存储重新加载矩阵，
// 让 serve 进程拾取由独立 build 进程写入的新矩阵。
// 加载失败时缓存保留旧矩阵。
type MatrixReloadJob struct {
	Catalog *catalog.Snapshot
	Cache   *similarity.Cache
	Logger  *zap.Logger
}

func (j *MatrixReloadJob) Name() string { return "matrix_reload" }

func (j *MatrixReloadJob) Run(ctx context.Context) error {
	logger := logging.OrNop(j.Logger)
	before := j.Cache.Version()

	if _, err := j.Catalog.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	m, err := j.Cache.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reload matrix: %w", err)
	}
	if m.Version != before {
		logger.Info("similarity matrix picked up",
			zap.String("previous", before),
			zap.String("version", m.Version),
		)
		metrics.MatrixDimension.Set(float64(m.Len()))
	}
	return nil
}
