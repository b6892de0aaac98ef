package similarity

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/schemekit/corpus"
)

// Builder 从语料构建相似度矩阵。
// 行按 errgroup 并发计算，任一行失败或 ctx 取消时整体失败，不返回部分结果。
type Builder struct {
	// Workers 是并发计算行的上限，<= 0 时使用 GOMAXPROCS
	Workers int
	Logger  *zap.Logger
}

func NewBuilder(workers int, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{Workers: workers, Logger: logger}
}

// Build 拟合 TF-IDF 并计算两两余弦相似度。
//   - 0 个文档返回空矩阵
//   - 只计算 i <= j 的上三角，镜像写入下三角，保证严格对称
//   - 取值截断到 [0,1]，对角线恒为 1.0（包括空文档）
func (b *Builder) Build(ctx context.Context, docs []corpus.Document) (*Matrix, error) {
	start := time.Now()
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	n := len(docs)
	version := corpus.Fingerprint(docs)
	ids := corpus.IDs(docs)
	if n == 0 {
		return NewMatrix(version, ids, [][]float64{}), nil
	}

	texts := make([]string, n)
	for i, d := range docs {
		texts[i] = d.Text
	}
	vz := NewVectorizer()
	vectors := vz.FitTransform(texts)

	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
	}

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := 0; i < n; i++ {
		row := i
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			values[row][row] = 1.0
			for j := row + 1; j < n; j++ {
				v := clamp01(vectors[row].Dot(vectors[j]))
				values[row][j] = v
				values[j][row] = v
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logger.Warn("similarity matrix build aborted", zap.Int("documents", n), zap.Error(err))
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger.Info("similarity matrix built",
		zap.Int("documents", n),
		zap.Int("vocabulary", vz.Vocabulary()),
		zap.String("version", version),
		zap.Duration("elapsed", time.Since(start)),
	)
	return NewMatrix(version, ids, values), nil
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
