package similarity

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Loader 加载持久化的矩阵。
type Loader interface {
	Load(ctx context.Context) (*Matrix, error)
}

// Repository 组合 Codec 与 BlobStore，负责矩阵的保存与加载。
type Repository struct {
	Blob   BlobStore
	Codec  Codec
	Logger *zap.Logger
}

func NewRepository(blob BlobStore, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{Blob: blob, Logger: logger}
}

// Save 编码并写入矩阵。
func (r *Repository) Save(ctx context.Context, m *Matrix) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("refuse to save invalid matrix: %w", err)
	}
	data, err := r.Codec.Encode(m)
	if err != nil {
		return err
	}
	if err := r.Blob.Write(ctx, data); err != nil {
		return err
	}
	r.Logger.Info("similarity matrix saved",
		zap.String("location", r.Blob.Location()),
		zap.String("version", m.Version),
		zap.Int("dimension", m.Len()),
		zap.Int("bytes", len(data)),
	)
	return nil
}

// Load 读取并校验矩阵（校验和、形状）；维度与 catalog 的比对由 Cache 完成。
func (r *Repository) Load(ctx context.Context) (*Matrix, error) {
	data, err := r.Blob.Read(ctx)
	if err != nil {
		return nil, err
	}
	m, err := r.Codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load matrix from %s: %w", r.Blob.Location(), err)
	}
	return m, nil
}

// Version 返回已持久化矩阵的版本；不存在时返回错误。
func (r *Repository) Version(ctx context.Context) (string, error) {
	m, err := r.Load(ctx)
	if err != nil {
		return "", err
	}
	return m.Version, nil
}
