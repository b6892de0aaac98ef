package similarity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rushteam/schemekit/core"
)

// BlobStore 存取序列化后的矩阵。读取不存在的 blob 返回 core.ErrMatrixUnavailable。
type BlobStore interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	// Location 用于日志
	Location() string
}

// FileBlobStore 把矩阵写到本地文件，先写临时文件再 rename，读者不会看到半个文件。
type FileBlobStore struct {
	Path string
}

func NewFileBlobStore(path string) *FileBlobStore {
	return &FileBlobStore{Path: path}
}

func (s *FileBlobStore) Location() string { return "file://" + s.Path }

func (s *FileBlobStore) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.Path, core.ErrMatrixUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("read matrix blob %s: %w", s.Path, err)
	}
	return data, nil
}

func (s *FileBlobStore) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create matrix dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp matrix file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp matrix file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp matrix file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp matrix file: %w", err)
	}
	if err := os.Rename(tmpName, s.Path); err != nil {
		return fmt.Errorf("rename matrix file: %w", err)
	}
	return nil
}

// KVBlobStore 把矩阵存到 core.Store（Redis / 内存）的单个 key 下。
// Redis 的 SET 是原子的，读者只会看到旧值或新值。
type KVBlobStore struct {
	Store core.Store
	Key   string
}

func NewKVBlobStore(store core.Store, key string) *KVBlobStore {
	return &KVBlobStore{Store: store, Key: key}
}

func (s *KVBlobStore) Location() string { return s.Store.Name() + "://" + s.Key }

func (s *KVBlobStore) Read(ctx context.Context) ([]byte, error) {
	data, err := s.Store.Get(ctx, s.Key)
	if core.IsStoreNotFound(err) {
		return nil, fmt.Errorf("%s: %w", s.Key, core.ErrMatrixUnavailable)
	}
	if err != nil {
		return nil, fmt.Errorf("read matrix blob %s: %w", s.Key, err)
	}
	return data, nil
}

func (s *KVBlobStore) Write(ctx context.Context, data []byte) error {
	if err := s.Store.Set(ctx, s.Key, data); err != nil {
		return fmt.Errorf("write matrix blob %s: %w", s.Key, err)
	}
	return nil
}
