package job

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/schemekit/catalog"
	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/similarity"
)

func newJob(t *testing.T, schemes catalog.Memory) (*MatrixRebuildJob, *similarity.Cache) {
	t.Helper()
	snap := catalog.NewSnapshot(schemes, nil)
	repo := similarity.NewRepository(similarity.NewFileBlobStore(filepath.Join(t.TempDir(), "matrix.gob.gz")), nil)
	cache := similarity.NewCache(repo, similarity.WithActiveCount(snap.ActiveCount))
	return &MatrixRebuildJob{
		Catalog: snap,
		Builder: similarity.NewBuilder(2, nil),
		Repo:    repo,
		Cache:   cache,
	}, cache
}

func TestMatrixRebuildJob(t *testing.T) {
	ctx := context.Background()
	j, cache := newJob(t, catalog.Memory{
		{ID: 1, Title: "Scholarship for SC students", Active: true},
		{ID: 2, Title: "Scholarship for ST students", Active: true},
		{ID: 3, Title: "Inactive", Active: false},
	})

	first, err := j.RunOnce(ctx)
	require.NoError(t, err)
	require.True(t, first.Saved)
	require.Equal(t, 2, first.Dimension)
	require.Equal(t, first.Version, cache.Version())

	second, err := j.RunOnce(ctx)
	require.NoError(t, err)
	require.False(t, second.Saved)
	require.Equal(t, first.Version, second.Version)

	// 缓存失效后可以从存储重新加载
	cache.Invalidate()
	m, err := cache.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, first.Version, m.Version)
	require.NoError(t, j.Run(ctx))
}

func TestMatrixRebuildJob_Canceled(t *testing.T) {
	j, cache := newJob(t, catalog.Memory{{ID: 1, Title: "a", Active: true}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := j.RunOnce(ctx)
	require.Error(t, err)
	require.Equal(t, "", cache.Version())

	_, err = j.Repo.Load(context.Background())
	require.ErrorIs(t, err, core.ErrMatrixUnavailable)
}

func TestMatrixReloadJob_PicksUpExternalBuild(t *testing.T) {
	ctx := context.Background()
	src := &catalog.Memory{
		{ID: 1, Title: "Scholarship for SC students", Active: true},
		{ID: 2, Title: "Scholarship for ST students", Active: true},
	}
	path := filepath.Join(t.TempDir(), "matrix.gob.gz")

	// 独立的 build 进程：自己的 catalog 快照，不持有 serve 的缓存
	build := func() string {
		t.Helper()
		res, err := (&MatrixRebuildJob{
			Catalog: catalog.NewSnapshot(src, nil),
			Builder: similarity.NewBuilder(1, nil),
			Repo:    similarity.NewRepository(similarity.NewFileBlobStore(path), nil),
		}).RunOnce(ctx)
		require.NoError(t, err)
		return res.Version
	}
	v1 := build()

	snap := catalog.NewSnapshot(src, nil)
	_, err := snap.Refresh(ctx)
	require.NoError(t, err)
	cache := similarity.NewCache(
		similarity.NewRepository(similarity.NewFileBlobStore(path), nil),
		similarity.WithActiveCount(snap.ActiveCount),
	)
	reload := &MatrixReloadJob{Catalog: snap, Cache: cache}
	require.Equal(t, "matrix_reload", reload.Name())
	require.NoError(t, reload.Run(ctx))
	require.Equal(t, v1, cache.Version())

	*src = append(*src, core.Scheme{ID: 3, Title: "Farmer irrigation subsidy", Active: true})
	v2 := build()
	require.NotEqual(t, v1, v2)

	require.NoError(t, reload.Run(ctx))
	require.Equal(t, v2, cache.Version())
	require.Equal(t, 3, snap.Index().ActiveCount())
}

func TestMatrixReloadJob_KeepsMatrixWhenStale(t *testing.T) {
	ctx := context.Background()
	j, cache := newJob(t, catalog.Memory{{ID: 1, Title: "a", Active: true}})
	res, err := j.RunOnce(ctx)
	require.NoError(t, err)

	// catalog 多出一个 scheme，但矩阵未重建
	grown := catalog.NewSnapshot(catalog.Memory{{ID: 1, Title: "a", Active: true}, {ID: 2, Title: "b", Active: true}}, nil)
	stale := similarity.NewCache(j.Repo, similarity.WithActiveCount(grown.ActiveCount))
	m, err := cache.Get(ctx)
	require.NoError(t, err)
	stale.Swap(m)
	reload := &MatrixReloadJob{Catalog: grown, Cache: stale}
	require.Error(t, reload.Run(ctx))
	require.Equal(t, res.Version, stale.Version())
}
