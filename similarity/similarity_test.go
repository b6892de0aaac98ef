package similarity

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/corpus"
	"github.com/rushteam/schemekit/store"
)

func scholarshipCorpus() []corpus.Document {
	return corpus.Build([]core.Scheme{
		{ID: 1, Title: "Scholarship for SC students", Tags: []core.Tag{{Name: "scholarship", Weight: 2}}, Active: true},
		{ID: 2, Title: "Scholarship for ST students", Tags: []core.Tag{{Name: "scholarship", Weight: 2}}, Active: true},
		{ID: 3, Title: "Farmer irrigation subsidy", Tags: []core.Tag{{Name: "agriculture", Weight: 1}}, Active: true},
	})
}

func build(t *testing.T, docs []corpus.Document) *Matrix {
	t.Helper()
	m, err := NewBuilder(2, nil).Build(context.Background(), docs)
	require.NoError(t, err)
	return m
}

func TestVectorizer_IDF(t *testing.T) {
	vz := NewVectorizer()
	vecs := vz.FitTransform([]string{"apple banana", "apple cherry", ""})
	require.Equal(t, 3, vz.Vocabulary())

	// apple: df=2, banana: df=1, n=3
	idfApple := math.Log(4.0/3.0) + 1
	idfBanana := math.Log(4.0/2.0) + 1
	norm := math.Sqrt(idfApple*idfApple + idfBanana*idfBanana)
	require.Equal(t, []int{0, 1}, vecs[0].Indices)
	require.InDelta(t, idfApple/norm, vecs[0].Values[0], 1e-12)
	require.InDelta(t, idfBanana/norm, vecs[0].Values[1], 1e-12)
	require.InDelta(t, 1.0, vecs[0].Norm(), 1e-12)

	require.Empty(t, vecs[2].Indices)
	require.Zero(t, vecs[2].Dot(vecs[0]))
}

func TestVectorizer_StopWordsIgnored(t *testing.T) {
	vz := NewVectorizer()
	vecs := vz.FitTransform([]string{"the and of", "for the farmer"})
	require.Equal(t, 1, vz.Vocabulary())
	require.Empty(t, vecs[0].Indices)
}

func TestBuilder_Properties(t *testing.T) {
	docs := corpus.Build([]core.Scheme{
		{ID: 10, Title: "Housing for all", Description: "urban housing loan", Active: true},
		{ID: 11, Title: "Rural housing", Description: "village housing grant", Active: true},
		{ID: 12, Title: "Crop insurance", Description: "farmer crop loss cover", Active: true},
		{ID: 13, Title: "!!!", Active: true},
		{ID: 14, Title: "Women entrepreneur loan", Tags: []core.Tag{{Name: "loan", Weight: 3}}, Active: true},
	})
	m := build(t, docs)
	require.NoError(t, m.Validate())
	require.Equal(t, []int64{10, 11, 12, 13, 14}, m.IDs)

	for i := range m.Values {
		require.Equal(t, 1.0, m.Values[i][i], "self similarity")
		for j := range m.Values {
			require.Equal(t, m.Values[i][j], m.Values[j][i], "symmetry")
			require.GreaterOrEqual(t, m.Values[i][j], 0.0)
			require.LessOrEqual(t, m.Values[i][j], 1.0)
		}
	}

	// 空文档与其他文档相似度为 0
	s, ok := m.Score(13, 10)
	require.True(t, ok)
	require.Zero(t, s)

	again := build(t, docs)
	require.Equal(t, m.Version, again.Version)
	require.Equal(t, m.Values, again.Values)
}

func TestBuilder_Degenerate(t *testing.T) {
	empty := build(t, nil)
	require.Equal(t, 0, empty.Len())
	require.NoError(t, empty.Validate())
	_, err := empty.Neighbors(1, 5)
	require.True(t, core.IsNotFound(err))

	one := build(t, []corpus.Document{{SchemeID: 7, Text: "solo"}})
	require.Equal(t, [][]float64{{1.0}}, one.Values)
	got, err := one.Neighbors(7, 5)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestBuilder_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(1, nil).Build(ctx, scholarshipCorpus())
	require.ErrorIs(t, err, context.Canceled)
}

func TestScholarshipScenario(t *testing.T) {
	m := build(t, scholarshipCorpus())

	s12, _ := m.Score(1, 2)
	s13, _ := m.Score(1, 3)
	s23, _ := m.Score(2, 3)
	require.Greater(t, s12, s13)
	require.Greater(t, s12, s23)

	got, err := m.Neighbors(1, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, int64(2), got[0].SchemeID)
	require.Equal(t, int64(3), got[1].SchemeID)
}

func TestNeighbors_TieBreakByID(t *testing.T) {
	m := NewMatrix("v", []int64{5, 3, 9, 1}, [][]float64{
		{1, 0.5, 0.5, 0.2},
		{0.5, 1, 0, 0},
		{0.5, 0, 1, 0},
		{0.2, 0, 0, 1},
	})
	got, err := m.Neighbors(5, 0)
	require.NoError(t, err)
	require.Equal(t, []Neighbor{{3, 0.5}, {9, 0.5}, {1, 0.2}}, got)

	top1, err := m.Neighbors(5, 1)
	require.NoError(t, err)
	require.Len(t, top1, 1)
}

func TestMatrix_Validate(t *testing.T) {
	require.ErrorIs(t, NewMatrix("v", []int64{1, 2}, [][]float64{{1, 0}}).Validate(), core.ErrMatrixStale)
	require.ErrorIs(t, NewMatrix("v", []int64{1}, [][]float64{{1, 0}}).Validate(), core.ErrMatrixStale)
	require.ErrorIs(t, NewMatrix("v", []int64{1}, [][]float64{{1.5}}).Validate(), core.ErrMatrixStale)
	require.ErrorIs(t, NewMatrix("v", []int64{1, 1}, [][]float64{{1, 0}, {0, 1}}).Validate(), core.ErrMatrixStale)
	require.True(t, core.IsUnavailable(NewMatrix("v", []int64{1}, [][]float64{{1}}).CheckDimension(2)))
}

func TestCodec_RoundTripAndCorruption(t *testing.T) {
	m := build(t, scholarshipCorpus())
	data, err := Codec{}.Encode(m)
	require.NoError(t, err)

	got, err := Codec{}.Decode(data)
	require.NoError(t, err)
	require.Equal(t, m.Version, got.Version)
	require.Equal(t, m.IDs, got.IDs)
	require.Equal(t, m.Values, got.Values)
	idx, ok := got.IndexOf(3)
	require.True(t, ok)
	require.Equal(t, 2, idx)

	_, err = Codec{}.Decode([]byte("not a matrix"))
	require.True(t, core.IsUnavailable(err))
}

func TestRepository_FileBlob(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "matrix.gob.gz")
	repo := NewRepository(NewFileBlobStore(path), nil)

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, core.ErrMatrixUnavailable)

	m := build(t, scholarshipCorpus())
	require.NoError(t, repo.Save(ctx, m))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, m.Values, loaded.Values)

	v, err := repo.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, m.Version, v)
}

func TestRepository_KVBlob(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	repo := NewRepository(NewKVBlobStore(kv, "schemekit:matrix"), nil)

	_, err := repo.Load(ctx)
	require.True(t, core.IsUnavailable(err))

	m := build(t, scholarshipCorpus())
	require.NoError(t, repo.Save(ctx, m))
	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, m.IDs, loaded.IDs)

	// 篡改内容后加载失败
	require.NoError(t, kv.Set(ctx, "schemekit:matrix", []byte("garbage")))
	_, err = repo.Load(ctx)
	require.Error(t, err)
}

type countingLoader struct {
	calls atomic.Int32
	m     *Matrix
	err   error
}

func (l *countingLoader) Load(context.Context) (*Matrix, error) {
	l.calls.Add(1)
	return l.m, l.err
}

func TestCache_LazyLoadAndDimensionCheck(t *testing.T) {
	ctx := context.Background()
	m := build(t, scholarshipCorpus())
	loader := &countingLoader{m: m}

	active := 3
	var swapped []string
	c := NewCache(loader,
		WithActiveCount(func(context.Context) (int, error) { return active, nil }),
		WithSwapHook(func(m *Matrix) {
			if m == nil {
				swapped = append(swapped, "")
				return
			}
			swapped = append(swapped, m.Version)
		}),
	)
	require.Equal(t, "", c.Version())

	got, err := c.Get(ctx)
	require.NoError(t, err)
	require.Same(t, m, got)
	_, _ = c.Get(ctx)
	require.Equal(t, int32(1), loader.calls.Load())
	require.Equal(t, m.Version, c.Version())

	// 新增 scheme 后矩阵过期；Reload 失败保留旧矩阵
	active = 4
	_, err = c.Reload(ctx)
	require.True(t, core.IsUnavailable(err))
	require.Equal(t, m.Version, c.Version())

	// 版本未变的 Reload 不替换
	active = 3
	again, err := c.Reload(ctx)
	require.NoError(t, err)
	require.Same(t, m, again)
	require.Equal(t, []string{m.Version}, swapped)

	c.Invalidate()
	require.Equal(t, "", c.Version())
	require.Equal(t, []string{m.Version, ""}, swapped)
}

func TestCache_RetryInterval(t *testing.T) {
	ctx := context.Background()
	loader := &countingLoader{err: core.ErrMatrixUnavailable}
	c := NewCache(loader, WithRetryInterval(time.Minute))
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }

	_, err := c.Get(ctx)
	require.True(t, errors.Is(err, core.ErrMatrixUnavailable))
	_, err = c.Get(ctx)
	require.Error(t, err)
	require.Equal(t, int32(1), loader.calls.Load())

	now = now.Add(2 * time.Minute)
	loader.m, loader.err = NewMatrix("v2", []int64{1}, [][]float64{{1}}), nil
	got, err := c.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, "v2", got.Version)
	require.Equal(t, int32(2), loader.calls.Load())
}

func TestCache_Swap(t *testing.T) {
	c := NewCache(nil)
	_, err := c.Get(context.Background())
	require.ErrorIs(t, err, core.ErrMatrixUnavailable)

	m := NewMatrix("v1", []int64{1}, [][]float64{{1}})
	c.Swap(m)
	got, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Same(t, m, got)
}
