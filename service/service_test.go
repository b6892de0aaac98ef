package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/schemekit/catalog"
	"github.com/rushteam/schemekit/core"
	"github.com/rushteam/schemekit/corpus"
	"github.com/rushteam/schemekit/filter"
	"github.com/rushteam/schemekit/interaction"
	"github.com/rushteam/schemekit/recall"
	"github.com/rushteam/schemekit/similarity"
)

func testSchemes() []core.Scheme {
	return []core.Scheme{
		{ID: 1, Title: "Scholarship for SC students", Tags: []core.Tag{{Name: "scholarship", Weight: 2}}, StateID: 10, Active: true},
		{ID: 2, Title: "Scholarship for ST students", Tags: []core.Tag{{Name: "scholarship", Weight: 2}}, StateID: 10, Active: true},
		{ID: 3, Title: "Farmer irrigation subsidy", Tags: []core.Tag{{Name: "agriculture"}}, StateID: 20, Active: true},
		{ID: 4, Title: "Housing loan", Tags: []core.Tag{{Name: "housing"}}, StateID: 10, Active: true},
		{ID: 5, Title: "Retired scheme", StateID: 10, Active: false},
		{ID: 7, Title: "Crop insurance", Tags: []core.Tag{{Name: "agriculture"}}, StateID: 20, Active: true},
	}
}

func recIDs(recs []Recommendation) []int64 {
	out := make([]int64, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.ID)
	}
	return out
}

func schemeIDs(ss []core.Scheme) []int64 {
	out := make([]int64, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.ID)
	}
	return out
}

func TestSchemeRecommender_Scholarship(t *testing.T) {
	ctx := context.Background()
	schemes := []core.Scheme{
		{ID: 1, Title: "Scholarship for SC students", Tags: []core.Tag{{Name: "scholarship", Weight: 2}}, Active: true},
		{ID: 2, Title: "Scholarship for ST students", Tags: []core.Tag{{Name: "scholarship", Weight: 2}}, Active: true},
		{ID: 3, Title: "Farmer irrigation subsidy", Tags: []core.Tag{{Name: "agriculture", Weight: 1}}, Active: true},
	}
	m, err := similarity.NewBuilder(1, nil).Build(ctx, corpus.Build(schemes))
	require.NoError(t, err)
	cache := similarity.NewCache(nil)
	cache.Swap(m)

	r := NewSchemeRecommender(cache, recall.StaticIndex{Idx: catalog.NewIndex(schemes)}, RecommenderOptions{})
	got, err := r.Recommend(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3}, recIDs(got))
	require.Equal(t, "Scholarship for ST students", got[0].Title)
	require.Greater(t, got[0].Score, got[1].Score)

	again, err := r.Recommend(ctx, 1, 2)
	require.NoError(t, err)
	require.Equal(t, got, again)

	// 新矩阵替换后结果随之变化
	cache.Swap(similarity.NewMatrix("v2", []int64{1, 2, 3}, [][]float64{
		{1, 0.1, 0.9},
		{0.1, 1, 0},
		{0.9, 0, 1},
	}))
	got, err = r.Recommend(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []int64{3}, recIDs(got))

	_, err = r.Recommend(ctx, 99, 5)
	require.True(t, core.IsNotFound(err))
}

func TestSchemeRecommender_TopNClamped(t *testing.T) {
	ctx := context.Background()
	cache := similarity.NewCache(nil)
	cache.Swap(similarity.NewMatrix("v1", []int64{1, 2, 3}, [][]float64{
		{1, 0.5, 0.2},
		{0.5, 1, 0},
		{0.2, 0, 1},
	}))
	idx := recall.StaticIndex{Idx: catalog.NewIndex(testSchemes())}

	r := NewSchemeRecommender(cache, idx, RecommenderOptions{})
	got, err := r.Recommend(ctx, 1, 1<<50)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 3}, recIDs(got))

	r = NewSchemeRecommender(cache, idx, RecommenderOptions{MaxTopN: 1})
	got, err = r.Recommend(ctx, 1, 5)
	require.NoError(t, err)
	require.Equal(t, []int64{2}, recIDs(got))
}

func TestSchemeRecommender_MatrixUnavailable(t *testing.T) {
	r := NewSchemeRecommender(similarity.NewCache(nil), recall.StaticIndex{Idx: catalog.NewIndex(testSchemes())}, RecommenderOptions{})
	got, err := r.Recommend(context.Background(), 1, 5)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func newHybrid(t *testing.T) (*HybridService, core.InteractionStore) {
	t.Helper()
	idx := recall.StaticIndex{Idx: catalog.NewIndex(testSchemes())}
	store := interaction.NewMemoryStore()
	cf := &recall.UserBasedCF{Store: store, Catalog: idx}
	return NewHybridService(cf, idx, HybridOptions{}), store
}

func save(t *testing.T, store core.InteractionStore, user int64, schemes ...int64) {
	t.Helper()
	for _, sid := range schemes {
		_, err := store.Record(context.Background(), user, sid, core.EventSave)
		require.NoError(t, err)
	}
}

func TestHybrid_LoneSaverFallsBackToState(t *testing.T) {
	svc, store := newHybrid(t)
	save(t, store, 100, 7)

	page, err := svc.Recommend(context.Background(), HybridRequest{UserID: 100, StateID: 20, Limit: 100})
	require.NoError(t, err)
	require.Equal(t, 5, page.Count)
	require.Equal(t, []int64{7, 3, 4, 1, 2}, schemeIDs(page.Results))
}

func TestHybrid_Blocks(t *testing.T) {
	svc, store := newHybrid(t)
	save(t, store, 200, 1, 4)
	save(t, store, 300, 1)

	tests := []struct {
		name string
		req  HybridRequest
		want []int64
	}{
		{
			name: "collaborative then state then rest",
			req:  HybridRequest{UserID: 300, StateID: 20},
			want: []int64{4, 7, 3, 1, 2},
		},
		{
			name: "explicit ordering sorts each block",
			req:  HybridRequest{UserID: 300, StateID: 20, Ordering: "-title"},
			want: []int64{4, 3, 7, 2, 1},
		},
		{
			name: "unknown ordering falls back to title",
			req:  HybridRequest{UserID: 300, StateID: 20, Ordering: "popularity"},
			want: []int64{4, 7, 3, 1, 2},
		},
		{
			name: "filter applies to both blocks",
			req:  HybridRequest{UserID: 300, StateID: 20, Spec: filter.Spec{StateIDs: []int64{20}}},
			want: []int64{7, 3},
		},
		{
			name: "anonymous",
			req:  HybridRequest{},
			want: []int64{7, 3, 4, 1, 2},
		},
		{
			name: "profile promotes matches without dropping others",
			req:  HybridRequest{Attributes: map[string]string{"Community": "SC"}},
			want: []int64{1, 2, 7, 3, 4},
		},
		{
			name: "profile boost stays inside each block",
			req:  HybridRequest{UserID: 300, StateID: 20, Attributes: map[string]string{"occupation": "farmer", "community": "sc"}},
			want: []int64{4, 7, 3, 1, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.Recommend(context.Background(), tt.req)
			require.NoError(t, err)
			require.Equal(t, tt.want, schemeIDs(page.Results))
		})
	}
}

func TestHybrid_NoDuplicatesAcrossPages(t *testing.T) {
	svc, store := newHybrid(t)
	save(t, store, 200, 1, 4)
	save(t, store, 300, 1)

	seen := map[int64]bool{}
	for p := 1; ; p++ {
		page, err := svc.Recommend(context.Background(), HybridRequest{UserID: 300, StateID: 20, Page: p, Limit: 2})
		require.NoError(t, err)
		require.Equal(t, 5, page.Count)
		if len(page.Results) == 0 {
			require.NotNil(t, page.Results)
			break
		}
		for _, s := range page.Results {
			require.False(t, seen[s.ID], "scheme %d repeated", s.ID)
			seen[s.ID] = true
		}
	}
	require.Len(t, seen, 5)
	require.False(t, seen[5])
}

func TestHybrid_FeedbackKeywords(t *testing.T) {
	ctx := context.Background()
	svc, store := newHybrid(t)
	// 邻居 200 与 300 都收藏了 1；200 还申请了 4、浏览了两次 2
	save(t, store, 300, 1)
	save(t, store, 200, 1)
	_, err := store.Record(ctx, 200, 4, core.EventApply)
	require.NoError(t, err)
	for range 2 {
		_, err = store.Record(ctx, 200, 2, core.EventView)
		require.NoError(t, err)
	}

	page, err := svc.Recommend(ctx, HybridRequest{UserID: 300, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []int64{4, 2}, schemeIDs(page.Results))

	// 反馈提到 scholarship，命中的候选权重翻倍后排到前面
	page, err = svc.Recommend(ctx, HybridRequest{UserID: 300, Feedback: "Looking for a Scholarship!", Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []int64{2, 4}, schemeIDs(page.Results))

	page, err = svc.Recommend(ctx, HybridRequest{UserID: 300, Feedback: "scholarship", TopN: 1, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, []int64{2}, schemeIDs(page.Results))
}

func TestInteractionService(t *testing.T) {
	ctx := context.Background()
	idx := recall.StaticIndex{Idx: catalog.NewIndex(testSchemes())}
	svc := NewInteractionService(interaction.NewMemoryStore(), idx, nil)

	_, err := svc.Record(ctx, 0, 1, "view")
	require.ErrorIs(t, err, core.ErrMissingUser)

	_, err = svc.Record(ctx, 1, 1, "like")
	require.True(t, core.IsInvalidInput(err))

	_, err = svc.Record(ctx, 1, 99, "view")
	require.True(t, core.IsNotFound(err))

	row, err := svc.Record(ctx, 1, 1, "save")
	require.NoError(t, err)
	require.Equal(t, 2.0, row.Value)
	row, err = svc.Record(ctx, 1, 1, "save")
	require.NoError(t, err)
	require.Equal(t, 0.0, row.Value)

	rows, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}
