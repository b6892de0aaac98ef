package rerank

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/schemekit/core"
)

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		in       string
		want     Ordering
		explicit bool
	}{
		{"title", OrderTitleAsc, true},
		{"-title", OrderTitleDesc, true},
		{" introduced_on ", OrderIntroducedAsc, true},
		{"-introduced_on", OrderIntroducedDesc, true},
		{"", DefaultOrdering, false},
		{"popularity", DefaultOrdering, false},
	}
	for _, tt := range tests {
		got, explicit := ParseOrdering(tt.in)
		require.Equal(t, tt.want, got, tt.in)
		require.Equal(t, tt.explicit, explicit, tt.in)
	}
}

func schemes() []*core.Scheme {
	day := func(d int) time.Time { return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC) }
	return []*core.Scheme{
		{ID: 4, Title: "beta", IntroducedOn: day(3)},
		{ID: 2, Title: "Alpha", IntroducedOn: day(5)},
		{ID: 3, Title: "alpha", IntroducedOn: day(1)},
		{ID: 1, Title: "Gamma", IntroducedOn: day(3)},
	}
}

func ids(ss []*core.Scheme) []int64 {
	out := make([]int64, len(ss))
	for i, s := range ss {
		out[i] = s.ID
	}
	return out
}

func TestSortSchemes(t *testing.T) {
	tests := []struct {
		o    Ordering
		want []int64
	}{
		{OrderTitleAsc, []int64{2, 3, 4, 1}},
		{OrderTitleDesc, []int64{1, 4, 2, 3}},
		{OrderIntroducedAsc, []int64{3, 1, 4, 2}},
		{OrderIntroducedDesc, []int64{2, 1, 4, 3}},
	}
	for _, tt := range tests {
		t.Run(string(tt.o), func(t *testing.T) {
			ss := schemes()
			SortSchemes(ss, tt.o)
			require.Equal(t, tt.want, ids(ss))
		})
	}
}

func TestOrderNode(t *testing.T) {
	items := []*core.Item{
		{ID: 3, Score: 1},
		{ID: 1, Score: 5},
		{ID: 2, Score: 5},
	}
	out, err := (&OrderNode{}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 3}, core.ItemIDs(out))
	require.Equal(t, int64(3), items[0].ID, "input untouched")

	withSchemes := []*core.Item{
		{ID: 9},
		{ID: 2, Scheme: &core.Scheme{ID: 2, Title: "b"}},
		{ID: 1, Scheme: &core.Scheme{ID: 1, Title: "a"}},
	}
	out, err = (&OrderNode{Ordering: OrderTitleAsc}).Process(context.Background(), nil, withSchemes)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2, 9}, core.ItemIDs(out))
}

func TestTopNNode(t *testing.T) {
	items := []*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3)}
	out, err := (&TopNNode{N: 2}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	require.Len(t, out, 2)

	out, err = (&TopNNode{N: 2}).Process(context.Background(), &core.RecommendContext{Params: map[string]any{"top_n": 1}}, items)
	require.NoError(t, err)
	require.Len(t, out, 1)

	out, err = (&TopNNode{}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	require.Len(t, out, 3)
}

func TestPaginate(t *testing.T) {
	all := make([]int, 25)
	for i := range all {
		all[i] = i
	}
	p := Paginate(all, 3, 10, DefaultPaging)
	require.Equal(t, 25, p.Count)
	require.Equal(t, []int{20, 21, 22, 23, 24}, p.Results)

	p = Paginate(all, 0, 0, DefaultPaging)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 10, p.Limit)
	require.Len(t, p.Results, 10)

	p = Paginate(all, 1, 1000, DefaultPaging)
	require.Equal(t, 100, p.Limit)
	require.Len(t, p.Results, 25)

	p = Paginate(all, 9, 10, DefaultPaging)
	require.NotNil(t, p.Results)
	require.Empty(t, p.Results)
}

func TestPaginate_HugePage(t *testing.T) {
	for _, page := range []int{100000000000000000, math.MaxInt} {
		p := Paginate([]int{1, 2, 3}, page, 100, DefaultPaging)
		require.Equal(t, 3, p.Count)
		require.NotNil(t, p.Results)
		require.Empty(t, p.Results)
	}

	p := Paginate([]int{}, 1, 10, DefaultPaging)
	require.Empty(t, p.Results)

	p = Paginate([]int{1, 2, 3}, 1, 0, Paging{})
	require.Equal(t, 10, p.Limit)
	require.Equal(t, []int{1, 2, 3}, p.Results)
}
