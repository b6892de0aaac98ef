package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rushteam/schemekit/core"
)

func sampleScheme() *core.Scheme {
	return &core.Scheme{
		ID:               1,
		Title:            "Post-Matric Scholarship",
		Description:      "Financial help for SC students",
		FundingPattern:   "Centrally Sponsored",
		Tags:             []core.Tag{{Name: "Scholarship"}, {Name: "SC Welfare"}, {Name: "Employment"}},
		BeneficiaryTypes: []string{"Students", "Women"},
		SponsorIDs:       []int64{3, 4},
		DepartmentID:     9,
		StateID:          7,
		Active:           true,
	}
}

func TestSpec_Match(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want bool
	}{
		{"empty spec", Spec{}, true},
		{"state hit", Spec{StateIDs: []int64{1, 7}}, true},
		{"state miss", Spec{StateIDs: []int64{1}}, false},
		{"department", Spec{DepartmentIDs: []int64{9}}, true},
		{"beneficiary substring", Spec{BeneficiaryKeywords: []string{"STUDENT"}}, true},
		{"beneficiary miss", Spec{BeneficiaryKeywords: []string{"farmer"}}, false},
		{"sponsor overlap", Spec{SponsorIDs: []int64{4, 8}}, true},
		{"sponsor miss", Spec{SponsorIDs: []int64{8}}, false},
		{"funding", Spec{FundingPattern: "central"}, true},
		{"search title", Spec{SearchQuery: "matric"}, true},
		{"search description", Spec{SearchQuery: "financial"}, true},
		{"search miss", Spec{SearchQuery: "housing"}, false},
		{"tag", Spec{Tag: "scholar"}, true},
		{"job requires a job tag", Spec{Tag: "job"}, false},
		{"tag miss", Spec{Tag: "pension"}, false},
		{"all dimensions", Spec{StateIDs: []int64{7}, Tag: "scholarship", SearchQuery: "post"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.spec.Match(sampleScheme()))
		})
	}

	inactive := sampleScheme()
	inactive.Active = false
	require.False(t, Spec{}.Match(inactive))
	require.False(t, Spec{}.Match(nil))
}

func TestProfileTagsFor(t *testing.T) {
	got := ProfileTagsFor(map[string]string{
		"occupation": "Farmer",
		"community":  "sc",
		"income":     "unknown",
		"religion":   "any",
	})
	require.Equal(t, []string{"sc", "farmer"}, got)
	require.Empty(t, ProfileTagsFor(nil))
}

func TestHasAnyTag(t *testing.T) {
	sc := sampleScheme()
	require.True(t, HasAnyTag(sc, []string{"farmer", "sc"}))
	require.False(t, HasAnyTag(sc, []string{"farmer"}))
	require.False(t, HasAnyTag(sc, nil))
	require.False(t, HasAnyTag(nil, []string{"sc"}))

	withJob := sampleScheme()
	withJob.Tags = append(withJob.Tags, core.Tag{Name: "Job Fair"})
	require.True(t, Spec{Tag: "job"}.Match(withJob))
}

func TestParseSpec(t *testing.T) {
	s := ParseSpec(map[string]any{
		"state_ids":            []any{1.0, "2", "x", nil},
		"department_ids":       "5",
		"beneficiary_keywords": []any{" women ", "", 3},
		"funding_pattern":      "central",
		"search_query":         "  loan ",
		"tag":                  "job",
		"expr":                 "scheme.state_id == 1",
		"user_profile":         map[string]any{"community": "OBC"},
	})
	require.Equal(t, []int64{1, 2}, s.StateIDs)
	require.Equal(t, []int64{5}, s.DepartmentIDs)
	require.Equal(t, []string{"women"}, s.BeneficiaryKeywords)
	require.Equal(t, "central", s.FundingPattern)
	require.Equal(t, "loan", s.SearchQuery)
	require.Equal(t, "job", s.Tag)
	require.False(t, s.Empty())
	require.True(t, ParseSpec(map[string]any{"user_profile": map[string]any{"community": "sc"}}).Empty(), "profile never filters")

	require.True(t, ParseSpec(nil).Empty())
	require.True(t, ParseSpec(map[string]any{"state_ids": "bogus"}).Empty())
}

type lookup map[int64]*core.Scheme

func (l lookup) Lookup(id int64) (*core.Scheme, bool) {
	s, ok := l[id]
	return s, ok
}

func TestFilterNode(t *testing.T) {
	a := sampleScheme()
	b := sampleScheme()
	b.ID, b.StateID = 2, 8
	lk := lookup{1: a, 2: b}

	items := []*core.Item{core.NewItem(1), core.NewItem(2), core.NewItem(3), nil}
	node := &FilterNode{Filters: ForSpec(Spec{StateIDs: []int64{7}}, lk, nil), Logger: zap.NewNop()}
	out, err := node.Process(context.Background(), nil, items)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, core.ItemIDs(out))
	require.Same(t, a, out[0].Scheme)
	require.Equal(t, "filter.spec", items[1].Labels["filtered"].Source)
}

func TestExprFilter(t *testing.T) {
	lk := lookup{1: sampleScheme()}
	rctx := &core.RecommendContext{UserID: 5, User: &core.UserProfile{UserID: 5, StateID: 7}}

	f := NewExprFilter("scheme.state_id == user.state_id", lk, nil)
	require.NotNil(t, f.Program)
	drop, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(1))
	require.NoError(t, err)
	require.False(t, drop)

	f = NewExprFilter(`"pension" in scheme.tags`, lk, nil)
	drop, err = f.ShouldFilter(context.Background(), rctx, core.NewItem(1))
	require.NoError(t, err)
	require.True(t, drop)

	// 编译失败的表达式不约束
	broken := NewExprFilter("scheme.state_id ==", lk, zap.NewNop())
	require.Nil(t, broken.Program)
	drop, err = broken.ShouldFilter(context.Background(), rctx, core.NewItem(1))
	require.NoError(t, err)
	require.False(t, drop)

	require.Len(t, ForSpec(Spec{Expr: "true"}, lk, nil), 2)
	require.Len(t, ForSpec(Spec{}, lk, nil), 1)
}
