package dsl

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/schemekit/core"
)

func TestProgramMatch(t *testing.T) {
	s := &core.Scheme{
		ID:             1,
		Title:          "Scholarship for SC students",
		FundingPattern: "Central Sector",
		Tags:           []core.Tag{{Name: "scholarship", Weight: 2}},
		SponsorIDs:     []int64{3},
		StateID:        7,
		Active:         true,
	}
	rctx := &core.RecommendContext{UserID: 9, User: &core.UserProfile{UserID: 9, StateID: 7}}

	tests := []struct {
		expr string
		want bool
	}{
		{`scheme.state_id == 7`, true},
		{`"scholarship" in scheme.tags`, true},
		{`scheme.funding_pattern.contains("State")`, false},
		{`scheme.sponsor_ids.exists(s, s == 3)`, true},
		{`scheme.state_id == user.state_id && scheme.active`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			prg, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := prg.Match(s, rctx)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(`scheme.state_id ==`)
	require.Error(t, err)

	_, err = Compile(`1 + 2`)
	require.Error(t, err)
}

func TestCompileIsCached(t *testing.T) {
	a, err := Compile(`scheme.id > 0`)
	require.NoError(t, err)
	b, err := Compile(`scheme.id > 0`)
	require.NoError(t, err)
	require.Same(t, a, b)
}
