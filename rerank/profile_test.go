package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/schemekit/core"
)

func taggedItem(id int64, tags ...string) *core.Item {
	sc := &core.Scheme{ID: id, Active: true}
	for _, tg := range tags {
		sc.Tags = append(sc.Tags, core.Tag{Name: tg})
	}
	it := core.NewItem(id)
	it.Scheme = sc
	return it
}

func TestPromoteProfile(t *testing.T) {
	items := []*core.Item{
		taggedItem(1, "housing"),
		taggedItem(2, "Farmer Welfare"),
		core.NewItem(3),
		taggedItem(4, "agriculture", "farmer"),
	}
	out := PromoteProfile(items, []string{"farmer"})
	require.Equal(t, []int64{2, 4, 1, 3}, core.ItemIDs(out))
	require.Equal(t, "true", out[0].Labels[LabelProfileMatch].Value)
	require.NotContains(t, out[2].Labels, LabelProfileMatch)

	require.Equal(t, []int64{1, 2, 3, 4}, core.ItemIDs(PromoteProfile(items, nil)))
}

func TestProfileBoostNode(t *testing.T) {
	items := []*core.Item{taggedItem(1, "housing"), taggedItem(2, "SC welfare")}
	node := &ProfileBoostNode{}

	out, err := node.Process(context.Background(), nil, items)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, core.ItemIDs(out))

	user := core.NewUserProfile(1)
	user.SetAttribute("community", "SC")
	user.SetAttribute("income", "unknown")
	out, err = node.Process(context.Background(), &core.RecommendContext{User: user}, items)
	require.NoError(t, err)
	require.Equal(t, []int64{2, 1}, core.ItemIDs(out))
}
