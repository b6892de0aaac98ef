package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/schemekit/core"
)

func TestDecodeJSON(t *testing.T) {
	data := []byte(`[
		{"id": 2, "title": "Crop insurance", "state_id": 5, "tags": [{"name": "agriculture", "weight": 1.5}],
		 "introduced_on": "2020-01-02T00:00:00Z"},
		{"id": 1, "title": "Old scheme", "is_active": false, "sponsor_ids": [3, 4]}
	]`)
	schemes, err := DecodeJSON(data)
	require.NoError(t, err)
	require.Len(t, schemes, 2)
	require.True(t, schemes[0].Active)
	require.Equal(t, 1.5, schemes[0].Tags[0].Weight)
	require.Equal(t, 2020, schemes[0].IntroducedOn.Year())
	require.False(t, schemes[1].Active)
	require.Equal(t, []int64{3, 4}, schemes[1].SponsorIDs)

	_, err = DecodeJSON([]byte("{"))
	require.Error(t, err)
}

func TestJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schemes.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id": 9, "title": "x"}]`), 0o600))
	schemes, err := JSONFile{Path: path}.Schemes(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(9), schemes[0].ID)

	_, err = JSONFile{Path: filepath.Join(t.TempDir(), "missing.json")}.Schemes(context.Background())
	require.Error(t, err)
}

func TestIndex(t *testing.T) {
	idx := NewIndex([]core.Scheme{
		{ID: 3, StateID: 1, Active: true},
		{ID: 1, StateID: 1, Active: true},
		{ID: 2, StateID: 2, Active: false},
		{ID: 4, StateID: 2, Active: true},
	})
	require.Equal(t, 3, idx.ActiveCount())
	require.Equal(t, []int64{1, 3, 4}, ids(idx.Active()))
	require.Equal(t, []int64{1, 3}, ids(idx.InState(1)))
	require.Equal(t, []int64{4}, ids(idx.InState(2)))
	require.Empty(t, idx.InState(9))

	s, err := idx.Get(2)
	require.NoError(t, err)
	require.False(t, s.Active)
	_, ok := idx.Lookup(2)
	require.False(t, ok)

	_, err = idx.Get(42)
	require.True(t, core.IsNotFound(err))
	require.Len(t, idx.Schemes(), 4)
}

type failingSource struct{}

func (failingSource) Schemes(context.Context) ([]core.Scheme, error) {
	return nil, errors.New("boom")
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	snap := NewSnapshot(Memory{{ID: 1, Active: true}, {ID: 2, Active: true}}, nil)
	require.Equal(t, 0, snap.Index().ActiveCount())

	_, err := snap.Refresh(ctx)
	require.NoError(t, err)
	n, err := snap.ActiveCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	bad := NewSnapshot(failingSource{}, nil)
	idx, err := bad.Refresh(ctx)
	require.Error(t, err)
	require.NotNil(t, idx)
}

func ids(schemes []*core.Scheme) []int64 {
	out := make([]int64, len(schemes))
	for i, s := range schemes {
		out[i] = s.ID
	}
	return out
}
