package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rushteam/schemekit/core"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	require.True(t, core.IsStoreNotFound(err))

	buf := []byte("matrix")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'X'
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("matrix"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	require.True(t, core.IsStoreNotFound(err))
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 1))
	_, err := s.Get(ctx, "k")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := s.Get(ctx, "k")
		return core.IsStoreNotFound(err)
	}, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
