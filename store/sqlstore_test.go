package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintpool-net/premintpool/premint"
	"github.com/mintpool-net/premintpool/premint/simplemint"
	"github.com/mintpool-net/premintpool/store"
)

func openTestSQLStore(t *testing.T) *store.SQLStore {
	t.Helper()
	s, err := store.OpenSQLStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLStore_StoreIdempotency(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLStore(t)

	require.NoError(t, s.StorePremint(ctx, newSimplePremint(1, 99)))
	require.ErrorIs(t, s.StorePremint(ctx, newSimplePremint(1, 99)), store.ErrVersionConflict)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uint64(1), all[0].Metadata().Version)

	require.NoError(t, s.StorePremint(ctx, newSimplePremint(5, 99)))
	all, err = s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uint64(5), all[0].Metadata().Version)

	require.ErrorIs(t, s.StorePremint(ctx, newSimplePremint(2, 99)), store.ErrVersionConflict)
}

func TestSQLStore_MonotoneSeenOnChain(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLStore(t)

	p := newSimplePremint(1, 11)
	require.NoError(t, s.StorePremint(ctx, p))

	claim := premint.InclusionClaim{PremintID: p.Metadata().ID, ChainID: 8453, Kind: simplemint.Kind}
	require.NoError(t, s.MarkSeenOnChain(ctx, claim))

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 0)

	seen, err := s.IsSeenOnChain(ctx, simplemint.Kind, p.Metadata().ID)
	require.NoError(t, err)
	assert.True(t, seen)

	// GetForIDAndKind still returns a seen premint.
	got, err := s.GetForIDAndKind(ctx, simplemint.Kind, p.Metadata().ID)
	require.NoError(t, err)
	assert.Equal(t, p.Metadata().ID, got.Metadata().ID)

	// marking again must not error or duplicate the claim row.
	require.NoError(t, s.MarkSeenOnChain(ctx, claim))
}

func TestSQLStore_GetForIDAndKindNotFound(t *testing.T) {
	s := openTestSQLStore(t)
	_, err := s.GetForIDAndKind(context.Background(), simplemint.Kind, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
