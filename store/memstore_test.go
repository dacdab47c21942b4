package store_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintpool-net/premintpool/common"
	"github.com/mintpool-net/premintpool/premint"
	"github.com/mintpool-net/premintpool/premint/simplemint"
	"github.com/mintpool-net/premintpool/store"
)

func newSimplePremint(version uint64, tokenID uint64) *simplemint.V1 {
	return &simplemint.V1{
		CollectionAddress: common.HexToAddress("0x00000000000000000000000000000000000001"),
		FactoryAddress:    common.HexToAddress("0x00000000000000000000000000000000000002"),
		ChainID:           8453,
		Signer:            common.HexToAddress("0x00000000000000000000000000000000000003"),
		TokenID:           new(uint256.Int).SetUint64(tokenID),
		TokenURI:          "ipfs://x",
		PremintVersion:    version,
	}
}

func TestMemStore_StoreIdempotency(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()

	p1 := newSimplePremint(1, 42)
	require.NoError(t, s.StorePremint(ctx, p1))

	// re-storing the same version is rejected, not a silent no-op mutation.
	require.ErrorIs(t, s.StorePremint(ctx, newSimplePremint(1, 42)), store.ErrVersionConflict)

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uint64(1), all[0].Metadata().Version)

	// a strictly greater version replaces the row.
	require.NoError(t, s.StorePremint(ctx, newSimplePremint(2, 42)))
	all, err = s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uint64(2), all[0].Metadata().Version)

	// a lower version is rejected without mutating the stored row.
	require.ErrorIs(t, s.StorePremint(ctx, newSimplePremint(1, 42)), store.ErrVersionConflict)
	all, _ = s.ListAll(ctx)
	assert.Equal(t, uint64(2), all[0].Metadata().Version)
}

func TestMemStore_MonotoneSeenOnChain(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()

	p := newSimplePremint(1, 7)
	require.NoError(t, s.StorePremint(ctx, p))

	all, _ := s.ListAll(ctx)
	require.Len(t, all, 1)

	claim := premint.InclusionClaim{PremintID: p.Metadata().ID, ChainID: 8453, Kind: simplemint.Kind}
	require.NoError(t, s.MarkSeenOnChain(ctx, claim))

	all, _ = s.ListAll(ctx)
	assert.Len(t, all, 0, "a seen premint must be excluded from list_all")

	seen, err := s.IsSeenOnChain(ctx, simplemint.Kind, p.Metadata().ID)
	require.NoError(t, err)
	assert.True(t, seen)

	// repeated mark is a no-op, not an error, and the premint is still readable by id.
	require.NoError(t, s.MarkSeenOnChain(ctx, claim))
	_, err = s.GetForIDAndKind(ctx, simplemint.Kind, p.Metadata().ID)
	require.NoError(t, err)
}

func TestMemStore_GetForIDAndKindNotFound(t *testing.T) {
	s := store.NewMemStore()
	_, err := s.GetForIDAndKind(context.Background(), simplemint.Kind, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}
