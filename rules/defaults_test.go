package rules_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintpool-net/premintpool/common"
	"github.com/mintpool-net/premintpool/crypto"
	"github.com/mintpool-net/premintpool/premint"
	"github.com/mintpool-net/premintpool/premint/simplemint"
	"github.com/mintpool-net/premintpool/rules"
	"github.com/mintpool-net/premintpool/store"
)

func signedSimplePremint(t *testing.T, version uint64) *simplemint.V1 {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	v := &simplemint.V1{
		CollectionAddress: common.HexToAddress("0x0000000000000000000000000000000000abcd"),
		FactoryAddress:    common.HexToAddress("0x0000000000000000000000000000000000ef01"),
		ChainID:           8453,
		Signer:            crypto.PubkeyToAddress(key.PublicKey),
		TokenID:           new(uint256.Int).SetUint64(1),
		TokenURI:          "ipfs://x",
		PremintVersion:    version,
	}
	sig, err := crypto.Sign(v.EIP712Digest(), key)
	require.NoError(t, err)
	v.Signature = "0x" + hexEncode(sig)
	return v
}

func hexEncode(b []byte) string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexdigits[c>>4]
		out[i*2+1] = hexdigits[c&0xf]
	}
	return string(out)
}

func TestDefaults_SignatureValid(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()
	rc := rules.Context{Store: s, SupportedChains: map[uint64]bool{8453: true}}
	engine := rules.New(rules.Defaults()...)

	good := signedSimplePremint(t, 1)
	results := engine.Evaluate(ctx, good, rc)
	assert.True(t, results.IsAccept(), results.String())

	tampered := signedSimplePremint(t, 1)
	tampered.TokenURI = "ipfs://different" // invalidates the digest post-signing
	results = engine.Evaluate(ctx, tampered, rc)
	assert.False(t, results.IsAccept())
}

func TestDefaults_VersionMonotonic(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()
	rc := rules.Context{Store: s, SupportedChains: map[uint64]bool{8453: true}}
	engine := rules.New(rules.Defaults()...)

	p1 := signedSimplePremint(t, 5)
	require.NoError(t, s.StorePremint(ctx, p1))

	// same id, same version: must reject on version_monotonic alone.
	dup := *p1
	results := engine.Evaluate(ctx, &dup, rc)
	assert.False(t, results.IsAccept())
}

func TestDefaults_ChainSupported(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()
	rc := rules.Context{Store: s, SupportedChains: map[uint64]bool{1: true}}
	engine := rules.New(rules.Defaults()...)

	p := signedSimplePremint(t, 1) // chain 8453, not in the supported set
	results := engine.Evaluate(ctx, p, rc)
	assert.False(t, results.IsAccept())
}

func TestDefaults_NotAlreadySeen(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemStore()
	rc := rules.Context{Store: s, SupportedChains: map[uint64]bool{8453: true}}
	engine := rules.New(rules.Defaults()...)

	p := signedSimplePremint(t, 1)
	require.NoError(t, s.StorePremint(ctx, p))
	meta := p.Metadata()
	require.NoError(t, s.MarkSeenOnChain(ctx, premint.InclusionClaim{
		PremintID: meta.ID,
		ChainID:   meta.ChainID,
		Kind:      meta.Kind,
	}))

	results := engine.Evaluate(ctx, p, rc)
	assert.False(t, results.IsAccept())
}
