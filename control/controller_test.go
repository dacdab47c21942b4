package control_test

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintpool-net/premintpool/common"
	"github.com/mintpool-net/premintpool/control"
	"github.com/mintpool-net/premintpool/crypto"
	"github.com/mintpool-net/premintpool/premint"
	"github.com/mintpool-net/premintpool/premint/simplemint"
	"github.com/mintpool-net/premintpool/rules"
	"github.com/mintpool-net/premintpool/store"
	"github.com/mintpool-net/premintpool/swarm"
)

func newSignedPremint(t *testing.T, version uint64) *simplemint.V1 {
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
	const d = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = d[c>>4]
		out[i*2+1] = d[c&0xf]
	}
	return string(out)
}

func newTestController(t *testing.T, mode control.InclusionMode, trusted []string) (*control.Controller, *swarm.LoopbackSwarm, store.Store) {
	t.Helper()
	s := store.NewMemStore()
	sw := swarm.NewLoopbackSwarm()
	engine := rules.New(rules.Defaults()...)
	ctrl := control.New(control.Config{
		Store:           s,
		Rules:           engine,
		Swarm:           sw,
		InclusionMode:   mode,
		TrustedPeers:    trusted,
		SupportedChains: []uint64{8453},
	})
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go ctrl.Run(ctx)
	return ctrl, sw, s
}

func TestController_BroadcastAcceptsValidPremint(t *testing.T) {
	ctrl, sw, s := newTestController(t, control.ModeCheck, nil)

	p := newSignedPremint(t, 1)
	reply := make(chan error, 1)
	ctrl.Commands() <- control.Broadcast{Premint: p, Reply: reply}

	select {
	case err := <-reply:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast reply")
	}

	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)

	require.Eventually(t, func() bool {
		for _, c := range sw.SentCommands() {
			if _, ok := c.(swarm.Broadcast); ok {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond, "expected the Controller to forward an accepted broadcast to the swarm")
}

func TestController_BroadcastRejectsInvalidChain(t *testing.T) {
	ctrl, _, _ := newTestController(t, control.ModeCheck, nil)

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	p := &simplemint.V1{
		CollectionAddress: common.HexToAddress("0x0000000000000000000000000000000000abcd"),
		ChainID:           1, // not in SupportedChains
		Signer:            crypto.PubkeyToAddress(key.PublicKey),
		TokenID:           new(uint256.Int).SetUint64(1),
		PremintVersion:    1,
	}
	sig, err := crypto.Sign(p.EIP712Digest(), key)
	require.NoError(t, err)
	p.Signature = "0x" + hexEncode(sig)

	reply := make(chan error, 1)
	ctrl.Commands() <- control.Broadcast{Premint: p, Reply: reply}

	select {
	case err := <-reply:
		require.Error(t, err)
		var verr *control.ValidationError
		assert.ErrorAs(t, err, &verr)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast reply")
	}
}

func TestController_QueryListAll(t *testing.T) {
	ctrl, _, s := newTestController(t, control.ModeCheck, nil)

	p := newSignedPremint(t, 1)
	require.NoError(t, s.StorePremint(context.Background(), p))

	reply := make(chan control.QueryResult, 1)
	ctrl.Commands() <- control.Query{Kind: control.QueryListAll, Reply: reply}

	select {
	case res := <-reply:
		require.NoError(t, res.Err)
		assert.Len(t, res.Premints, 1)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for query reply")
	}
}

func TestController_ResolveOnchainMintMarksSeenAndAnnouncesInCheckMode(t *testing.T) {
	ctrl, sw, s := newTestController(t, control.ModeCheck, nil)

	p := newSignedPremint(t, 1)
	require.NoError(t, s.StorePremint(context.Background(), p))

	claim := premint.InclusionClaim{PremintID: p.Metadata().ID, ChainID: 8453, Kind: simplemint.Kind}
	ctrl.Commands() <- control.ResolveOnchainMint{Claim: claim}

	require.Eventually(t, func() bool {
		seen, err := s.IsSeenOnChain(context.Background(), simplemint.Kind, p.Metadata().ID)
		return err == nil && seen
	}, time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		for _, c := range sw.SentCommands() {
			if _, ok := c.(swarm.SendOnchainMintFound); ok {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond, "Check mode must announce the resolved claim to peers")
}

func TestController_TrustModeAcceptsOnlyTrustedPeerClaims(t *testing.T) {
	ctrl, sw, s := newTestController(t, control.ModeTrust, []string{"trusted-peer"})
	_ = ctrl

	p := newSignedPremint(t, 1)
	require.NoError(t, s.StorePremint(context.Background(), p))
	meta := p.Metadata()

	// untrusted peer: must be ignored.
	sw.Inject(swarm.MintSeenOnchain{Claim: premint.PeerInclusionClaim{
		FromPeerID: "someone-else",
		Claim:      premint.InclusionClaim{PremintID: meta.ID, ChainID: meta.ChainID, Kind: meta.Kind},
	}})
	time.Sleep(50 * time.Millisecond)
	seen, err := s.IsSeenOnChain(context.Background(), meta.Kind, meta.ID)
	require.NoError(t, err)
	assert.False(t, seen)

	// trusted peer: accepted.
	sw.Inject(swarm.MintSeenOnchain{Claim: premint.PeerInclusionClaim{
		FromPeerID: "trusted-peer",
		Claim:      premint.InclusionClaim{PremintID: meta.ID, ChainID: meta.ChainID, Kind: meta.Kind},
	}})
	require.Eventually(t, func() bool {
		seen, err := s.IsSeenOnChain(context.Background(), meta.Kind, meta.ID)
		return err == nil && seen
	}, time.Second, time.Millisecond)
}
