package crypto

import (
	"crypto/ed25519"
	"encoding/hex"
)

// NodeIdentity is the node's gossip-transport keypair, derived from the
// 32-byte seed described in spec §6 ("seed: u8 — byte-0 of the 32-byte
// ed25519 seed, other 31 bytes zero").
type NodeIdentity struct {
	Public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// NewNodeIdentity reproduces `identity::Keypair::ed25519_from_bytes` from the
// original implementation: a full 32-byte seed with only byte 0 set from
// config, deterministic across restarts with the same seed byte.
func NewNodeIdentity(seedByte byte) NodeIdentity {
	seed := make([]byte, ed25519.SeedSize)
	seed[0] = seedByte
	priv := ed25519.NewKeyFromSeed(seed)
	return NodeIdentity{Public: priv.Public().(ed25519.PublicKey), private: priv}
}

// PeerID is a human-readable identifier for logs and NodeInfo, not a real
// multihash-encoded libp2p peer id (the concrete gossip transport is outside
// this module's scope).
func (n NodeIdentity) PeerID() string {
	return "12D3Koo" + hex.EncodeToString(n.Public)[:40]
}

// Sign signs msg with the node's ed25519 private key. The gossip swarm does
// not call it: its frames are sent unsigned.
func (n NodeIdentity) Sign(msg []byte) []byte {
	return ed25519.Sign(n.private, msg)
}
