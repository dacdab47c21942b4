// Package premint defines the polymorphic Premint capability set (§3, §4.1,
// §9 of the specification) and the closed registry of concrete kinds that
// implement it. Modeled on the Rust trait `Premint` from the original
// mintpool implementation and on the teacher's consensus-engine selection
// idiom: a small map-based dispatch table, not open inheritance.
package premint

import (
	"github.com/holiman/uint256"
	"github.com/mintpool-net/premintpool/common"
)

// Metadata is the chain-agnostic identity of a premint, exactly the fields
// spec §3 requires.
type Metadata struct {
	ID                string
	Version           uint64
	Kind              string
	Signer            common.Address
	ChainID           uint64
	CollectionAddress common.Address
	TokenID           *uint256.Int
	URI               string
}

// Log is the subset of an on-chain event log the Premint capability set
// needs to map and verify inclusion claims. It is transport-agnostic: the
// chain package fills one in from a JSON-RPC `eth_getLogs`/subscription
// result.
type Log struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	TxHash      common.Hash
	BlockNumber uint64
	LogIndex    uint64
}

// Receipt is the subset of a transaction receipt needed to cross-check a
// claimed log against its parent transaction.
type Receipt struct {
	TxHash common.Hash
	Logs   []Log
}

// Filter describes a log subscription a MintChecker should open: an address
// plus the keccak256 of the event signature as topic0. When the checker
// resubscribes after having seen a log, it sets FromBlock to the highest
// block seen so far.
type Filter struct {
	Address   common.Address
	Topic0    common.Hash
	FromBlock uint64
}

// InclusionClaim asserts "premint X was included on chain Y at tx/log Z", a
// direct port of spec §3.
type InclusionClaim struct {
	PremintID string      `json:"premintId"`
	ChainID   uint64      `json:"chainId"`
	TxHash    common.Hash `json:"txHash"`
	LogIndex  uint64      `json:"logIndex"`
	Kind      string      `json:"kind"`
}

// PeerInclusionClaim is a claim received from a gossip peer; never
// auto-trusted (spec §3, §4.1).
type PeerInclusionClaim struct {
	FromPeerID string
	Claim      InclusionClaim
}

// Premint is the capability set every concrete premint kind implements.
// Dispatch is by the string Kind tag on the wire and in the registry, never
// by type assertion or reflection.
type Premint interface {
	Metadata() Metadata

	// CheckFilter returns the log filter to subscribe to on chainID, or
	// ok=false if this kind has no on-chain presence on that chain.
	CheckFilter(chainID uint64) (filter Filter, ok bool)

	// MapClaim parses a matched factory log into an InclusionClaim.
	MapClaim(chainID uint64, log Log) (InclusionClaim, error)

	// VerifyClaim independently confirms a claim against the chain data
	// that produced it. Any mismatch must return false, never an error —
	// a claim that cannot be proven is simply not proven (spec §7,
	// NotFound / "ignore, never prune").
	VerifyClaim(chainID uint64, receipt Receipt, log Log, claim InclusionClaim) bool
}
