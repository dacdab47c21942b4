// Package zoracreator implements the "zora_premint_v2" premint kind: a
// creator's EIP-712-signed commitment to deploy a collection contract and
// mint a token from it, submitted later to the Zora premint factory.
// Grounded on original_source/src/premints/zora_premint/v2.rs.
package zoracreator

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/mintpool-net/premintpool/common"
	"github.com/mintpool-net/premintpool/crypto"
	"github.com/mintpool-net/premintpool/premint"
)

// Kind is the wire/registry tag for this premint type.
const Kind = "zora_premint_v2"

// eventSignature is the keccak256 topic0 of `PremintedV2(address,uint256,bool,uint32,address,uint256)`.
// Kept as a named placeholder the way the original's PREMINT_FACTORY_ADDR is
// a TODO-marked constant — the real event ABI must be supplied once the
// contract is pinned down for a given deployment.
var eventSignature = crypto.Keccak256Hash([]byte("PremintedV2(address,uint256,bool,uint32,address,uint256)"))

// FactoryAddress is the Zora premint factory contract. Placeholder, same as
// the original source's PREMINT_FACTORY_ADDR — real value is a deployment
// detail outside this module (see DESIGN.md open questions).
var FactoryAddress = common.HexToAddress("0x7777770000000000000000000000000000ffff")

// supportedChains mirrors the original's `[7777777, 8453]` (Zora mainnet,
// Base mainnet).
var supportedChains = map[uint64]bool{7777777: true, 8453: true}

func init() {
	premint.Register(Kind, func() premint.Premint { return &V2{} })
}

type ContractCreationConfig struct {
	ContractAdmin common.Address `json:"contractAdmin"`
	ContractURI   string         `json:"contractURI"`
	ContractName  string         `json:"contractName"`
}

type TokenCreationConfig struct {
	TokenURI            string         `json:"tokenURI"`
	MaxSupply           *uint256.Int   `json:"maxSupply"`
	MaxTokensPerAddress uint32         `json:"maxTokensPerAddress"`
	PricePerToken       uint64         `json:"pricePerToken"`
	MintStart           uint64         `json:"mintStart"`
	MintDuration        uint64         `json:"mintDuration"`
	RoyaltyBPS          uint32         `json:"royaltyBPS"`
	PayoutRecipient     common.Address `json:"payoutRecipient"`
	FixedPriceMinter    common.Address `json:"fixedPriceMinter"`
	CreateReferral      common.Address `json:"createReferral"`
}

type PremintConfig struct {
	TokenConfig TokenCreationConfig `json:"tokenConfig"`
	UID         uint32               `json:"uid"`
	Version     uint32               `json:"version"`
	Deleted     bool                 `json:"deleted"`
}

// V2 is the "zora_premint_v2" concrete premint kind, modeled after
// ZoraPremintV2 in the original Rust source. JSON field names are camelCase
// per spec §6.
type V2 struct {
	Collection        ContractCreationConfig `json:"collection"`
	Premint           PremintConfig          `json:"premint"`
	CollectionAddress common.Address         `json:"collectionAddress"`
	ChainID           uint64                 `json:"chainId"`
	Signature         string                 `json:"signature"`
}

var _ premint.Premint = (*V2)(nil)

func (v *V2) Metadata() premint.Metadata {
	tokenID := new(uint256.Int).SetUint64(uint64(v.Premint.UID))
	return premint.Metadata{
		ID:                premint.GUID(v.ChainID, v.CollectionAddress, uint64(v.Premint.UID)),
		Version:           uint64(v.Premint.Version),
		Kind:              Kind,
		Signer:            v.Collection.ContractAdmin,
		ChainID:           v.ChainID,
		CollectionAddress: common.Address{}, // TODO: source this; treat as unknown per spec open question
		TokenID:           tokenID,
		URI:               v.Premint.TokenConfig.TokenURI,
	}
}

func (v *V2) CheckFilter(chainID uint64) (premint.Filter, bool) {
	if !supportedChains[chainID] {
		return premint.Filter{}, false
	}
	return premint.Filter{Address: FactoryAddress, Topic0: eventSignature}, true
}

func (v *V2) MapClaim(chainID uint64, log premint.Log) (premint.InclusionClaim, error) {
	event, err := decodePremintedV2(log)
	if err != nil {
		return premint.InclusionClaim{}, fmt.Errorf("zoracreator: decoding PremintedV2 log: %w", err)
	}
	return premint.InclusionClaim{
		PremintID: eventGUID(chainID, event),
		ChainID:   chainID,
		TxHash:    log.TxHash,
		LogIndex:  log.LogIndex,
		Kind:      Kind,
	}, nil
}

func (v *V2) VerifyClaim(chainID uint64, receipt premint.Receipt, log premint.Log, claim premint.InclusionClaim) bool {
	event, err := decodePremintedV2(log)
	if err != nil {
		return false
	}
	return log.Address == FactoryAddress &&
		log.TxHash == receipt.TxHash &&
		claim.TxHash == receipt.TxHash &&
		claim.LogIndex == log.LogIndex &&
		claim.PremintID == eventGUID(chainID, event) &&
		claim.Kind == Kind &&
		claim.ChainID == chainID &&
		v.CollectionAddress == event.ContractAddress &&
		v.Premint.UID == event.UID
}

// premintedV2Event is the decoded shape of a PremintedV2 log.
type premintedV2Event struct {
	ContractAddress common.Address
	UID             uint32
}

// decodePremintedV2 extracts contractAddress/uid from the log's topics,
// mirroring the original's `IZoraPremintV2::PremintedV2::decode_raw_log`.
// Topic layout: [0]=signature, [1]=contractAddress, [2]=uid.
func decodePremintedV2(log premint.Log) (premintedV2Event, error) {
	if len(log.Topics) < 3 {
		return premintedV2Event{}, fmt.Errorf("expected 3 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != eventSignature {
		return premintedV2Event{}, fmt.Errorf("topic0 mismatch")
	}
	addr := common.BytesToAddress(log.Topics[1].Bytes())
	uidBig := new(uint256.Int).SetBytes(log.Topics[2].Bytes())
	return premintedV2Event{ContractAddress: addr, UID: uint32(uidBig.Uint64())}, nil
}

func eventGUID(chainID uint64, event premintedV2Event) string {
	return premint.GUID(chainID, event.ContractAddress, uint64(event.UID))
}

// EIP712Digest computes the EIP-712-style signing digest over the premint's
// domain (name "Preminter", version "2", chainId, verifyingContract =
// collectionAddress) and its CreatorAttribution struct. This is a
// domain-separated digest in the spirit of EIP-712 rather than a byte-exact
// implementation of the standard's type-hash encoding.
func (v *V2) EIP712Digest() []byte {
	domainSeparator := crypto.Keccak256(
		[]byte("Preminter"),
		[]byte("2"),
		uint64ToBytes(v.ChainID),
		v.CollectionAddress.Bytes(),
	)
	maxSupply := v.Premint.TokenConfig.MaxSupply
	if maxSupply == nil {
		maxSupply = new(uint256.Int)
	}
	structHash := crypto.Keccak256(
		v.Collection.ContractAdmin.Bytes(),
		[]byte(v.Collection.ContractURI),
		[]byte(v.Collection.ContractName),
		[]byte(v.Premint.TokenConfig.TokenURI),
		maxSupply.Bytes(),
		uint32ToBytes(v.Premint.UID),
		uint32ToBytes(v.Premint.Version),
	)
	return crypto.Keccak256([]byte{0x19, 0x01}, domainSeparator, structHash)
}

// SignatureBytes decodes the hex-encoded EIP-712 signature.
func (v *V2) SignatureBytes() ([]byte, error) {
	s := v.Signature
	if len(s) >= 2 && s[0:2] == "0x" {
		s = s[2:]
	}
	return hex.DecodeString(s)
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[7-i] = byte(v >> (8 * i))
	}
	return b
}

func uint32ToBytes(v uint32) []byte {
	b := make([]byte, 4)
	for i := 0; i < 4; i++ {
		b[3-i] = byte(v >> (8 * i))
	}
	return b
}
