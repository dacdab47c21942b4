// Package simplemint implements "simple_mint_v1", a second, deliberately
// minimal premint kind. It exists to exercise the registry's polymorphism
// with more than one tagged variant (SPEC_FULL §3) and to give the wire
// (de)serialization and rules engine real dispatch branches beyond the
// single Zora-shaped kind the spec names.
package simplemint

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/mintpool-net/premintpool/common"
	"github.com/mintpool-net/premintpool/crypto"
	"github.com/mintpool-net/premintpool/premint"
)

// Kind is the wire/registry tag for this premint type.
const Kind = "simple_mint_v1"

var eventSignature = crypto.Keccak256Hash([]byte("SimpleMinted(address,uint256)"))

func init() {
	premint.Register(Kind, func() premint.Premint { return &V1{} })
}

// V1 commits a signer to mint a single token of a given uri from a single
// fixed factory-controlled collection, with no royalty/pricing config.
type V1 struct {
	CollectionAddress common.Address `json:"collectionAddress"`
	FactoryAddress    common.Address `json:"factoryAddress"`
	ChainID           uint64         `json:"chainId"`
	Signer            common.Address `json:"signer"`
	TokenID           *uint256.Int   `json:"tokenId"`
	TokenURI          string         `json:"tokenUri"`
	PremintVersion    uint64         `json:"version"`
	Signature         string         `json:"signature"`
}

var _ premint.Premint = (*V1)(nil)

func (v *V1) Metadata() premint.Metadata {
	tokenID := v.TokenID
	if tokenID == nil {
		tokenID = new(uint256.Int)
	}
	return premint.Metadata{
		ID:                premint.GUID(v.ChainID, v.CollectionAddress, tokenID.Uint64()),
		Version:           v.PremintVersion,
		Kind:              Kind,
		Signer:            v.Signer,
		ChainID:           v.ChainID,
		CollectionAddress: common.Address{},
		TokenID:           tokenID,
		URI:               v.TokenURI,
	}
}

func (v *V1) CheckFilter(chainID uint64) (premint.Filter, bool) {
	if v.FactoryAddress.IsZero() {
		return premint.Filter{}, false
	}
	return premint.Filter{Address: v.FactoryAddress, Topic0: eventSignature}, true
}

func (v *V1) MapClaim(chainID uint64, log premint.Log) (premint.InclusionClaim, error) {
	tokenID, addr, err := decodeSimpleMinted(log)
	if err != nil {
		return premint.InclusionClaim{}, err
	}
	return premint.InclusionClaim{
		PremintID: premint.GUID(chainID, addr, tokenID),
		ChainID:   chainID,
		TxHash:    log.TxHash,
		LogIndex:  log.LogIndex,
		Kind:      Kind,
	}, nil
}

func (v *V1) VerifyClaim(chainID uint64, receipt premint.Receipt, log premint.Log, claim premint.InclusionClaim) bool {
	tokenID, addr, err := decodeSimpleMinted(log)
	if err != nil {
		return false
	}
	wantTokenID := v.TokenID
	if wantTokenID == nil {
		wantTokenID = new(uint256.Int)
	}
	return log.Address == v.FactoryAddress &&
		log.TxHash == receipt.TxHash &&
		claim.TxHash == receipt.TxHash &&
		claim.LogIndex == log.LogIndex &&
		claim.PremintID == premint.GUID(chainID, addr, tokenID) &&
		claim.Kind == Kind &&
		claim.ChainID == chainID &&
		v.CollectionAddress == addr &&
		wantTokenID.Eq(new(uint256.Int).SetUint64(tokenID))
}

func decodeSimpleMinted(log premint.Log) (tokenID uint64, collection common.Address, err error) {
	if len(log.Topics) < 2 {
		return 0, common.Address{}, fmt.Errorf("simplemint: expected 2 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != eventSignature {
		return 0, common.Address{}, fmt.Errorf("simplemint: topic0 mismatch")
	}
	addr := common.BytesToAddress(log.Topics[1].Bytes())
	tid := new(uint256.Int).SetBytes(log.Data)
	return tid.Uint64(), addr, nil
}

// SignatureBytes decodes the hex-encoded signature over the token's digest.
func (v *V1) SignatureBytes() ([]byte, error) {
	s := v.Signature
	if len(s) >= 2 && s[0:2] == "0x" {
		s = s[2:]
	}
	return hex.DecodeString(s)
}

// EIP712Digest hashes the commitment fields a signer attests to: collection,
// chain, token id and uri.
func (v *V1) EIP712Digest() []byte {
	tokenID := v.TokenID
	if tokenID == nil {
		tokenID = new(uint256.Int)
	}
	return crypto.Keccak256(
		[]byte("SimpleMint"), []byte("1"),
		v.CollectionAddress.Bytes(),
		tokenID.Bytes(),
		[]byte(v.TokenURI),
	)
}
