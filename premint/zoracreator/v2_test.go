package zoracreator_test

import (
	"crypto/ecdsa"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintpool-net/premintpool/common"
	"github.com/mintpool-net/premintpool/crypto"
	"github.com/mintpool-net/premintpool/premint"
	"github.com/mintpool-net/premintpool/premint/zoracreator"
)

func newV2(t *testing.T) (*zoracreator.V2, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	v := &zoracreator.V2{
		Collection: zoracreator.ContractCreationConfig{
			ContractAdmin: crypto.PubkeyToAddress(key.PublicKey),
			ContractURI:   "ipfs://collection",
			ContractName:  "Test Collection",
		},
		Premint: zoracreator.PremintConfig{
			TokenConfig: zoracreator.TokenCreationConfig{
				TokenURI:  "ipfs://token",
				MaxSupply: new(uint256.Int).SetUint64(100),
			},
			UID:     1,
			Version: 1,
		},
		CollectionAddress: common.HexToAddress("0x0000000000000000000000000000000000cafe"),
		ChainID:           8453,
	}
	return v, key
}

func TestV2_RegisteredUnderKind(t *testing.T) {
	p, ok := premint.New(zoracreator.Kind)
	require.True(t, ok)
	_, ok = p.(*zoracreator.V2)
	assert.True(t, ok)
}

func TestV2_MetadataUsesGUID(t *testing.T) {
	v, _ := newV2(t)
	md := v.Metadata()
	assert.Equal(t, zoracreator.Kind, md.Kind)
	assert.Equal(t, uint64(8453), md.ChainID)
	assert.Equal(t, premint.GUID(v.ChainID, v.CollectionAddress, uint64(v.Premint.UID)), md.ID)
	assert.Equal(t, v.Collection.ContractAdmin, md.Signer)
}

func TestV2_CheckFilter_UnsupportedChainRejected(t *testing.T) {
	v, _ := newV2(t)
	_, ok := v.CheckFilter(1)
	assert.False(t, ok)

	f, ok := v.CheckFilter(7777777)
	require.True(t, ok)
	assert.Equal(t, zoracreator.FactoryAddress, f.Address)
}

func TestV2_SignAndVerifySignature(t *testing.T) {
	v, key := newV2(t)
	digest := v.EIP712Digest()

	sig, err := crypto.Sign(digest, key)
	require.NoError(t, err)
	v.Signature = "0x" + hexEncode(sig)

	sigBytes, err := v.SignatureBytes()
	require.NoError(t, err)
	assert.True(t, crypto.VerifySignature(v.Collection.ContractAdmin, digest, sigBytes))
}

func TestV2_MapClaimAndVerifyClaim(t *testing.T) {
	v, _ := newV2(t)
	v.CollectionAddress = common.HexToAddress("0x0000000000000000000000000000000000dead")

	topic0 := crypto.Keccak256Hash([]byte("PremintedV2(address,uint256,bool,uint32,address,uint256)"))
	contractTopic := common.BytesToHash(leftPad(v.CollectionAddress.Bytes()))
	uidTopic := common.BytesToHash(leftPad(new(uint256.Int).SetUint64(uint64(v.Premint.UID)).Bytes()))

	log := premint.Log{
		Address:  zoracreator.FactoryAddress,
		Topics:   []common.Hash{topic0, contractTopic, uidTopic},
		TxHash:   common.HexToHash("0x01"),
		LogIndex: 3,
	}

	claim, err := v.MapClaim(v.ChainID, log)
	require.NoError(t, err)
	assert.Equal(t, zoracreator.Kind, claim.Kind)
	assert.Equal(t, log.TxHash, claim.TxHash)
	assert.Equal(t, log.LogIndex, claim.LogIndex)

	receipt := premint.Receipt{TxHash: log.TxHash, Logs: []premint.Log{log}}
	assert.True(t, v.VerifyClaim(v.ChainID, receipt, log, claim))
}

func leftPad(b []byte) []byte {
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
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
