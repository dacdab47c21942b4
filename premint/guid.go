package premint

import (
	"fmt"

	"github.com/mintpool-net/premintpool/common"
)

// GUID computes the bit-exact deterministic id required by spec §6:
// "{chain_id:?}:{collection_address:?}:{uid:?}" with lowercase 0x-prefixed
// hex for the address and decimal for the integers. Every concrete premint
// kind's Metadata().ID and every MapClaim-derived InclusionClaim.PremintID
// must be produced by this function so ids stay stable across nodes (spec
// §8 property 1).
func GUID(chainID uint64, collection common.Address, uid uint64) string {
	return fmt.Sprintf("%d:%s:%d", chainID, collection.Hex(), uid)
}
