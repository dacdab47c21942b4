// Package bootnode implements the trusted-bootnodes directory lookup of
// spec §4.6: a one-shot, idempotent, side-effect-free startup procedure
// that resolves the current trusted multiaddress list from a smart
// contract's event log history. Grounded on the teacher's
// probe/filters/filter_system.go range-query-then-batch-call shape.
package bootnode

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mintpool-net/premintpool/chain"
	"github.com/mintpool-net/premintpool/common"
	"github.com/mintpool-net/premintpool/crypto"
	"github.com/mintpool-net/premintpool/premint"
)

// trustedNodeAddedTopic is the keccak256 topic0 of
// TrustedNodeAdded(address,string).
var trustedNodeAddedTopic = crypto.Keccak256Hash([]byte("TrustedNodeAdded(address,string)"))

// isTrustedNodeSelector is the 4-byte keccak256 selector of
// isTrustedNode(address).
var isTrustedNodeSelector = crypto.Keccak256([]byte("isTrustedNode(address)"))[:4]

// Directory describes where the trusted-bootnodes contract lives: a known
// deploy block to start scanning from, per spec §4.6.
type Directory struct {
	ChainID     uint64
	Contract    common.Address
	DeployBlock uint64
}

// Resolve queries chain for every TrustedNodeAdded event since dir's deploy
// block, then batch-confirms each candidate is still trusted via
// isTrustedNode, returning the current multiaddress list. Idempotent and
// side-effect-free: safe to call repeatedly (spec §4.6).
func Resolve(ctx context.Context, pool *chain.Pool, dir Directory, currentBlock uint64) ([]string, error) {
	client, err := pool.Get(dir.ChainID)
	if err != nil {
		return nil, fmt.Errorf("bootnode: resolving chain client: %w", err)
	}

	filter := premint.Filter{Address: dir.Contract, Topic0: trustedNodeAddedTopic, FromBlock: dir.DeployBlock}
	logs, err := client.FilterLogs(ctx, filter, currentBlock)
	if err != nil {
		return nil, fmt.Errorf("bootnode: querying TrustedNodeAdded logs: %w", err)
	}

	// Confirm every candidate concurrently; a trusted-bootnodes contract can
	// accumulate years of TrustedNodeAdded events and this runs once at
	// startup before the node can gossip at all.
	confirmed := make([]string, len(logs))
	g, gctx := errgroup.WithContext(ctx)
	for i, l := range logs {
		i, l := i, l
		if len(l.Topics) < 2 {
			continue
		}
		g.Go(func() error {
			candidate := common.BytesToAddress(l.Topics[1].Bytes())
			ok, err := isTrustedNode(gctx, client, dir.Contract, candidate)
			if err != nil {
				return fmt.Errorf("bootnode: confirming %s: %w", candidate.Hex(), err)
			}
			if ok {
				confirmed[i] = multiaddrFromLogData(l.Data)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var addrs []string
	for _, a := range confirmed {
		if a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs, nil
}

// isTrustedNode performs the view-call `isTrustedNode(address) -> bool`
// against the directory contract.
func isTrustedNode(ctx context.Context, client *chain.Client, contract, candidate common.Address) (bool, error) {
	calldata := append(append([]byte{}, isTrustedNodeSelector...), leftPad32(candidate.Bytes())...)
	out, err := client.Call(ctx, contract.Hex(), calldata)
	if err != nil {
		return false, err
	}
	for _, b := range out {
		if b != 0 {
			return true, nil
		}
	}
	return false, nil
}

func leftPad32(b []byte) []byte {
	out := make([]byte, 32)
	copy(out[32-len(b):], b)
	return out
}

// multiaddrFromLogData decodes the ABI-encoded `string` multiaddress
// carried in a TrustedNodeAdded event's data field: a 32-byte offset, a
// 32-byte length, then the UTF-8 bytes padded to a 32-byte boundary.
func multiaddrFromLogData(data []byte) string {
	const head = 64 // offset word + length word
	if len(data) < head {
		return ""
	}
	length := beUint64(data[32:64])
	if uint64(head)+length > uint64(len(data)) {
		return ""
	}
	return string(data[head : uint64(head)+length])
}

func beUint64(b []byte) uint64 {
	var n uint64
	for _, c := range b[len(b)-8:] {
		n = n<<8 | uint64(c)
	}
	return n
}
