package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mintpool-net/premintpool/common"
	"github.com/mintpool-net/premintpool/premint"
)

// ErrNotFound is returned when a receipt or log referenced by a claim does
// not exist, per spec §7 ("NotFound ... treated as claim not proven").
var ErrNotFound = errors.New("chain: not found")

// ErrUnsupportedChain is returned by Pool.Get for a chain_id with no
// configured RPC endpoint.
var ErrUnsupportedChain = errors.New("chain: unsupported chain id")

// Endpoints maps a chain_id to its configured WebSocket RPC URL, read from
// CHAIN_<id>_RPC_WSS at startup (spec §6).
type Endpoints map[uint64]string

// Pool caches one Client per chain_id, lazily constructed on first use
// (spec §4.4). Entries are immutable after construction and shared freely
// across MintCheckers and inclusion verification.
type Pool struct {
	endpoints Endpoints

	mu      sync.Mutex
	clients map[uint64]*Client
}

func NewPool(endpoints Endpoints) *Pool {
	return &Pool{endpoints: endpoints, clients: make(map[uint64]*Client)}
}

// Get returns the cached Client for chainID, dialing it on first access.
func (p *Pool) Get(chainID uint64) (*Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[chainID]; ok {
		return c, nil
	}
	url, ok := p.endpoints[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}
	c, err := dialClient(chainID, url)
	if err != nil {
		return nil, err
	}
	p.clients[chainID] = c
	return c, nil
}

// Reconnect discards the cached client for chainID so the next Get dials
// fresh. Used by MintChecker after a subscription stream ends.
func (p *Pool) Reconnect(chainID uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[chainID]; ok {
		c.Close()
		delete(p.clients, chainID)
	}
}

// InclusionClaimCorrect implements spec §4.4's `inclusion_claim_correct`:
// fetch the receipt, select the claimed log, and defer to the premint's own
// VerifyClaim.
func (p *Pool) InclusionClaimCorrect(ctx context.Context, target premint.Premint, claim premint.InclusionClaim) (bool, error) {
	client, err := p.Get(claim.ChainID)
	if err != nil {
		return false, err
	}
	receipt, err := client.TransactionReceipt(ctx, claim.TxHash.Hex())
	if err != nil {
		return false, err
	}
	if claim.LogIndex >= uint64(len(receipt.Logs)) {
		return false, fmt.Errorf("%w: log index %d out of range (receipt has %d logs)", ErrNotFound, claim.LogIndex, len(receipt.Logs))
	}
	log := receipt.Logs[claim.LogIndex]
	return target.VerifyClaim(claim.ChainID, receipt, log, claim), nil
}

// ResolveAdmin implements rules.CollectionAdminResolver. Until a real
// ownership-reading contract call is wired per deployment, this reports
// "not deployed", matching the original's deployment-detection TODO.
type AdminResolver struct {
	Pool *Pool
}

func (r *AdminResolver) ResolveAdmin(_ context.Context, _ uint64, _ common.Address) (common.Address, bool, error) {
	return common.Address{}, false, nil
}
