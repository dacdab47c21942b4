package control

import (
	"context"
	"fmt"

	"github.com/mintpool-net/premintpool/chain"
	"github.com/mintpool-net/premintpool/plog"
	"github.com/mintpool-net/premintpool/premint"
	"github.com/mintpool-net/premintpool/rules"
	"github.com/mintpool-net/premintpool/store"
	"github.com/mintpool-net/premintpool/swarm"
)

// CommandQueueSize is the reference channel capacity from spec §5.
const CommandQueueSize = 1024

// Controller is the single-writer event loop fusing swarm events, external
// commands, and MintChecker findings (spec §4.1, §5). It is the only
// component allowed to mutate Store or initiate swarm broadcasts.
type Controller struct {
	store  store.Store
	rules  *rules.Engine
	chains *chain.Pool
	sw     swarm.Swarm
	mode   InclusionMode

	trustedPeers    map[string]bool
	supportedChains map[uint64]bool

	commands chan Command
	log      plog.Logger
}

// Config bundles the Controller's fixed dependencies.
type Config struct {
	Store         store.Store
	Rules         *rules.Engine
	Chains        *chain.Pool
	Swarm         swarm.Swarm
	InclusionMode   InclusionMode
	TrustedPeers    []string
	SupportedChains []uint64
	Logger          plog.Logger
}

func New(cfg Config) *Controller {
	trusted := make(map[string]bool, len(cfg.TrustedPeers))
	for _, p := range cfg.TrustedPeers {
		trusted[p] = true
	}
	supported := make(map[uint64]bool, len(cfg.SupportedChains))
	for _, id := range cfg.SupportedChains {
		supported[id] = true
	}
	logger := cfg.Logger
	if logger == nil {
		logger = plog.New("component", "controller")
	}
	return &Controller{
		store:           cfg.Store,
		rules:           cfg.Rules,
		chains:          cfg.Chains,
		sw:              cfg.Swarm,
		mode:            cfg.InclusionMode,
		trustedPeers:    trusted,
		supportedChains: supported,
		commands:        make(chan Command, CommandQueueSize),
		log:             logger,
	}
}

// Commands returns the channel external callers (the admin API, CLI tools)
// send Commands on. Delivery from a single sender is FIFO (spec §5).
func (c *Controller) Commands() chan<- Command { return c.commands }

// Run is the Controller's event loop. It fairly merges external commands
// and swarm events until both the command channel is closed and the swarm
// event channel is closed, per spec §5's cancellation rule. ctx cancellation
// also ends the loop.
func (c *Controller) Run(ctx context.Context) {
	events := c.sw.Events()
	cmdOpen, evOpen := true, true
	for cmdOpen || evOpen {
		if !cmdOpen {
			select {
			case ev, ok := <-events:
				if !ok {
					evOpen = false
					continue
				}
				c.handleEvent(ctx, ev)
			case <-ctx.Done():
				return
			}
			continue
		}
		if !evOpen {
			select {
			case cmd, ok := <-c.commands:
				if !ok {
					cmdOpen = false
					continue
				}
				c.handleCommand(ctx, cmd)
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case cmd, ok := <-c.commands:
			if !ok {
				cmdOpen = false
				continue
			}
			c.handleCommand(ctx, cmd)
		case ev, ok := <-events:
			if !ok {
				evOpen = false
				continue
			}
			c.handleEvent(ctx, ev)
		case <-ctx.Done():
			return
		}
	}
}

func (c *Controller) handleCommand(ctx context.Context, cmd Command) {
	switch cc := cmd.(type) {
	case ConnectToPeer:
		c.sw.Commands() <- swarm.ConnectToPeer{Address: cc.Address}

	case AnnounceSelf:
		c.sw.Commands() <- swarm.AnnounceSelf{}

	case ReturnNetworkState:
		reply := make(chan swarm.NetworkState, 1)
		c.sw.Commands() <- swarm.ReturnNetworkState{Reply: reply}
		go forwardReply(reply, cc.Reply, c.log)

	case ReturnNodeInfo:
		reply := make(chan swarm.NodeInfo, 1)
		c.sw.Commands() <- swarm.ReturnNodeInfo{Reply: reply}
		go forwardReply(reply, cc.Reply, c.log)

	case Broadcast:
		c.handleBroadcast(ctx, cc)

	case Query:
		c.handleQuery(ctx, cc)

	case ResolveOnchainMint:
		c.handleResolveOnchainMint(ctx, cc)
	}
}

func (c *Controller) handleBroadcast(ctx context.Context, cc Broadcast) {
	err := c.validateAndInsert(ctx, cc.Premint)
	if err != nil {
		replySend(cc.Reply, err, c.log)
		return
	}
	c.sw.Commands() <- swarm.Broadcast{Premint: cc.Premint}
	replySend(cc.Reply, nil, c.log)
}

func (c *Controller) handleQuery(ctx context.Context, q Query) {
	switch q.Kind {
	case QueryListAll:
		all, err := c.store.ListAll(ctx)
		q.Reply <- QueryResult{Premints: all, Err: err}
	case QueryDirectHandle:
		p, err := c.store.GetForIDAndKind(ctx, q.PremintKind, q.ID)
		if err != nil {
			q.Reply <- QueryResult{Err: err}
			return
		}
		q.Reply <- QueryResult{Premints: []premint.Premint{p}}
	}
}

func (c *Controller) handleResolveOnchainMint(ctx context.Context, r ResolveOnchainMint) {
	if err := c.store.MarkSeenOnChain(ctx, r.Claim); err != nil {
		c.log.Warn("control: failed to mark claim seen", "err", err)
		return
	}
	if c.mode == ModeCheck {
		c.sw.Commands() <- swarm.SendOnchainMintFound{Claim: r.Claim}
	}
}

func (c *Controller) handleEvent(ctx context.Context, ev swarm.Event) {
	switch e := ev.(type) {
	case swarm.NetworkStateEvent:
		c.log.Info("control: network state update", "peers", len(e.State.Peers))

	case swarm.PremintReceived:
		if err := c.validateAndInsert(ctx, e.Premint); err != nil {
			c.log.Info("control: gossip-received premint rejected", "err", err)
		}

	case swarm.MintSeenOnchain:
		c.handlePeerClaim(ctx, e.Claim)
	}
}

func (c *Controller) handlePeerClaim(ctx context.Context, pc premint.PeerInclusionClaim) {
	switch c.mode {
	case ModeTrust:
		if !c.trustedPeers[pc.FromPeerID] {
			return
		}
		if err := c.store.MarkSeenOnChain(ctx, pc.Claim); err != nil {
			c.log.Warn("control: failed to mark trusted claim seen", "err", err)
		}

	case ModeCheck, ModeVerify:
		target, err := c.store.GetForIDAndKind(ctx, pc.Claim.Kind, pc.Claim.PremintID)
		if err != nil {
			return // absent: ignore
		}
		ok, err := c.chains.InclusionClaimCorrect(ctx, target, pc.Claim)
		if err != nil || !ok {
			return // any other outcome: ignore silently
		}
		if err := c.store.MarkSeenOnChain(ctx, pc.Claim); err != nil {
			c.log.Warn("control: failed to mark verified claim seen", "err", err)
		}
	}
}

// validateAndInsert implements spec §4.1's validate_and_insert: evaluate
// rules, store on accept, wrap the rejection on reject.
func (c *Controller) validateAndInsert(ctx context.Context, p premint.Premint) error {
	rc := rules.Context{Store: c.store, SupportedChains: c.supportedChains}
	if c.chains != nil {
		rc.Admin = &chain.AdminResolver{Pool: c.chains}
	}
	results := c.rules.Evaluate(ctx, p, rc)
	if !results.IsAccept() {
		return &ValidationError{Results: results}
	}
	if err := c.store.StorePremint(ctx, p); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreConflict, err)
	}
	return nil
}

func forwardReply[T any](from <-chan T, to chan<- T, log plog.Logger) {
	v := <-from
	replySend(to, v, log)
}

func replySend[T any](ch chan<- T, v T, log plog.Logger) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
		log.Warn("control: reply channel not ready, dropping reply")
	}
}
