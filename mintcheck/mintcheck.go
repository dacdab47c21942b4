// Package mintcheck implements the per-chain MintChecker of spec §4.2: a
// long-running task that watches one chain for factory events a given
// premint kind cares about and reports InclusionClaims back to the
// Controller. Grounded on the teacher's probe/filters subscription loop
// (subscribe, range over the log channel, reconnect on stream end).
package mintcheck

import (
	"context"
	"errors"
	"time"

	"github.com/mintpool-net/premintpool/chain"
	"github.com/mintpool-net/premintpool/control"
	"github.com/mintpool-net/premintpool/plog"
	"github.com/mintpool-net/premintpool/premint"
)

// ErrUnsupportedKind is fatal: this chain has no check_filter for the given
// premint kind at all (spec §4.2 step 2), so the checker exits instead of
// retrying.
var ErrUnsupportedKind = errors.New("mintcheck: premint kind has no check filter on this chain")

// Checker watches chainID for a single premint kind's factory events and
// forwards ResolveOnchainMint commands to the Controller.
type Checker struct {
	chainID  uint64
	kind     premint.Premint
	pool     *chain.Pool
	commands chan<- control.Command
	backoff  time.Duration
	log      plog.Logger
}

// New builds a Checker. commands is the Controller's command channel.
func New(chainID uint64, kind premint.Premint, pool *chain.Pool, commands chan<- control.Command) *Checker {
	return &Checker{
		chainID:  chainID,
		kind:     kind,
		pool:     pool,
		commands: commands,
		backoff:  chain.ReconnectBackoff,
		log:      plog.New("component", "mintcheck", "chainId", chainID, "kind", kind.Metadata().Kind),
	}
}

// Run drives the checker until ctx is canceled. It never returns early on a
// transient failure — only ErrUnsupportedKind, returned once up front, is
// fatal (spec §4.2 step 5).
func (c *Checker) Run(ctx context.Context) error {
	filter, ok := c.kind.CheckFilter(c.chainID)
	if !ok {
		return ErrUnsupportedKind
	}

	var highestBlock uint64
	haveHighest := false

	for {
		if ctx.Err() != nil {
			return nil
		}

		client, err := c.pool.Get(c.chainID)
		if err != nil {
			c.log.Warn("mintcheck: failed to resolve chain client, retrying", "err", err)
			if !sleepCtx(ctx, c.backoff) {
				return nil
			}
			continue
		}

		if haveHighest {
			filter.FromBlock = highestBlock
		}

		logs, err := client.SubscribeFilterLogs(ctx, filter)
		if err != nil {
			c.log.Warn("mintcheck: subscribe failed, reconnecting", "err", err)
			c.pool.Reconnect(c.chainID)
			if !sleepCtx(ctx, c.backoff) {
				return nil
			}
			continue
		}

		for log := range logs {
			claim, err := c.kind.MapClaim(c.chainID, log)
			if err != nil {
				c.log.Warn("mintcheck: failed to map log to claim", "err", err)
			} else {
				select {
				case c.commands <- control.ResolveOnchainMint{Claim: claim}:
				case <-ctx.Done():
					return nil
				}
			}
			if log.BlockNumber > 0 {
				highestBlock = log.BlockNumber
				haveHighest = true
			}
		}

		// Subscription stream ended: reconnect, not task death (step 5).
		c.log.Info("mintcheck: subscription ended, reconnecting")
		c.pool.Reconnect(c.chainID)
		if !sleepCtx(ctx, c.backoff) {
			return nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
