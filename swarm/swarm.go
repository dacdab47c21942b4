// Package swarm implements the bidirectional command/event bridge to the
// gossip transport described in spec §4 ("Swarm adapter") and §5
// (single-threaded task communicating over bounded channels). Grounded on
// the teacher's p2p/peer.go dial/accept loop shape, generalized from
// devp2p framing to a JSON-over-WebSocket gossip wire since the premint
// pool has no consensus/devp2p stack of its own to reuse.
package swarm

import (
	"github.com/mintpool-net/premintpool/premint"
)

// NetworkState is the opaque observable snapshot spec §3 names. It holds the
// local peer id and the addresses of connected peers; it carries no
// per-connection detail and no gossip topics. The Controller only ever logs
// it.
type NetworkState struct {
	LocalPeerID string
	Peers       []string
}

// NodeInfo is returned by ReturnNodeInfo.
type NodeInfo struct {
	PeerID      string
	ListenAddrs []string
}

// Command is the set of requests the Controller may forward to the Swarm
// (spec §4.1 "forward to Swarm").
type Command interface{ isCommand() }

type ConnectToPeer struct {
	Address string
}

type AnnounceSelf struct{}

type ReturnNetworkState struct {
	Reply chan<- NetworkState
}

type ReturnNodeInfo struct {
	Reply chan<- NodeInfo
}

type Broadcast struct {
	Premint premint.Premint
}

type SendOnchainMintFound struct {
	Claim premint.InclusionClaim
}

func (ConnectToPeer) isCommand()        {}
func (AnnounceSelf) isCommand()         {}
func (ReturnNetworkState) isCommand()   {}
func (ReturnNodeInfo) isCommand()       {}
func (Broadcast) isCommand()            {}
func (SendOnchainMintFound) isCommand() {}

// Event is the set of notifications the Swarm pushes to the Controller
// (spec §4.1 "Events (from Swarm)").
type Event interface{ isEvent() }

type NetworkStateEvent struct {
	State NetworkState
}

type PremintReceived struct {
	Premint premint.Premint
}

type MintSeenOnchain struct {
	Claim premint.PeerInclusionClaim
}

func (NetworkStateEvent) isEvent() {}
func (PremintReceived) isEvent()   {}
func (MintSeenOnchain) isEvent()   {}

// Swarm is the Controller's only handle onto the gossip transport: a
// send-only command channel and a receive-only event channel, exactly the
// two channel ends spec §4.1 describes.
type Swarm interface {
	// Commands returns the channel the Controller sends Commands on.
	Commands() chan<- Command

	// Events returns the channel the Swarm pushes Events on.
	Events() <-chan Event

	// Close shuts the transport down, closing Events().
	Close() error
}
