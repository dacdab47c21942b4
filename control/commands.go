// Package control implements the Controller named in spec §4.1: a
// single-threaded cooperative event loop that is the only component
// allowed to mutate Store or initiate swarm broadcasts. Grounded on the
// teacher's probe/handler.go fan-in select loop (one goroutine owns all
// mutable peer/chain state, everything else talks to it over channels).
package control

import (
	"errors"

	"github.com/mintpool-net/premintpool/premint"
	"github.com/mintpool-net/premintpool/rules"
	"github.com/mintpool-net/premintpool/swarm"
)

// Error kinds per spec §7.
var (
	ErrValidationRejected = errors.New("control: validation rejected")
	ErrStoreConflict      = errors.New("control: store version conflict")
	ErrTransport          = errors.New("control: transport failure")
	ErrNotFound           = errors.New("control: not found")
	ErrConfigInvalid      = errors.New("control: invalid configuration")
)

// ValidationError wraps a rules.Results rejection so a caller can inspect
// every rule's outcome, not just a boolean.
type ValidationError struct {
	Results rules.Results
}

func (e *ValidationError) Error() string { return "control: " + e.Results.String() }
func (e *ValidationError) Unwrap() error { return ErrValidationRejected }

// InclusionMode selects how MintSeenOnchain peer claims are handled (spec
// §6's semantics table).
type InclusionMode string

const (
	ModeCheck  InclusionMode = "check"
	ModeVerify InclusionMode = "verify"
	ModeTrust  InclusionMode = "trust"
)

// QueryKind selects the read-only Query command's shape.
type QueryKind int

const (
	QueryListAll QueryKind = iota
	QueryDirectHandle
)

// Query is a read-only pass-through to Store (spec §4.1).
type Query struct {
	Kind QueryKind

	// PremintKind and ID are only read for QueryDirectHandle.
	PremintKind string
	ID          string

	Reply chan<- QueryResult
}

type QueryResult struct {
	Premints []premint.Premint
	Err      error
}

// Command is the external, process-internal API the Controller accepts
// (spec §4.1 "Operations (external commands)").
type Command interface{ isCommand() }

type ConnectToPeer struct {
	Address string
}

type AnnounceSelf struct{}

type ReturnNetworkState struct {
	Reply chan<- swarm.NetworkState
}

type ReturnNodeInfo struct {
	Reply chan<- swarm.NodeInfo
}

// Broadcast validates and inserts premint, then (on success) forwards it to
// the Swarm. Reply delivery MUST be attempted on every path (spec §4.1).
type Broadcast struct {
	Premint premint.Premint
	Reply   chan<- error
}

// ResolveOnchainMint marks claim seen; in Check mode also tells peers to
// prune via Swarm::SendOnchainMintFound.
type ResolveOnchainMint struct {
	Claim premint.InclusionClaim
}

func (ConnectToPeer) isCommand()       {}
func (AnnounceSelf) isCommand()        {}
func (ReturnNetworkState) isCommand()  {}
func (ReturnNodeInfo) isCommand()      {}
func (Broadcast) isCommand()           {}
func (Query) isCommand()               {}
func (ResolveOnchainMint) isCommand()  {}
