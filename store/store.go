// Package store implements the durable premint + inclusion-claim persistence
// layer described in spec §4.5 and §6 ("Persisted state"). It is grounded
// on the original `storage::PremintStorage` (original_source/src/chain.rs,
// controller.rs) and, for the concrete SQL engine, on the use of
// modernc.org/sqlite in the retrieval pack's sipeed-picoclaw swarm store.
package store

import (
	"context"
	"errors"

	"github.com/mintpool-net/premintpool/premint"
)

// ErrVersionConflict is returned by Store when a write would not strictly
// advance the version of an existing (kind, id) row (spec §3 idempotency
// invariant).
var ErrVersionConflict = errors.New("store: version does not advance existing premint")

// ErrNotFound is returned by GetForIDAndKind when no row matches.
var ErrNotFound = errors.New("store: premint not found")

// Reader is the read-only handle the RulesEngine and the admin API use; it
// must be safe for concurrent use alongside the Controller's writes (spec
// §4.5, §5 "shared resources").
type Reader interface {
	// ListAll returns every premint not yet marked seen on chain.
	ListAll(ctx context.Context) ([]premint.Premint, error)

	// GetForIDAndKind looks up a single premint regardless of its seen
	// status — a seen premint is still readable, just excluded from
	// ListAll (spec §3).
	GetForIDAndKind(ctx context.Context, kind, id string) (premint.Premint, error)

	// IsSeenOnChain reports whether (kind, id) has ever been marked seen.
	IsSeenOnChain(ctx context.Context, kind, id string) (bool, error)
}

// Store is the full read/write contract; the Controller is its only writer
// (spec §4.1, §5).
type Store interface {
	Reader

	// StorePremint persists p, rejecting the write with ErrVersionConflict
	// if an existing row of the same (kind, id) has version >= p's.
	StorePremint(ctx context.Context, p premint.Premint) error

	// MarkSeenOnChain upserts claim into the seen set. Monotone: once set,
	// never cleared, and re-marking the same claim is a no-op (spec §3,
	// §8 property 3).
	MarkSeenOnChain(ctx context.Context, claim premint.InclusionClaim) error

	// Close releases any underlying resources (database handles, etc.).
	Close() error
}
