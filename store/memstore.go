package store

import (
	"context"
	"sync"

	"github.com/mintpool-net/premintpool/premint"
)

type rowKey struct {
	kind string
	id   string
}

// MemStore is an in-memory Store, used by tests. (cmd/premintpoold opens a
// SQLStore on ":memory:" when no DSN is configured.) Every read takes a consistent snapshot under a single
// RWMutex critical section, matching the "readers observe a consistent
// snapshot per call" contract of spec §4.5.
type MemStore struct {
	mu    sync.RWMutex
	rows  map[rowKey]premint.Premint
	seen  map[rowKey]bool
	claim map[claimKey]premint.InclusionClaim
}

type claimKey struct {
	chainID  uint64
	txHash   string
	logIndex uint64
}

func NewMemStore() *MemStore {
	return &MemStore{
		rows:  make(map[rowKey]premint.Premint),
		seen:  make(map[rowKey]bool),
		claim: make(map[claimKey]premint.InclusionClaim),
	}
}

func (s *MemStore) StorePremint(_ context.Context, p premint.Premint) error {
	meta := p.Metadata()
	key := rowKey{kind: meta.Kind, id: meta.ID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.rows[key]; ok {
		if meta.Version <= existing.Metadata().Version {
			return ErrVersionConflict
		}
	}
	s.rows[key] = p
	return nil
}

func (s *MemStore) ListAll(_ context.Context) ([]premint.Premint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]premint.Premint, 0, len(s.rows))
	for key, p := range s.rows {
		if s.seen[key] {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *MemStore) GetForIDAndKind(_ context.Context, kind, id string) (premint.Premint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.rows[rowKey{kind: kind, id: id}]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *MemStore) IsSeenOnChain(_ context.Context, kind, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seen[rowKey{kind: kind, id: id}], nil
}

func (s *MemStore) MarkSeenOnChain(_ context.Context, c premint.InclusionClaim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ck := claimKey{chainID: c.ChainID, txHash: c.TxHash.Hex(), logIndex: c.LogIndex}
	s.claim[ck] = c
	s.seen[rowKey{kind: c.Kind, id: c.PremintID}] = true
	return nil
}

func (s *MemStore) Close() error { return nil }

var _ Store = (*MemStore)(nil)
