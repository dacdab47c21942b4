package premint

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Factory produces a fresh, zero-valued instance of a concrete premint kind,
// suitable as a json.Unmarshal target.
type Factory func() Premint

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a concrete kind to the closed registry. Called from the
// kind package's init(), the same side-effecting-import pattern
// database/sql drivers use — never from this package, which would create an
// import cycle (premint -> zoracreator -> premint).
func Register(kind string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[kind]; exists {
		panic(fmt.Sprintf("premint: kind %q registered twice", kind))
	}
	registry[kind] = f
}

// New instantiates a zero-valued Premint for kind, or ok=false if kind is
// not in the registry (an unknown tag on the wire).
func New(kind string) (p Premint, ok bool) {
	registryMu.RLock()
	f, ok := registry[kind]
	registryMu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(), true
}

// Kinds returns the sorted list of registered kind tags, used by
// cmd/premintpoold to start one MintChecker per (chain, kind) pair.
func Kinds() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DecodeJSON unmarshals payload, the bare JSON of a concrete premint, into
// the type registered for kind. Unwrapping a {"kind", "payload"} wire
// envelope is DecodePremint's job.
func DecodeJSON(kind string, payload json.RawMessage) (Premint, error) {
	p, ok := New(kind)
	if !ok {
		return nil, fmt.Errorf("premint: unknown kind %q", kind)
	}
	if err := json.Unmarshal(payload, p); err != nil {
		return nil, fmt.Errorf("premint: decoding %q: %w", kind, err)
	}
	return p, nil
}
