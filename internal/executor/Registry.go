/*

This file contains the typed protocol adapter registry.

Adapters are registered once at startup and resolved by protocol name, so an
unknown protocol fails at wiring time or at the first recommendation rather
than deep inside a submission loop.

*/

package executor

import (
	"fmt"

	"github.com/starkfolio/apa/internal/types"
)

// ProtocolAdapter maps a recommendation into the protocol-specific
// contract call that deploys the funds.
type ProtocolAdapter interface {
	Protocol() string
	BuildCall(rec types.Recommendation) (Call, error)
}

// Registry resolves protocol names to their adapters.
type Registry struct {
	adapters map[string]ProtocolAdapter
}

// NewRegistry builds a registry from the given adapters. Duplicate protocol
// names are a wiring error.
func NewRegistry(adapters ...ProtocolAdapter) (*Registry, error) {
	r := &Registry{adapters: make(map[string]ProtocolAdapter, len(adapters))}
	for _, adapter := range adapters {
		name := adapter.Protocol()
		if _, exists := r.adapters[name]; exists {
			return nil, fmt.Errorf("duplicate adapter registered for protocol %s", name)
		}
		r.adapters[name] = adapter
	}
	return r, nil
}

// Resolve returns the adapter for a protocol.
func (r *Registry) Resolve(protocol string) (ProtocolAdapter, bool) {
	adapter, ok := r.adapters[protocol]
	return adapter, ok
}
