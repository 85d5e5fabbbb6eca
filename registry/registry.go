// Package registry provides the static agent directory used by the dispatch
// loop for handoff validation and by agents to learn which peers exist. The
// table is built once at process start and is immutable afterwards.
package registry

import (
	"fmt"

	"github.com/hupe1980/healthmesh/core"
)

// Definition declares one agent for registration.
type Definition struct {
	// Name is the external identifier agents use in handoff decisions.
	Name string
	// Description tells peers broadly what this agent does.
	Description string
	// Capabilities are free-form input capability tags.
	Capabilities []string
	// Agent is the callable entry point.
	Agent core.Agent
}

// Entry is the stored capability descriptor for a registered agent.
type Entry struct {
	Description  string
	Capabilities []string
	Agent        core.Agent
}

// Registry is an immutable name-to-capability descriptor + entry point table.
// Safe for concurrent reads.
type Registry struct {
	names   []string
	entries map[string]Entry
}

// New builds a Registry from definitions, preserving registration order for
// peer listings. Duplicate or empty names and nil entry points are rejected.
func New(defs ...Definition) (*Registry, error) {
	r := &Registry{entries: make(map[string]Entry, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("agent definition with empty name")
		}
		if d.Agent == nil {
			return nil, fmt.Errorf("agent %q has no entry point", d.Name)
		}
		if _, exists := r.entries[d.Name]; exists {
			return nil, fmt.Errorf("agent %q registered twice", d.Name)
		}
		desc := d.Description
		if desc == "" {
			desc = d.Agent.Description()
		}
		r.names = append(r.names, d.Name)
		r.entries[d.Name] = Entry{Description: desc, Capabilities: d.Capabilities, Agent: d.Agent}
	}
	return r, nil
}

// Lookup returns the entry for name or a *core.UnknownAgentError.
func (r *Registry) Lookup(name string) (Entry, error) {
	e, ok := r.entries[name]
	if !ok {
		return Entry{}, &core.UnknownAgentError{Name: name}
	}
	return e, nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// Peers lists all registered agents except the excluded one, in registration
// order. Used to inform an agent of its peers at invocation time.
func (r *Registry) Peers(excluding string) []core.PeerInfo {
	peers := make([]core.PeerInfo, 0, len(r.names))
	for _, name := range r.names {
		if name == excluding {
			continue
		}
		peers = append(peers, core.PeerInfo{Name: name, Description: r.entries[name].Description})
	}
	return peers
}

// Names returns the registered agent names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of registered agents.
func (r *Registry) Len() int { return len(r.names) }
