// Package registry provides the in-process agent directory. Agents register
// once with a unique id and a fixed capability set; the router discovers
// them by capability tag at task time.
package registry

import (
	"fmt"
	"sync"

	"github.com/routemesh/routemesh/core"
)

var (
	// ErrDuplicateAgent is returned by Register when the agent id already
	// exists and replace was not requested.
	ErrDuplicateAgent = fmt.Errorf("agent already registered")
)

// Registry is a concurrency-safe directory mapping agent ids to agents.
// Registration order is preserved so capability lookups have a stable,
// deterministic agent order (the executor's first-matched tie-break depends
// on it). Reads take a shared lock and return snapshots, so runtime
// registration while tasks are in flight never exposes partial updates.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]core.Agent
	order  []string
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{agents: make(map[string]core.Agent)}
}

// Register adds an agent. If the id is already present and replace is false,
// it returns ErrDuplicateAgent (wrapped with the id) and leaves the existing
// entry untouched. With replace true the entry is overwritten in place,
// keeping its original registration position.
func (r *Registry) Register(agent core.Agent, replace bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := agent.ID()
	if _, exists := r.agents[id]; exists {
		if !replace {
			return fmt.Errorf("agent %q: %w", id, ErrDuplicateAgent)
		}
		r.agents[id] = agent
		return nil
	}
	r.agents[id] = agent
	r.order = append(r.order, id)
	return nil
}

// Unregister removes and returns the agent. Absence is a normal outcome: the
// second return value is false when no agent with the id exists.
func (r *Registry) Unregister(id string) (core.Agent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, false
	}
	delete(r.agents, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return agent, true
}

// Get returns the agent with the given id, or false when absent.
func (r *Registry) Get(id string) (core.Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	return agent, ok
}

// Contains reports whether an agent with the id is registered.
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[id]
	return ok
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// List returns all agents in registration order.
func (r *Registry) List() []core.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]core.Agent, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.agents[id])
	}
	return result
}

// IDs returns all agent ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// FindByCapability returns all agents whose capability set contains the tag,
// in registration order. A linear scan: registries hold tens of agents, not
// thousands.
func (r *Registry) FindByCapability(tag string) []core.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []core.Agent
	for _, id := range r.order {
		agent := r.agents[id]
		if hasCapability(agent, tag) {
			result = append(result, agent)
		}
	}
	return result
}

// FindByCapabilities returns agents matching the given tags. With matchAll
// true an agent must hold every tag; with matchAll false any single tag
// suffices. Results are in registration order.
func (r *Registry) FindByCapabilities(tags []string, matchAll bool) []core.Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []core.Agent
	for _, id := range r.order {
		agent := r.agents[id]
		if matchAll {
			if hasAllCapabilities(agent, tags) {
				result = append(result, agent)
			}
		} else if hasAnyCapability(agent, tags) {
			result = append(result, agent)
		}
	}
	return result
}

// Info returns a snapshot of the agent's identity, or false when absent.
func (r *Registry) Info(id string) (core.AgentInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	if !ok {
		return core.AgentInfo{}, false
	}
	return core.InfoOf(agent), true
}

// AllInfo returns identity snapshots for every registered agent in
// registration order.
func (r *Registry) AllInfo() []core.AgentInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	infos := make([]core.AgentInfo, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, core.InfoOf(r.agents[id]))
	}
	return infos
}

func hasCapability(agent core.Agent, tag string) bool {
	for _, c := range agent.Capabilities() {
		if c == tag {
			return true
		}
	}
	return false
}

func hasAllCapabilities(agent core.Agent, tags []string) bool {
	for _, tag := range tags {
		if !hasCapability(agent, tag) {
			return false
		}
	}
	return true
}

func hasAnyCapability(agent core.Agent, tags []string) bool {
	for _, tag := range tags {
		if hasCapability(agent, tag) {
			return true
		}
	}
	return false
}
