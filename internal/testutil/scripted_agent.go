package testutil

import (
	"sync"

	"github.com/hupe1980/healthmesh/core"
)

// ScriptedAgent is a core.Agent that replays a queue of canned handoffs, one
// per invocation. When the queue is exhausted it repeats the last handoff.
// An optional RunFn takes over completely.
type ScriptedAgent struct {
	name        string
	description string

	// RunFn, when set, replaces the scripted queue.
	RunFn func(tc *core.TurnContext) (core.Handoff, error)

	mu       sync.Mutex
	handoffs []core.Handoff
	errs     []error
	calls    int
}

// NewScriptedAgent creates a ScriptedAgent with the given name.
func NewScriptedAgent(name string) *ScriptedAgent {
	return &ScriptedAgent{name: name, description: "scripted test agent " + name}
}

// Queue appends a handoff to replay.
func (a *ScriptedAgent) Queue(ho core.Handoff) *ScriptedAgent {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handoffs = append(a.handoffs, ho)
	a.errs = append(a.errs, nil)
	return a
}

// QueueErr appends an error to return instead of a handoff.
func (a *ScriptedAgent) QueueErr(err error) *ScriptedAgent {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handoffs = append(a.handoffs, core.Handoff{})
	a.errs = append(a.errs, err)
	return a
}

// Calls returns how many times the agent was invoked.
func (a *ScriptedAgent) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// Name implements core.Agent.
func (a *ScriptedAgent) Name() string { return a.name }

// Description implements core.Agent.
func (a *ScriptedAgent) Description() string { return a.description }

// Run implements core.Agent.
func (a *ScriptedAgent) Run(tc *core.TurnContext) (core.Handoff, error) {
	if a.RunFn != nil {
		a.mu.Lock()
		a.calls++
		a.mu.Unlock()
		return a.RunFn(tc)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	idx := a.calls
	a.calls++
	if len(a.handoffs) == 0 {
		return core.Handoff{Stop: true}, nil
	}
	if idx >= len(a.handoffs) {
		idx = len(a.handoffs) - 1
	}
	return a.handoffs[idx], a.errs[idx]
}
