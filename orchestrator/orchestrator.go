// Package orchestrator implements the dispatch loop: it drives a bounded
// sequence of agent invocations per user turn, enforcing the global
// invariants no single agent is trusted to enforce itself: the hop limit,
// the coordinator call cap and the terminal/coordinator bounce cap.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/healthmesh/core"
	"github.com/hupe1980/healthmesh/logging"
	"github.com/hupe1980/healthmesh/registry"
)

// Default dispatch limits.
const (
	DefaultMaxHops             = 15
	DefaultMaxCoordinatorCalls = 3
	DefaultMaxCriticReturns    = 1
)

// apologyText is the generic fallback when an agent invocation fails
// unrecoverably. The turn still completes and persists.
const apologyText = "I'm sorry, I ran into a problem while working on your request. Please try again."

// Options holds dependency + configuration overrides passed to New.
type Options struct {
	// MaxHops caps agent invocations per turn; hitting it is a designed
	// circuit breaker, not an error.
	MaxHops int
	// MaxCoordinatorCalls caps invocations of the coordinator agent per turn.
	MaxCoordinatorCalls int
	// MaxCriticReturns caps terminal-to-coordinator bounces per turn.
	MaxCriticReturns int
	// InvocationTimeout is the wall-clock cap per agent invocation; a
	// timeout is treated as an agent failure. Zero disables it.
	InvocationTimeout time.Duration
	// Logger receives dispatch decisions.
	Logger logging.Logger
}

// Orchestrator sequences agent execution against a shared Context. Safe for
// concurrent use across sessions; callers must serialize turns per session.
type Orchestrator struct {
	registry    *registry.Registry
	entry       string
	coordinator string
	terminal    string

	maxHops             int
	maxCoordinatorCalls int
	maxCriticReturns    int
	invocationTimeout   time.Duration
	logger              logging.Logger
}

// New constructs an Orchestrator. The entry, coordinator and terminal agents
// must all be registered.
func New(reg *registry.Registry, entry, coordinator, terminal string, optFns ...func(o *Options)) (*Orchestrator, error) {
	opts := Options{
		MaxHops:             DefaultMaxHops,
		MaxCoordinatorCalls: DefaultMaxCoordinatorCalls,
		MaxCriticReturns:    DefaultMaxCriticReturns,
		Logger:              logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	for _, name := range []string{entry, coordinator, terminal} {
		if !reg.Has(name) {
			return nil, &core.UnknownAgentError{Name: name}
		}
	}

	return &Orchestrator{
		registry:            reg,
		entry:               entry,
		coordinator:         coordinator,
		terminal:            terminal,
		maxHops:             opts.MaxHops,
		maxCoordinatorCalls: opts.MaxCoordinatorCalls,
		maxCriticReturns:    opts.MaxCriticReturns,
		invocationTimeout:   opts.InvocationTimeout,
		logger:              opts.Logger,
	}, nil
}

// RunTurn processes one user message against the shared Context and returns
// the final response text. Agent failures degrade to a generic apology; the
// only error returned is cancellation of ctx, which the caller surfaces as a
// transport-level failure.
//
// Events (agent activity, partial output) are sent on emit when non-nil;
// the caller owns the channel and appends the final/done events itself.
func (o *Orchestrator) RunTurn(ctx context.Context, shared *core.Context, userMessage string, emit chan<- core.Event) (string, error) {
	shared.AddMessage(core.RoleUser, userMessage, "")
	shared.ResetTurn()

	current := o.entry
	forcedFinal := false
	var finalText string
	var lastAgent string

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		// Hop circuit breaker: the last permitted hop is reserved for a final
		// terminal invocation, keeping hopCount at or below the cap.
		if shared.HopCount >= o.maxHops-1 {
			if current != o.terminal {
				o.logger.Warn("hop limit reached, forcing terminal agent session_id=%s hops=%d", shared.SessionID, shared.HopCount)
				shared.AddFinding("system", "hop limit reached; producing best-effort synthesis from accumulated findings")
				current = o.terminal
			}
			forcedFinal = true
		}

		// Coordinator call cap: override before the invocation is recorded
		// so the sequence never shows the excess call.
		if current == o.coordinator && shared.TriageCallCount >= o.maxCoordinatorCalls {
			o.logger.Warn("coordinator call limit reached, forcing terminal agent session_id=%s calls=%d", shared.SessionID, shared.TriageCallCount)
			shared.AddFinding("system", fmt.Sprintf("loop prevention activated after %d coordinator calls; routing to %s for final synthesis", shared.TriageCallCount, o.terminal))
			current = o.terminal
		}

		shared.HopCount++
		shared.AgentSequence = append(shared.AgentSequence, current)
		if current == o.coordinator {
			shared.TriageCallCount++
		}
		lastAgent = current

		o.send(ctx, emit, core.NewAgentActiveEvent(current))
		o.logger.Debug("dispatch hop=%d agent=%s session_id=%s", shared.HopCount, current, shared.SessionID)

		entry, err := o.registry.Lookup(current)
		if err != nil {
			// Should not happen for entry/coordinator/terminal (validated in
			// New); recover like any unknown target.
			o.logger.Error("registered agent vanished: %v", err)
			finalText = apologyText
			break
		}

		tc := core.NewTurnContext(ctx, shared, userMessage, o.registry.Peers(current), nil, o.logger)
		if current == o.terminal {
			tc = tc.WithEmit(emit)
		}

		ho, err := o.invoke(ctx, current, entry.Agent, tc)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if isCannotAssist(err) {
				shared.AddFinding("system", fmt.Sprintf("%s cannot assist: %v", current, err))
				ho = core.Handoff{Target: o.terminal, Reason: "cannot assist"}
			} else {
				o.logger.Error("agent invocation failed agent=%s session_id=%s err=%v", current, shared.SessionID, err)
				finalText = apologyText
				break
			}
		}

		shared.ApplyUpdate(ho.Update)
		for _, ti := range ho.ToolTrace {
			o.logger.Info("tool call agent=%s tool=%s duration_ms=%d", current, ti.Name, ti.Duration.Milliseconds())
		}

		if current == o.terminal {
			if forcedFinal || ho.Stop || ho.Target == o.terminal || ho.Target == "" {
				finalText = ho.FinalText
				break
			}
		} else if ho.Stop {
			// Only the terminal agent may end the turn; fold early stops into
			// the findings and let the terminal agent synthesize.
			if ho.FinalText != "" {
				shared.AddFinding(current, ho.FinalText)
			}
			current = o.terminal
			continue
		}

		target := ho.Target
		if target == "" {
			target = o.terminal
		}

		if !o.registry.Has(target) {
			o.logger.Warn("unknown handoff target agent=%s target=%q session_id=%s", current, target, shared.SessionID)
			shared.AddFinding("system", fmt.Sprintf("%s requested unknown agent %q; routing to %s", current, target, o.terminal))
			target = o.terminal
		}

		// At most one bounce back from the terminal agent to the coordinator
		// is permitted, preventing oscillation between the two.
		if target == o.coordinator && current == o.terminal {
			if shared.CriticReturnCount >= o.maxCriticReturns {
				o.logger.Warn("refusing repeated terminal-to-coordinator bounce session_id=%s", shared.SessionID)
				if ho.FinalText != "" {
					finalText = ho.FinalText
					break
				}
				target = o.terminal
			} else {
				shared.CriticReturnCount++
			}
		}

		current = target
	}

	if finalText == "" {
		finalText = o.synthesizeFallback(shared)
	}

	shared.AddMessage(core.RoleAgent, finalText, lastAgent)
	return finalText, nil
}

// invoke runs one agent with the per-invocation timeout and panic recovery.
func (o *Orchestrator) invoke(ctx context.Context, name string, ag core.Agent, tc *core.TurnContext) (core.Handoff, error) {
	if o.invocationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.invocationTimeout)
		defer cancel()
		tc = tc.WithContext(ctx)
	}

	type result struct {
		ho  core.Handoff
		err error
	}
	ch := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: &core.InvocationError{Agent: name, Err: fmt.Errorf("panic: %v", r)}}
			}
		}()
		ho, err := ag.Run(tc)
		if err != nil && !isCannotAssist(err) {
			err = &core.InvocationError{Agent: name, Err: err}
		}
		ch <- result{ho: ho, err: err}
	}()

	select {
	case <-ctx.Done():
		return core.Handoff{}, &core.InvocationError{Agent: name, Err: ctx.Err()}
	case res := <-ch:
		return res.ho, res.err
	}
}

// synthesizeFallback builds a best-effort answer from whatever was
// accumulated when no agent produced final text.
func (o *Orchestrator) synthesizeFallback(shared *core.Context) string {
	findings := shared.Findings()
	if len(findings) == 0 {
		return apologyText
	}
	var b strings.Builder
	b.WriteString("Here is what I found so far:\n")
	for _, f := range findings {
		if f.Key == "system" {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", f.Key, f.Value)
	}
	if b.Len() == len("Here is what I found so far:\n") {
		return apologyText
	}
	return b.String()
}

func (o *Orchestrator) send(ctx context.Context, emit chan<- core.Event, ev core.Event) {
	if emit == nil {
		return
	}
	select {
	case <-ctx.Done():
	case emit <- ev:
	}
}

func isCannotAssist(err error) bool {
	return errors.Is(err, core.ErrCannotAssist)
}
