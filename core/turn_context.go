package core

import (
	"context"

	"github.com/hupe1980/healthmesh/logging"
)

// TurnContext carries everything an agent needs for one invocation: the
// ambient cancellation context, the shared per-session Context, the
// normalized user message for this turn and the peer directory. Partial
// output is streamed through Emit when the dispatch loop wires a channel
// (only the terminal agent's invocation gets one).
type TurnContext struct {
	Context     context.Context
	Shared      *Context
	UserMessage string
	Peers       []PeerInfo
	Emit        chan<- Event

	*loggerAdapter
}

// NewTurnContext constructs a TurnContext. Logger may be nil.
func NewTurnContext(
	ctx context.Context,
	shared *Context,
	userMessage string,
	peers []PeerInfo,
	emit chan<- Event,
	logger logging.Logger,
) *TurnContext {
	return &TurnContext{
		Context:       ctx,
		Shared:        shared,
		UserMessage:   userMessage,
		Peers:         peers,
		Emit:          emit,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (tc *TurnContext) Done() <-chan struct{} { return tc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (tc *TurnContext) Err() error { return tc.Context.Err() }

// EmitPartial streams an incremental output fragment to the caller. It is a
// no-op when no emit channel is wired.
func (tc *TurnContext) EmitPartial(text string) error {
	if tc.Emit == nil || text == "" {
		return nil
	}
	select {
	case <-tc.Context.Done():
		return tc.Context.Err()
	case tc.Emit <- NewPartialTextEvent(text):
		return nil
	}
}

// WithContext returns a copy of the TurnContext bound to a different ambient
// context. Used by the dispatch loop to apply per-invocation timeouts.
func (tc *TurnContext) WithContext(ctx context.Context) *TurnContext {
	c := *tc
	c.Context = ctx
	return &c
}

// WithEmit returns a copy with the emit channel replaced (nil disables
// partial streaming).
func (tc *TurnContext) WithEmit(emit chan<- Event) *TurnContext {
	c := *tc
	c.Emit = emit
	return &c
}
