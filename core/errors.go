package core

import (
	"errors"
	"fmt"
)

// ErrCannotAssist signals that an agent declines the turn. The dispatch loop
// recovers by routing to the terminal agent with the refusal folded into the
// accumulated findings.
var ErrCannotAssist = errors.New("agent cannot assist with this request")

// UnknownAgentError reports a handoff target that is not registered. The
// dispatch loop recovers by forcing termination; it is never fatal to the
// whole request.
type UnknownAgentError struct {
	Name string
}

func (e *UnknownAgentError) Error() string {
	return fmt.Sprintf("unknown agent %q", e.Name)
}

// InvocationError wraps a failure raised by an agent's own execution,
// including per-invocation timeouts and recovered panics. The dispatch loop
// catches it at the loop boundary and substitutes a generic apology.
type InvocationError struct {
	Agent string
	Err   error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("agent %s invocation failed: %v", e.Agent, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }
