package core

import "time"

// ContextUpdate is the partial update to the shared Context carried by a
// Handoff. Findings keep their order so the Context records them in the
// sequence the agent produced them.
type ContextUpdate struct {
	Findings      []Finding `json:"findings,omitempty"`
	AddTasks      []string  `json:"add_tasks,omitempty"`
	CompleteTasks []string  `json:"complete_tasks,omitempty"`
}

// IsZero reports whether the update carries no changes.
func (u ContextUpdate) IsZero() bool {
	return len(u.Findings) == 0 && len(u.AddTasks) == 0 && len(u.CompleteTasks) == 0
}

// ToolInvocation records a single tool call an agent performed during its
// turn. Logged for observability; not part of the correctness contract.
type ToolInvocation struct {
	Name     string        `json:"name"`
	Args     string        `json:"args,omitempty"`
	Duration time.Duration `json:"duration"`
	Err      string        `json:"error,omitempty"`
}

// Handoff is the decision produced by an agent's turn and consumed by the
// dispatch loop. Its effects are folded into the Context before the next
// invocation; the Handoff itself is not persisted.
//
// Either Target names the next agent, or Stop is set with FinalText holding
// the terminal agent's answer for the turn.
type Handoff struct {
	Target    string           `json:"target_agent,omitempty"`
	Reason    string           `json:"reason,omitempty"`
	Stop      bool             `json:"stop,omitempty"`
	FinalText string           `json:"final_text,omitempty"`
	Update    ContextUpdate    `json:"context_update,omitempty"`
	ToolTrace []ToolInvocation `json:"tool_trace,omitempty"`
}
