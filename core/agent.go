package core

// Agent is a named decision unit participating in a turn. Implementations
// may consult an external reasoning service and data tools; the dispatch
// loop only depends on the Handoff they return.
//
// Implementations must:
//   - Respect cancellation of the TurnContext's ambient context
//   - Return ErrCannotAssist (possibly wrapped) when they decline the turn
//   - Avoid retaining the TurnContext beyond the call
type Agent interface {
	Name() string
	Description() string
	Run(tc *TurnContext) (Handoff, error)
}

// PeerInfo describes a registered agent to its peers so handoff decisions
// can be grounded in a real directory rather than a hardcoded list.
type PeerInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
