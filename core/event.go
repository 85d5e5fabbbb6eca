package core

// EventKind discriminates the events streamed to the caller while a turn is
// processed.
type EventKind string

const (
	// EventAgentActive announces that an agent has been invoked; one per
	// dispatch-loop iteration.
	EventAgentActive EventKind = "agent_active"
	// EventPartialText carries an incremental fragment of the final answer.
	EventPartialText EventKind = "partial_text"
	// EventFinalText carries the complete answer plus the session id.
	EventFinalText EventKind = "final_text"
	// EventDone closes the stream after a successful turn.
	EventDone EventKind = "done"
	// EventError replaces the remaining events on unrecoverable failure.
	EventError EventKind = "error"
)

// Event is one element of the stream returned by SubmitTurn. Exactly one of
// the payload fields is meaningful depending on Kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	Agent     string    `json:"agent,omitempty"`
	Text      string    `json:"text,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	ErrText   string    `json:"error,omitempty"`
}

// NewAgentActiveEvent announces invocation of the named agent.
func NewAgentActiveEvent(agent string) Event {
	return Event{Kind: EventAgentActive, Agent: agent}
}

// NewPartialTextEvent wraps an incremental output fragment.
func NewPartialTextEvent(text string) Event {
	return Event{Kind: EventPartialText, Text: text}
}

// NewFinalTextEvent wraps the turn's final answer and its session id.
func NewFinalTextEvent(text, sessionID string) Event {
	return Event{Kind: EventFinalText, Text: text, SessionID: sessionID}
}

// NewDoneEvent closes a successful stream.
func NewDoneEvent() Event { return Event{Kind: EventDone} }

// NewErrorEvent reports an unrecoverable mid-turn failure.
func NewErrorEvent(err error) Event {
	return Event{Kind: EventError, ErrText: err.Error()}
}
