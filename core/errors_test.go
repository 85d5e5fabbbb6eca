package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnknownAgentError(t *testing.T) {
	err := &UnknownAgentError{Name: "Mystery"}
	assert.Contains(t, err.Error(), `"Mystery"`)
}

func TestInvocationError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &InvocationError{Agent: "Physician", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "Physician")
}

func TestErrCannotAssist_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("guardrail: %w", ErrCannotAssist)
	assert.ErrorIs(t, wrapped, ErrCannotAssist)
}

func TestEventConstructors(t *testing.T) {
	assert.Equal(t, Event{Kind: EventAgentActive, Agent: "Critic"}, NewAgentActiveEvent("Critic"))
	assert.Equal(t, Event{Kind: EventPartialText, Text: "chunk"}, NewPartialTextEvent("chunk"))
	assert.Equal(t, Event{Kind: EventFinalText, Text: "answer", SessionID: "s1"}, NewFinalTextEvent("answer", "s1"))
	assert.Equal(t, Event{Kind: EventDone}, NewDoneEvent())

	ev := NewErrorEvent(errors.New("boom"))
	assert.Equal(t, EventError, ev.Kind)
	assert.Equal(t, "boom", ev.ErrText)
}
