package agent

import (
	"github.com/hupe1980/healthmesh/core"
	"github.com/hupe1980/healthmesh/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from session state, environment, etc.
type Provider interface {
	Instruction(*core.TurnContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*core.TurnContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(tc *core.TurnContext) (string, error) { return f(tc) }

// Instruction represents either a static instruction string or a dynamic provider.
// This mirrors a union of string | provider in a Go-idiomatic way.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.TurnContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// NewInstructionFromTemplate creates an Instruction whose text is rendered
// per invocation against the shared context. Available template fields:
// .SessionID, .UserIntent, .UserMessage, .PendingTasks and .Findings (a map
// of the most recent value per key).
func NewInstructionFromTemplate(text string) Instruction {
	return NewInstructionFromFunc(func(tc *core.TurnContext) (string, error) {
		findings := make(map[string]string)
		for _, f := range tc.Shared.Findings() {
			findings[f.Key] = f.Value
		}
		return util.RenderTemplate(text, map[string]any{
			"SessionID":    tc.Shared.SessionID,
			"UserIntent":   tc.Shared.UserIntent,
			"UserMessage":  tc.UserMessage,
			"PendingTasks": tc.Shared.PendingTasks(),
			"Findings":     findings,
		})
	})
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(tc *core.TurnContext) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(tc)
	}
	return i.text, nil
}
