// Package model abstracts the external reasoning service agents consult to
// decide their handoffs. Providers stream responses so the terminal agent's
// answer can be surfaced incrementally; tool calling is normalized across
// vendors so agents need no per-provider branching.
package model

import (
	"context"
	"fmt"
	"strings"
)

// Message is one conversational element of a request. Tool results reference
// the originating call via ToolCallID.
type Message struct {
	Role       string     `json:"role"` // user, assistant, tool
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a function invocation request surfaced by a provider, unified
// across vendors.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input produced by agents.
type Request struct {
	Instructions string           `json:"instructions"`
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	Stream       bool             `json:"stream,omitempty"`
}

// Response is a (partial or final) chunk emitted by a provider.
type Response struct {
	Partial      bool       `json:"partial"`
	Text         string     `json:"text"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface agents use to drive generation.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// ScriptedModel is a lightweight in-memory Model useful for tests and
// examples. Responses are matched by the last user/tool message text, with
// an optional default.
type ScriptedModel struct {
	info      Info
	responses map[string]string
	fallback  string
}

// NewScriptedModel constructs a ScriptedModel with tool support flagged on.
func NewScriptedModel(name string) *ScriptedModel {
	return &ScriptedModel{
		info:      Info{Name: name, Provider: "scripted", SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion for an input message.
func (m *ScriptedModel) AddResponse(input, response string) { m.responses[input] = response }

// SetFallback sets the completion used when no input matches.
func (m *ScriptedModel) SetFallback(response string) { m.fallback = response }

// Generate implements Model; optionally streams word chunks before the
// final response.
func (m *ScriptedModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	out := make(chan Response, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		if len(req.Messages) == 0 {
			errCh <- fmt.Errorf("no messages provided")
			return
		}
		input := req.Messages[len(req.Messages)-1].Content
		full, ok := m.responses[input]
		if !ok {
			full = m.fallback
		}
		if full == "" {
			full = fmt.Sprintf("Scripted response to: %s", input)
		}
		if req.Stream {
			for _, word := range strings.SplitAfter(full, " ") {
				select {
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				case out <- Response{Partial: true, Text: word}:
				}
			}
		}
		select {
		case <-ctx.Done():
			errCh <- ctx.Err()
		case out <- Response{Text: full, FinishReason: "stop"}:
		}
	}()

	return out, errCh
}

// Info implements Model.
func (m *ScriptedModel) Info() Info { return m.info }
