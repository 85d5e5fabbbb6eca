package tool

import (
	"context"

	"github.com/hupe1980/healthmesh/internal/util"
)

// FunctionTool adapts an ordinary Go function into a Tool.
type FunctionTool struct {
	name        string
	description string
	parameters  map[string]any
	fn          func(ctx context.Context, args map[string]any) (any, error)
}

// NewFunctionTool constructs a FunctionTool from its schema and handler.
func NewFunctionTool(
	name, description string,
	parameters map[string]any,
	fn func(ctx context.Context, args map[string]any) (any, error),
) *FunctionTool {
	if parameters == nil {
		parameters = map[string]any{"type": "object", "properties": map[string]any{}}
	}
	return &FunctionTool{name: name, description: description, parameters: parameters, fn: fn}
}

// Name returns the unique identifier for this tool.
func (t *FunctionTool) Name() string { return t.name }

// Description returns a human-readable description of what this tool does.
func (t *FunctionTool) Description() string { return t.description }

// Parameters returns the JSON schema for the tool's arguments.
func (t *FunctionTool) Parameters() map[string]any { return t.parameters }

// Call validates the arguments against the schema, then executes the
// wrapped function.
func (t *FunctionTool) Call(ctx context.Context, args map[string]any) (any, error) {
	if err := util.ValidateParameters(args, t.parameters); err != nil {
		return nil, NewToolError(t.name, err.Error(), "invalid_arguments")
	}
	return t.fn(ctx, args)
}
