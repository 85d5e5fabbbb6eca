package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/healthmesh/model"
)

func TestBuildMessages(t *testing.T) {
	msgs := buildMessages([]model.Message{
		{Role: "user", Content: "How is my iron?"},
		{Role: "assistant", Content: "Checking.", ToolCalls: []model.ToolCall{
			{ID: "c1", Name: "get_biomarkers", Arguments: `{"names":["ferritin"]}`},
		}},
		{Role: "tool", Content: `[{"name":"Ferritin"}]`, ToolCallID: "c1"},
	})

	require.Len(t, msgs, 3)
	assert.Equal(t, "user", string(msgs[0].Role))

	assert.Equal(t, "assistant", string(msgs[1].Role))
	require.Len(t, msgs[1].Content, 2, "text block plus tool_use block")
	require.NotNil(t, msgs[1].Content[1].OfToolUse)
	assert.Equal(t, "get_biomarkers", msgs[1].Content[1].OfToolUse.Name)

	// Tool results travel as tool_result blocks inside a user message.
	assert.Equal(t, "user", string(msgs[2].Role))
	require.Len(t, msgs[2].Content, 1)
	require.NotNil(t, msgs[2].Content[0].OfToolResult)
	assert.Equal(t, "c1", msgs[2].Content[0].OfToolResult.ToolUseID)
}

func TestBuildMessages_SkipsEmptyContent(t *testing.T) {
	msgs := buildMessages([]model.Message{
		{Role: "user", Content: ""},
		{Role: "assistant", Content: ""},
	})
	assert.Empty(t, msgs)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]model.ToolDefinition{{
		Name:        "get_sleep_data",
		Description: "Retrieves sleep data",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{"date": map[string]any{"type": "string"}},
			"required":   []string{"date"},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "get_sleep_data", tools[0].OfTool.Name)
	assert.NotNil(t, tools[0].OfTool.InputSchema.Properties)
	assert.Equal(t, []string{"date"}, tools[0].OfTool.InputSchema.Required)
}

func TestInfo(t *testing.T) {
	m := NewModel()
	info := m.Info()
	assert.Equal(t, "anthropic", info.Provider)
	assert.True(t, info.SupportsTools)
}
