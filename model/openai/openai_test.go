package openai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/healthmesh/model"
)

func TestBuildMessages(t *testing.T) {
	req := model.Request{
		Instructions: "You are the critic.",
		Messages: []model.Message{
			{Role: "user", Content: "How is my iron?"},
			{Role: "assistant", Content: "", ToolCalls: []model.ToolCall{
				{ID: "c1", Name: "get_biomarkers", Arguments: `{"names":["ferritin"]}`},
			}},
			{Role: "tool", Content: `[{"name":"Ferritin"}]`, ToolCallID: "c1"},
			{Role: "assistant", Content: "Your ferritin is low."},
		},
	}

	msgs := buildMessages(req)
	require.Len(t, msgs, 5)

	assert.NotNil(t, msgs[0].OfSystem, "instructions become the system message")
	assert.NotNil(t, msgs[1].OfUser)

	require.NotNil(t, msgs[2].OfAssistant)
	require.Len(t, msgs[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "get_biomarkers", msgs[2].OfAssistant.ToolCalls[0].Function.Name)

	require.NotNil(t, msgs[3].OfTool)
	assert.Equal(t, "c1", msgs[3].OfTool.ToolCallID)

	assert.NotNil(t, msgs[4].OfAssistant)
}

func TestBuildMessages_NoInstructions(t *testing.T) {
	msgs := buildMessages(model.Request{
		Messages: []model.Message{{Role: "user", Content: "hi"}},
	})
	require.Len(t, msgs, 1)
	assert.NotNil(t, msgs[0].OfUser)
}

func TestBuildParams_Tools(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.Model = "gpt-4o-mini"
		o.Temperature = 0.2
	})

	req := model.Request{
		Tools: []model.ToolDefinition{{
			Name:        "get_sleep_data",
			Description: "Retrieves sleep data",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"date": map[string]any{"type": "string"}},
			},
		}},
	}

	params := m.buildParams(req, buildMessages(req))
	assert.Equal(t, "gpt-4o-mini", params.Model)
	require.Len(t, params.Tools, 1)
	assert.Equal(t, "get_sleep_data", params.Tools[0].Function.Name)
}

func TestInfo(t *testing.T) {
	m := NewModel()
	info := m.Info()
	assert.Equal(t, "openai", info.Provider)
	assert.True(t, info.SupportsTools)
	assert.NotEmpty(t, info.Name)
}
