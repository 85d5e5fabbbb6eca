package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTemplate(t *testing.T) {
	got, err := RenderTemplate("Hello {{.Name}}, goal: {{.Goal}}", map[string]any{
		"Name": "Ada",
		"Goal": "endurance",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada, goal: endurance", got)
}

func TestRenderTemplate_FastPathWithoutMarkers(t *testing.T) {
	got, err := RenderTemplate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", got)
}

func TestRenderTemplate_Funcs(t *testing.T) {
	got, err := RenderTemplate(`{{upper .Name}} {{join ", " .Items}} {{default "none" .Missing}}`, map[string]any{
		"Name":  "ada",
		"Items": []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, "ADA a, b none", got)
}

func TestRenderTemplate_ParseError(t *testing.T) {
	_, err := RenderTemplate("{{.Broken", nil)
	assert.Error(t, err)
}
