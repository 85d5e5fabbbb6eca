package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
			"s": map[string]any{"type": "string"},
		},
		"required": []any{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5}, schema))
	// JSON decoding yields float64 for numbers; whole values pass as integer.
	assert.NoError(t, ValidateParameters(map[string]any{"x": float64(5)}, schema))
	// Extra fields are allowed.
	assert.NoError(t, ValidateParameters(map[string]any{"x": 1, "unknown": true}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "x", vErr.Field)

	assert.Error(t, ValidateParameters(map[string]any{"x": 1.5}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"x": 1, "s": 2}, schema))
}

func TestValidateParameters_RequiredAsStringSlice(t *testing.T) {
	schema := map[string]any{
		"type":       "object",
		"properties": map[string]any{"name": map[string]any{"type": "string"}},
		"required":   []string{"name"},
	}
	assert.Error(t, ValidateParameters(map[string]any{}, schema))
	assert.NoError(t, ValidateParameters(map[string]any{"name": "ok"}, schema))
}

func TestMatchesType(t *testing.T) {
	assert.True(t, matchesType(nil, "string"))
	assert.True(t, matchesType([]any{1}, "array"))
	assert.True(t, matchesType([]string{"a"}, "array"))
	assert.True(t, matchesType(map[string]any{}, "object"))
	assert.True(t, matchesType(true, "boolean"))
	assert.True(t, matchesType(1.5, "number"))
	assert.False(t, matchesType("x", "number"))
	assert.True(t, matchesType("anything", "custom-type"))
}
