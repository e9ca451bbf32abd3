package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCost_KnownModel(t *testing.T) {
	cost := estimateCost("claude-sonnet-4-5", 1_000_000, 1_000_000)
	assert.InDelta(t, 18.0, cost, 0.0001)
}

func TestEstimateCost_UnknownModelReturnsZero(t *testing.T) {
	cost := estimateCost("some-unlisted-model", 1_000_000, 1_000_000)
	assert.Zero(t, cost)
}

func TestEstimateCost_ZeroTokensIsZero(t *testing.T) {
	cost := estimateCost("claude-opus-4-1", 0, 0)
	assert.Zero(t, cost)
}

func TestToInputSchema_CopiesPropertiesAndRequired(t *testing.T) {
	schema := map[string]any{
		"properties": map[string]any{"foo": map[string]any{"type": "string"}},
		"required":   []string{"foo"},
	}
	out := toInputSchema(schema)
	assert.Equal(t, schema["properties"], out.Properties)
	assert.Equal(t, []string{"foo"}, out.Required)
}

func TestToStringSlice_HandlesAnySlice(t *testing.T) {
	out := toStringSlice([]any{"a", "b", 5})
	assert.Equal(t, []string{"a", "b"}, out)
}

func TestToStringSlice_NilForUnsupportedType(t *testing.T) {
	assert.Nil(t, toStringSlice(42))
}
