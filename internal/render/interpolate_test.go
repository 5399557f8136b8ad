package render

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpolate(t *testing.T) {
	record := map[string]any{
		"name": "run",
		"id":   float64(7),
		"meta": map[string]any{"owner": "ops"},
	}

	out, err := Interpolate("${name} #${id} by ${meta.owner}", record)
	require.NoError(t, err)
	assert.Equal(t, "run #7 by ops", out)
}

func TestInterpolate_NoTokens(t *testing.T) {
	out, err := Interpolate("plain text", nil)
	require.NoError(t, err)
	assert.Equal(t, "plain text", out)
}

func TestInterpolate_MissingPathRendersEmpty(t *testing.T) {
	out, err := Interpolate("[${missing}]", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestInterpolate_Unclosed(t *testing.T) {
	_, err := Interpolate("${name", map[string]any{})
	require.Error(t, err)
}

func TestInterpolate_EmptyToken(t *testing.T) {
	_, err := Interpolate("${}", map[string]any{})
	require.Error(t, err)
}

func TestInterpolate_FloatKeepsFraction(t *testing.T) {
	out, err := Interpolate("${p}", map[string]any{"p": 0.5})
	require.NoError(t, err)
	assert.Equal(t, "0.5", out)
}
