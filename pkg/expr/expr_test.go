package expr

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapVars map[string]float64

func (m mapVars) Lookup(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

func TestEvaluateArithmeticPrecedence(t *testing.T) {
	v, err := Evaluate(context.Background(), "2 + 3 * 4", mapVars{})
	require.NoError(t, err)
	assert.Equal(t, 14.0, v)

	v, err = Evaluate(context.Background(), "2 ^ 3 ^ 2", mapVars{})
	require.NoError(t, err)
	assert.Equal(t, 512.0, v) // right-associative power: 2^(3^2)
}

func TestEvaluateMinMax(t *testing.T) {
	v, err := Evaluate(context.Background(), "min(3, 7)", mapVars{})
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)

	v, err = Evaluate(context.Background(), "max(3, 7)", mapVars{})
	require.NoError(t, err)
	assert.Equal(t, 7.0, v)
}

func TestEvaluateEqualityTolerance(t *testing.T) {
	ok, err := EvaluateBool(context.Background(), "1.0 == 1.0000000000001", mapVars{})
	require.NoError(t, err)
	assert.True(t, ok, "difference is within 1e-10 tolerance")

	ok, err = EvaluateBool(context.Background(), "1.0 == 1.001", mapVars{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateVariableLookup(t *testing.T) {
	v, err := Evaluate(context.Background(), "position * 2", mapVars{"position": 21})
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
}

func TestEvaluateUnknownIdentifierIsFatal(t *testing.T) {
	_, err := Evaluate(context.Background(), "unknown_var + 1", mapVars{})
	assert.Error(t, err)
}

func TestSubstituteIdentityWithoutTokens(t *testing.T) {
	out, err := Substitute("plain string, no templates", mapVars{})
	require.NoError(t, err)
	assert.Equal(t, "plain string, no templates", out)
}

func TestSubstituteReplacesKnownVariables(t *testing.T) {
	out, err := Substitute("seek to $(position) of $(duration)", mapVars{"position": 10, "duration": 100})
	require.NoError(t, err)
	assert.Equal(t, "seek to 10 of 100", out)
}

func TestSubstituteUndefinedVariableIsHardError(t *testing.T) {
	_, err := Substitute("seek to $(missing)", mapVars{})
	assert.Error(t, err)
}
