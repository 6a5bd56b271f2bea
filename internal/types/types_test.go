package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompatibleMatrix(t *testing.T) {
	require.True(t, Compatible(String, OpContains))
	require.True(t, Compatible(String, OpGt))
	require.False(t, Compatible(Boolean, OpGt))
	require.True(t, Compatible(Boolean, OpEq))
	require.True(t, Compatible(Int, OpLe))
	require.False(t, Compatible(Int, OpContains))
	require.True(t, Compatible(Collection, OpSubsetOf))
	require.False(t, Compatible(String, OpSubsetOf))
}

func TestNumericCoercible(t *testing.T) {
	require.True(t, NumericCoercible(Int, Float))
	require.True(t, NumericCoercible(Int, Int))
	require.False(t, NumericCoercible(Int, String))
	require.False(t, NumericCoercible(Version, Int))
}

func TestVarRefPlaceholder(t *testing.T) {
	v := VarRefValue("p")
	require.True(t, v.IsVarRef())
	require.False(t, StringValue("x").IsVarRef())
}

func TestFamilyOf(t *testing.T) {
	require.Equal(t, FamilyString, FamilyOf(OpContains))
	require.Equal(t, FamilyCollection, FamilyOf(OpSubsetOf))
	require.Equal(t, FamilyComparison, FamilyOf(OpGe))
}
