package ast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/types"
)

func TestExprIsVarRef(t *testing.T) {
	lit := Expr{Literal: &types.Value{Kind: types.Int, Int: 5}}
	require.False(t, lit.IsVarRef())

	ref := Expr{VarRef: "threshold"}
	require.True(t, ref.IsVarRef())
}

func TestObjectElementHoldsExactlyOneVariant(t *testing.T) {
	el := ObjectElement{Field: &FieldElement{Name: "status", Value: Expr{Literal: &types.Value{Kind: types.String, Str: "enabled"}}}}
	require.NotNil(t, el.Field)
	require.Nil(t, el.Module)
	require.Nil(t, el.SetRef)
}

func TestSetOpFlatOperandList(t *testing.T) {
	union := &SetOp{Kind: SetUnion, Operands: []*SetOperand{
		{Kind: OperandObjectRef, Name: "a"},
		{Kind: OperandSetRef, Name: "b"},
	}}
	require.Len(t, union.Operands, 2)
	require.Equal(t, "a", union.Operands[0].Name)
	require.Equal(t, OperandObjectRef, union.Operands[0].Kind)
	require.Equal(t, OperandSetRef, union.Operands[1].Kind)
}

func TestFilterActionSymmetry(t *testing.T) {
	inc := FilterElement{Action: FilterInclude, States: []string{"baseline"}}
	exc := FilterElement{Action: FilterExclude, States: []string{"baseline"}}
	require.Equal(t, inc.States, exc.States)
	require.NotEqual(t, inc.Action, exc.Action)
}

func TestCriterionNodeElementOrder(t *testing.T) {
	node := &CriterionNode{
		Type:       "file_metadata",
		Test:       &TestSpec{Existence: "all", Item: "all", StateOp: "AND"},
		StateRefs:  []string{"baseline"},
		ObjectRefs: []string{"svc"},
	}
	require.Equal(t, "all", node.Test.Existence)
	require.Len(t, node.StateRefs, 1)
	require.Len(t, node.ObjectRefs, 1)
}
