package reference

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/discovery"
)

func TestValidateReportsUnresolvedVariable(t *testing.T) {
	def := &ast.Def{
		Variables: []*ast.VariableDecl{{Name: "limit", Initial: ast.Expr{VarRef: "missing"}}},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	tables := discovery.Discover(file, diags)
	Validate(file, tables, diags)

	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeUnresolvedReference, diags.Items()[0].Code)
}

func TestValidateDetectsVariableCycle(t *testing.T) {
	def := &ast.Def{
		Variables: []*ast.VariableDecl{
			{Name: "a", Initial: ast.Expr{VarRef: "b"}},
			{Name: "b", Initial: ast.Expr{VarRef: "a"}},
		},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	tables := discovery.Discover(file, diags)
	Validate(file, tables, diags)

	found := false
	for _, d := range diags.Items() {
		if d.Code == diagnostics.CodeCircularDependency {
			found = true
		}
	}
	require.True(t, found)
}

func TestValidateDetectsSetCycle(t *testing.T) {
	def := &ast.Def{
		Sets: []*ast.SetDecl{
			{Name: "a", Op: &ast.SetOp{Kind: ast.SetUnion, Operands: []*ast.SetOperand{
				{Kind: ast.OperandSetRef, Name: "b"},
			}}},
			{Name: "b", Op: &ast.SetOp{Kind: ast.SetUnion, Operands: []*ast.SetOperand{
				{Kind: ast.OperandSetRef, Name: "a"},
			}}},
		},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	tables := discovery.Discover(file, diags)
	Validate(file, tables, diags)

	found := false
	for _, d := range diags.Items() {
		if d.Code == diagnostics.CodeSetCycle {
			found = true
		}
	}
	require.True(t, found)
}

func TestValidateWrongScope(t *testing.T) {
	def := &ast.Def{
		States: []*ast.StateDecl{{Name: "baseline"}},
		Sets: []*ast.SetDecl{
			{Name: "s", Op: &ast.SetOp{Kind: ast.SetUnion, Operands: []*ast.SetOperand{
				{Kind: ast.OperandSetRef, Name: "baseline"},
			}}},
		},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	tables := discovery.Discover(file, diags)
	Validate(file, tables, diags)

	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeWrongScope, diags.Items()[0].Code)
}

func TestValidateAcceptsWellFormedGraph(t *testing.T) {
	def := &ast.Def{
		Variables: []*ast.VariableDecl{{Name: "base", Initial: ast.Expr{Literal: nil}}},
		Objects: []*ast.ObjectDecl{{Name: "svc", Elements: []ast.ObjectElement{
			{Field: &ast.FieldElement{Name: "name", Value: ast.Expr{VarRef: "base"}}},
		}}},
		Sets: []*ast.SetDecl{
			{Name: "combined", Op: &ast.SetOp{Kind: ast.SetUnion, Operands: []*ast.SetOperand{
				{Kind: ast.OperandObjectRef, Name: "svc"},
			}}},
		},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	tables := discovery.Discover(file, diags)
	Validate(file, tables, diags)

	require.Empty(t, diags.Items())
}

func TestValidateCriterionRefs(t *testing.T) {
	def := &ast.Def{
		States: []*ast.StateDecl{{Name: "baseline"}},
		Objects: []*ast.ObjectDecl{{Name: "svc"}},
		CriteriaTrees: []*ast.CriteriaBlock{{
			Kind: ast.CriteriaLeaf,
			Leaf: &ast.CriterionNode{
				Type:       "file_metadata",
				Test:       &ast.TestSpec{Existence: "all", Item: "all", StateOp: "AND"},
				StateRefs:  []string{"baseline"},
				ObjectRefs: []string{"svc"},
			},
		}},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	tables := discovery.Discover(file, diags)
	Validate(file, tables, diags)

	require.Empty(t, diags.Items())
}

func TestValidateCriterionUnresolvedStateRef(t *testing.T) {
	def := &ast.Def{
		CriteriaTrees: []*ast.CriteriaBlock{{
			Kind: ast.CriteriaLeaf,
			Leaf: &ast.CriterionNode{
				Type:      "file_metadata",
				Test:      &ast.TestSpec{Existence: "all", Item: "all", StateOp: "AND"},
				StateRefs: []string{"missing"},
			},
		}},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	tables := discovery.Discover(file, diags)
	Validate(file, tables, diags)

	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeUnresolvedReference, diags.Items()[0].Code)
}

func TestValidateFilterStateMustBeGlobalState(t *testing.T) {
	def := &ast.Def{
		Objects: []*ast.ObjectDecl{
			{Name: "target", Elements: []ast.ObjectElement{
				{Filter: &ast.FilterElement{Action: ast.FilterInclude, States: []string{"target"}}},
			}},
		},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	tables := discovery.Discover(file, diags)
	Validate(file, tables, diags)

	require.True(t, diags.HasErrors())
	found := false
	for _, d := range diags.Items() {
		if d.Code == diagnostics.CodeFilterStateInvalid {
			found = true
		}
	}
	require.True(t, found)
}
