package structural

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/esp-lang/espcore/internal/ast"
	"github.com/esp-lang/espcore/internal/diagnostics"
	"github.com/esp-lang/espcore/internal/discovery"
	"github.com/esp-lang/espcore/internal/reference"
)

func minimalCriterion() *ast.CriteriaBlock {
	return &ast.CriteriaBlock{
		Kind: ast.CriteriaLeaf,
		Leaf: &ast.CriterionNode{
			Type: "file_metadata",
			Test: &ast.TestSpec{Existence: "all", Item: "all", StateOp: "AND"},
		},
	}
}

func TestValidateRequiresAtLeastOneCriTree(t *testing.T) {
	def := &ast.Def{}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	Validate(file, &discovery.Tables{}, reference.FileGraphs{}, diags, DefaultLimits)

	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeMissingDef, diags.Items()[0].Code)
}

func TestValidateAcceptsDefWithCriTree(t *testing.T) {
	def := &ast.Def{CriteriaTrees: []*ast.CriteriaBlock{minimalCriterion()}}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	Validate(file, &discovery.Tables{}, reference.FileGraphs{}, diags, DefaultLimits)

	require.Empty(t, diags.Items())
}

func TestValidateRejectsEmptyCriCombinator(t *testing.T) {
	def := &ast.Def{CriteriaTrees: []*ast.CriteriaBlock{
		{Kind: ast.CriteriaCombinator, LogicOp: "AND"},
	}}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	Validate(file, &discovery.Tables{}, reference.FileGraphs{}, diags, DefaultLimits)

	require.True(t, diags.HasErrors())
	require.Equal(t, diagnostics.CodeMissingCTN, diags.Items()[0].Code)
}

func TestValidateEnforcesMaxSymbolsPerDef(t *testing.T) {
	def := &ast.Def{CriteriaTrees: []*ast.CriteriaBlock{minimalCriterion()}}
	for i := 0; i < 3; i++ {
		def.Variables = append(def.Variables, &ast.VariableDecl{Name: "v"})
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	lim := DefaultLimits
	lim.MaxSymbolsPerDef = 2
	Validate(file, &discovery.Tables{}, reference.FileGraphs{}, diags, lim)

	require.True(t, diags.HasErrors())
	found := false
	for _, d := range diags.Items() {
		if d.Code == diagnostics.CodeLimitExceeded {
			found = true
		}
	}
	require.True(t, found)
}

func TestValidateEnforcesMaxSetOperands(t *testing.T) {
	def := &ast.Def{
		CriteriaTrees: []*ast.CriteriaBlock{minimalCriterion()},
		Sets: []*ast.SetDecl{{
			Name: "wide",
			Op: &ast.SetOp{
				Kind: ast.SetUnion,
				Operands: []*ast.SetOperand{
					{Kind: ast.OperandObjectRef, Name: "a"},
					{Kind: ast.OperandObjectRef, Name: "b"},
					{Kind: ast.OperandObjectRef, Name: "c"},
				},
			},
		}},
	}
	file := &ast.EspFile{Defs: []*ast.Def{def}}

	diags := diagnostics.NewList(0)
	lim := DefaultLimits
	lim.MaxSetOperands = 2
	Validate(file, &discovery.Tables{}, reference.FileGraphs{}, diags, lim)

	require.True(t, diags.HasErrors())
	found := false
	for _, d := range diags.Items() {
		if d.Code == diagnostics.CodeLimitExceeded {
			found = true
		}
	}
	require.True(t, found)
}
